// Package deps discovers the external binaries the pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement describes one external binary dependency.
type Requirement struct {
	Name     string
	Binary   string
	Optional bool
	Purpose  string
}

// Status reports the lookup result for a single requirement.
type Status struct {
	Requirement Requirement
	Path        string
	Found       bool
	Err         error
}

// Detail renders a one-line human readable summary.
func (s Status) Detail() string {
	if s.Found {
		return fmt.Sprintf("%s available at %s", s.Requirement.Name, s.Path)
	}
	detail := fmt.Sprintf("%s not found on PATH", s.Requirement.Binary)
	if s.Requirement.Purpose != "" {
		detail += " (" + s.Requirement.Purpose + ")"
	}
	return detail
}

// CheckBinaries resolves each requirement against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{Requirement: req}
		binary := strings.TrimSpace(req.Binary)
		if binary == "" {
			status.Err = fmt.Errorf("requirement %s has no binary", req.Name)
			statuses = append(statuses, status)
			continue
		}
		path, err := exec.LookPath(binary)
		if err != nil {
			status.Err = err
		} else {
			status.Found = true
			status.Path = path
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// MissingRequired returns the names of required binaries that were not found.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Found && !status.Requirement.Optional {
			missing = append(missing, status.Requirement.Binary)
		}
	}
	return missing
}
