package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusCaptioning Status = "captioning"
	StatusCaptioned  Status = "captioned"
	StatusFetching   Status = "fetching"
	StatusFetched    Status = "fetched"
	StatusUploading  Status = "uploading"
	StatusUploaded   Status = "uploaded"
	StatusPublishing Status = "publishing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusCaptioning,
	StatusCaptioned,
	StatusFetching,
	StatusFetched,
	StatusUploading,
	StatusUploaded,
	StatusPublishing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusCaptioning: {},
	StatusFetching:   {},
	StatusUploading:  {},
	StatusPublishing: {},
}

// rollbackStatus maps each in-flight status back to the start of its stage.
var rollbackStatus = map[Status]Status{
	StatusCaptioning: StatusPending,
	StatusFetching:   StatusCaptioned,
	StatusUploading:  StatusFetched,
	StatusPublishing: StatusUploaded,
}

// RollbackStatus returns the status an interrupted item should resume from.
func RollbackStatus(status Status) (Status, bool) {
	to, ok := rollbackStatus[status]
	return to, ok
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID               int64
	VideoURL         string
	SubtitleURL      string
	SheetFingerprint string
	SheetRow         int64 // 0 when the item was enqueued manually
	Caption          string
	LocalPath        string
	PublicURL        string
	CreationID       string
	PostID           string
	Status           Status
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PublishedAt      *time.Time
	ProgressStage    string
	ProgressPercent  float64
	ProgressMessage  string
	LastHeartbeat    *time.Time
	Reported         bool
	RetryCount       int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// FromSheet reports whether the item was ingested from the spreadsheet.
func (i Item) FromSheet() bool {
	return i.SheetRow > 0
}

// InitProgress resets progress fields at the start of a new stage.
func (i *Item) InitProgress(stage, message string) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates the progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}
