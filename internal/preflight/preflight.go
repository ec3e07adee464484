package preflight

import (
	"context"

	"reelpost/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Staging directory (always checked)
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	results = append(results, CheckInstagram(ctx, "", cfg.Instagram))
	results = append(results, CheckInstagramCookies(cfg.Instagram))
	results = append(results, CheckGemini(cfg.Gemini))

	if cfg.Sheets.Enabled {
		results = append(results, CheckSheetCredentials(cfg.Sheets))
	}

	return results
}
