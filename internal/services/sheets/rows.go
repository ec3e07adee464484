package sheets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Job is a spreadsheet row selected for processing.
type Job struct {
	Row         int64 // 1-based spreadsheet row number
	VideoURL    string
	SubtitleURL string
}

// Fingerprint identifies a job so re-reads of the sheet do not enqueue the
// same row twice.
func (j Job) Fingerprint() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d\n%s\n%s", j.Row, j.VideoURL, j.SubtitleURL)))
	return hex.EncodeToString(sum[:16])
}

// Row layout: column A holds the video link, column E the subtitle link with
// column B as fallback, and column F the processed status.
const (
	colVideo       = 0
	colSubtitleAlt = 1
	colSubtitle    = 4
	colStatus      = 5

	// StatusColumn is the 1-based column written back after processing.
	StatusColumn = 6
)

// SelectJobs filters raw sheet rows down to the ones awaiting processing.
// The first row is treated as a header.
func SelectJobs(rows [][]string) []Job {
	var jobs []Job
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			continue
		}

		videoURL := strings.TrimSpace(cell(row, colVideo))
		if videoURL == "" {
			continue
		}

		status := strings.TrimSpace(cell(row, colStatus))
		if strings.EqualFold(status, "yes") {
			continue
		}

		subtitleURL := strings.TrimSpace(cell(row, colSubtitle))
		if subtitleURL == "" {
			subtitleURL = strings.TrimSpace(cell(row, colSubtitleAlt))
		}
		if subtitleURL == "" {
			continue
		}

		jobs = append(jobs, Job{
			Row:         int64(i + 1),
			VideoURL:    videoURL,
			SubtitleURL: subtitleURL,
		})
	}
	return jobs
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return row[index]
}
