package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"reelpost/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, statusOK.color()) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestBuildQueueStatusRowsSorted(t *testing.T) {
	rows := buildQueueStatusRows(map[string]int{
		"pending":   2,
		"completed": 1,
		"failed":    3,
	})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Completed" || rows[1][0] != "Failed" || rows[2][0] != "Pending" {
		t.Fatalf("unexpected row order: %#v", rows)
	}
	if rows[2][1] != "2" {
		t.Fatalf("unexpected pending count: %#v", rows[2])
	}
}

func TestBuildQueueListRowsNewestFirst(t *testing.T) {
	items := []ipc.QueueItem{
		{ID: 1, VideoURL: "https://cdn/old.mp4", Status: "completed", CreatedAt: "2026-08-01T10:00:00Z"},
		{ID: 2, VideoURL: "https://cdn/new.mp4", Status: "pending", SheetRow: 4, CreatedAt: "2026-08-02T10:00:00Z"},
	}
	rows := buildQueueListRows(items)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "2" {
		t.Fatalf("expected newest item first, got %#v", rows[0])
	}
	if rows[0][2] != "sheet row 4" || rows[1][2] != "manual" {
		t.Fatalf("unexpected origin columns: %#v", rows)
	}
	if rows[0][4] != "2026-08-02 10:00" {
		t.Fatalf("unexpected created column: %q", rows[0][4])
	}
}

func TestTruncateURL(t *testing.T) {
	if got := truncateURL("https://cdn/video.mp4", 48); got != "https://cdn/video.mp4" {
		t.Fatalf("short url should be unchanged, got %q", got)
	}
	long := "https://example.com/" + strings.Repeat("a", 60)
	got := truncateURL(long, 20)
	if len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestFormatStatusLabel(t *testing.T) {
	if got := formatStatusLabel("pending"); got != "Pending" {
		t.Fatalf("unexpected label: %q", got)
	}
	if got := formatStatusLabel(""); got != "" {
		t.Fatalf("expected empty label, got %q", got)
	}
}
