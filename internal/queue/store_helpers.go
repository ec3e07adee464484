package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, video_url, subtitle_url, sheet_fingerprint, sheet_row, caption, local_path, public_url, creation_id, post_id, status, error_message, created_at, updated_at, published_at, progress_stage, progress_percent, progress_message, last_heartbeat, reported, retry_count"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id              int64
		videoURL        string
		subtitleURL     sql.NullString
		fingerprint     sql.NullString
		sheetRow        sql.NullInt64
		caption         sql.NullString
		localPath       sql.NullString
		publicURL       sql.NullString
		creationID      sql.NullString
		postID          sql.NullString
		statusStr       string
		errorMessage    sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		publishedRaw    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		heartbeatRaw    sql.NullString
		reported        sql.NullInt64
		retryCount      sql.NullInt64
	)

	if err := scanner.Scan(
		&id,
		&videoURL,
		&subtitleURL,
		&fingerprint,
		&sheetRow,
		&caption,
		&localPath,
		&publicURL,
		&creationID,
		&postID,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&publishedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&heartbeatRaw,
		&reported,
		&retryCount,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:               id,
		VideoURL:         videoURL,
		SubtitleURL:      subtitleURL.String,
		SheetFingerprint: fingerprint.String,
		SheetRow:         sheetRow.Int64,
		Caption:          caption.String,
		LocalPath:        localPath.String,
		PublicURL:        publicURL.String,
		CreationID:       creationID.String,
		PostID:           postID.String,
		Status:           Status(statusStr),
		ErrorMessage:     errorMessage.String,
		ProgressStage:    progressStage.String,
		ProgressPercent:  progressPercent.Float64,
		ProgressMessage:  progressMessage.String,
	}
	if reported.Valid {
		item.Reported = reported.Int64 != 0
	}
	item.RetryCount = int(retryCount.Int64)

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if publishedRaw.Valid {
		if published, err := parseTimeString(publishedRaw.String); err == nil {
			item.PublishedAt = &published
		}
	}
	if heartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(heartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
