// Package queue persists publishing tasks in SQLite and tracks their
// lifecycle from ingestion through captioning, download, upload, and
// Instagram publication.
package queue
