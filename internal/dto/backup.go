package dto

import "time"

// BackupFile describes one stored snapshot.
type BackupFile struct {
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	Modified  time.Time `json:"modified"`
}

// BackupDownloadResponse carries a short-lived signed download token.
type BackupDownloadResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BackupTriggerResponse acknowledges a queued snapshot run.
type BackupTriggerResponse struct {
	Queued bool `json:"queued"`
}
