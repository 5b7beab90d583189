package model

import "time"

// RuleDocumentVersion is the only rule document version this build reads and writes.
const RuleDocumentVersion = 1

// RuleDocument is the self-describing export, import and sync format.
// Identifiers, usage and timestamps are intentionally absent: an importing
// store assigns fresh IDs and zeroed usage.
type RuleDocument struct {
	ExportedAt time.Time   `json:"exportedAt"`
	Rules      []RuleInput `json:"rules"`
	Version    int         `json:"version"`
}
