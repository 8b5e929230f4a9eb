package model

import "time"

// BatchStatus records whether a batch run completed.
type BatchStatus string

const (
	BatchStatusSuccess BatchStatus = "success"
	BatchStatusFailed  BatchStatus = "failed"
)

// BatchResult is the per-batch summary the pipeline hands to reporting.
type BatchResult struct {
	RunID             string           `json:"run_id"`
	Batch             string           `json:"batch"`
	Fingerprint       string           `json:"fingerprint"`
	Counts            map[Category]int `json:"counts"`
	DuplicatesRemoved int              `json:"duplicates_removed"`
	PrefixDupsRemoved int              `json:"prefix_dups_removed"`
	Rejected          int              `json:"rejected"`
	Artifacts         int              `json:"artifacts"`
	Enriched          bool             `json:"enriched"`
	Scored            int              `json:"scored"`
	Skipped           bool             `json:"skipped"`
	Success           bool             `json:"success"`
	Error             string           `json:"error,omitempty"`
	Elapsed           time.Duration    `json:"elapsed"`
	Timestamp         time.Time        `json:"timestamp"`
}

// BatchSummary is the address-free listing view of a stored outcome.
type BatchSummary struct {
	Batch       string      `json:"batch"`
	RunID       string      `json:"run_id"`
	Fingerprint string      `json:"fingerprint"`
	Status      BatchStatus `json:"status"`
	Addresses   int         `json:"addresses"`
	ProcessedAt time.Time   `json:"processed_at"`
}

// BatchOutcome is the persisted record of a processed batch: its content
// fingerprint plus the category assigned to every address in it.
type BatchOutcome struct {
	RunID       string              `json:"run_id"`
	Batch       string              `json:"batch"`
	Fingerprint string              `json:"fingerprint"`
	Status      BatchStatus         `json:"status"`
	Addresses   map[string]Category `json:"addresses"`
	ProcessedAt time.Time           `json:"processed_at"`
}
