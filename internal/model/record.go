// Package model defines the core data types shared across the curation pipeline.
package model

import (
	"strings"
	"time"
)

// ValidationHint is an externally supplied reliability signal for an address.
type ValidationHint string

const (
	HintNone       ValidationHint = ""
	HintValid      ValidationHint = "valid"
	HintNotSure    ValidationHint = "not-sure"
	HintTemp       ValidationHint = "temp"
	HintNotChecked ValidationHint = "not-checked"
	HintInvalid    ValidationHint = "invalid"
)

// ParseHint maps a raw hint token onto the closed hint vocabulary.
// Unrecognized tokens are treated as no hint at all.
func ParseHint(s string) ValidationHint {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "valid", "ok":
		return HintValid
	case "not-sure", "not_sure", "notsure", "unsure":
		return HintNotSure
	case "temp", "temporary", "disposable":
		return HintTemp
	case "not-checked", "not_checked", "notchecked", "unchecked":
		return HintNotChecked
	case "invalid", "bad":
		return HintInvalid
	}
	return HintNone
}

// Category is the classification a record receives from the policy gate.
type Category string

const (
	CategoryClean            Category = "clean"
	CategoryBlockedByAddress Category = "blocked_by_address"
	CategoryBlockedByDomain  Category = "blocked_by_domain"
	CategoryInvalid          Category = "invalid"
)

// Categories lists all gate categories in report order.
var Categories = []Category{
	CategoryClean,
	CategoryBlockedByAddress,
	CategoryBlockedByDomain,
	CategoryInvalid,
}

// Address is a normalized electronic contact identifier. Local and Domain
// are stored lower-cased; the full form is Local + "@" + Domain.
type Address struct {
	Local  string `json:"local"`
	Domain string `json:"domain"`
}

// String returns the canonical local@domain form.
func (a Address) String() string {
	return a.Local + "@" + a.Domain
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Local == "" && a.Domain == ""
}

// Record is an address plus the optional attributes a rich source provides.
// Attributes are backfilled by enrichment but never overwritten once set.
type Record struct {
	Address     Address        `json:"address"`
	Org         string         `json:"org,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Country     string         `json:"country,omitempty"`
	City        string         `json:"city,omitempty"`
	Description string         `json:"description,omitempty"`
	Keywords    string         `json:"keywords,omitempty"`
	SourceURL   string         `json:"source_url,omitempty"`
	Hint        ValidationHint `json:"hint,omitempty"`
	Batch       string         `json:"batch,omitempty"`

	Category Category     `json:"category,omitempty"`
	Score    *ScoreResult `json:"score,omitempty"`
}

// HasMetadata reports whether the record carries any attribute beyond the
// bare address. Batches without metadata only produce plain address lists.
func (r *Record) HasMetadata() bool {
	return r.Org != "" || r.Phone != "" || r.Country != "" || r.City != "" ||
		r.Description != "" || r.Keywords != "" || r.SourceURL != ""
}

// EnrichmentRecord is the richest known attribute set for an address across
// all batches, with bookkeeping timestamps.
type EnrichmentRecord struct {
	Address     Address   `json:"address"`
	Org         string    `json:"org,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Country     string    `json:"country,omitempty"`
	City        string    `json:"city,omitempty"`
	Description string    `json:"description,omitempty"`
	Keywords    string    `json:"keywords,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	Batch       string    `json:"batch,omitempty"`
	FirstSeen   time.Time `json:"first_seen"`
	LastUpdated time.Time `json:"last_updated"`
}

// Merge applies the non-empty-wins policy: incoming values fill gaps only,
// a populated attribute is never downgraded to empty.
func (e *EnrichmentRecord) Merge(r *Record) {
	if e.Org == "" {
		e.Org = r.Org
	}
	if e.Phone == "" {
		e.Phone = r.Phone
	}
	if e.Country == "" {
		e.Country = r.Country
	}
	if e.City == "" {
		e.City = r.City
	}
	if e.Description == "" {
		e.Description = r.Description
	}
	if e.Keywords == "" {
		e.Keywords = r.Keywords
	}
	if e.SourceURL == "" {
		e.SourceURL = r.SourceURL
	}
	if e.Batch == "" {
		e.Batch = r.Batch
	}
}

// Backfill copies stored attributes into an in-flight record, filling only
// attributes the record does not already carry.
func (e *EnrichmentRecord) Backfill(r *Record) bool {
	filled := false
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			filled = true
		}
	}
	fill(&r.Org, e.Org)
	fill(&r.Phone, e.Phone)
	fill(&r.Country, e.Country)
	fill(&r.City, e.City)
	fill(&r.Description, e.Description)
	fill(&r.Keywords, e.Keywords)
	fill(&r.SourceURL, e.SourceURL)
	return filled
}
