package model

// PriorityTier is the coarse bucket a record lands in after weighted scoring.
type PriorityTier string

const (
	PriorityHigh    PriorityTier = "high"
	PriorityMedium  PriorityTier = "medium"
	PriorityLow     PriorityTier = "low"
	PriorityExclude PriorityTier = "exclude"
)

// TargetCategory classifies market fit independently of the priority tier.
type TargetCategory string

const (
	TargetPrimary   TargetCategory = "primary_target"
	TargetSecondary TargetCategory = "secondary_target"
	TargetPotential TargetCategory = "potential"
	TargetExcluded  TargetCategory = "excluded"
)

// GeoTier is the geographic priority bucket assigned in stage 3.
type GeoTier string

const (
	GeoHigh   GeoTier = "high"
	GeoMedium GeoTier = "medium"
	GeoLow    GeoTier = "low"
)

// ExclusionSeverity grades how decisively a record was hard-excluded.
type ExclusionSeverity string

const (
	SeverityWarning  ExclusionSeverity = "warning"
	SeverityCritical ExclusionSeverity = "critical"
)

// ScoreResult is the ephemeral per-record output of the scoring engine.
type ScoreResult struct {
	AddressQuality float64 `json:"address_quality"`
	Relevance      float64 `json:"relevance"`
	Geographic     float64 `json:"geographic"`
	Engagement     float64 `json:"engagement"`

	Overall  int            `json:"overall"`
	Priority PriorityTier   `json:"priority"`
	Target   TargetCategory `json:"target"`
	GeoTier  GeoTier        `json:"geo_tier"`
	Language string         `json:"language,omitempty"`

	Excluded         bool              `json:"excluded"`
	ExclusionReasons []string          `json:"exclusion_reasons,omitempty"`
	Severity         ExclusionSeverity `json:"severity,omitempty"`
	Indicators       []string          `json:"indicators,omitempty"`
}
