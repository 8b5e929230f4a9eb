package scoring

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/curate-cli/internal/model"
	"github.com/sells-group/curate-cli/internal/profile"
)

// Geographic tier sub-scores.
const (
	geoScoreHigh   = 100
	geoScoreMedium = 60
	geoScoreLow    = 30
)

// detectRelevance is an indirection point so tests can assert the detector
// is never reached for hard-excluded records.
var detectRelevance = DetectRelevance

// Engine is the generic four-stage scoring engine. All market-specific
// behavior comes from the profile; the engine itself is stateless and
// deterministic for a fixed profile and record.
type Engine struct {
	profile *profile.MarketProfile
}

// NewEngine creates an Engine over a validated market profile.
func NewEngine(p *profile.MarketProfile) *Engine {
	return &Engine{profile: p}
}

// Profile returns the engine's market profile.
func (e *Engine) Profile() *profile.MarketProfile {
	return e.profile
}

// Score runs the full pipeline on one record: hard exclusion, relevance
// detection, geographic prioritization, weighted scoring, tiering. A panic
// while scoring a single record is caught and reported as a scoring_error
// exclusion so one bad record never aborts a batch.
func (e *Engine) Score(r *model.Record) (result *model.ScoreResult) {
	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("scoring: record panicked",
				zap.String("address", r.Address.String()),
				zap.Any("panic", p),
			)
			result = &model.ScoreResult{
				Excluded:         true,
				ExclusionReasons: []string{ReasonScoringError},
				Severity:         model.SeverityWarning,
				Priority:         model.PriorityExclude,
				Target:           model.TargetExcluded,
			}
		}
	}()

	// Stage 1: hard exclusion. Excluded records never reach the detector.
	if reasons, severity := HardExclude(r, e.profile); len(reasons) > 0 {
		return &model.ScoreResult{
			Excluded:         true,
			ExclusionReasons: reasons,
			Severity:         severity,
			Priority:         model.PriorityExclude,
			Target:           model.TargetExcluded,
		}
	}

	// Stage 2: relevance detection.
	rel := detectRelevance(r, e.profile)

	// Stage 3: geographic prioritization.
	geoTier := GeoPrioritize(r, e.profile)

	// Stage 4: weighted scoring.
	res := &model.ScoreResult{
		AddressQuality: e.addressQuality(r, rel.DomainScore),
		Relevance:      clamp(rel.Confidence, 0, 100),
		Geographic:     geoScore(geoTier),
		Engagement:     engagementScore(r),
		GeoTier:        geoTier,
		Language:       rel.Language,
		Indicators:     rel.Indicators,
	}

	w := e.profile.Weights
	overall := res.AddressQuality*w.AddressQuality +
		res.Relevance*w.Relevance +
		res.Geographic*w.Geographic +
		res.Engagement*w.Engagement

	if rel.OEMMatch {
		overall *= e.profile.Multipliers.OEM
	}
	if geoTier == model.GeoHigh {
		overall *= e.profile.Multipliers.GeoHigh
	}
	res.Overall = int(math.Round(clamp(overall, 0, 100)))

	res.Priority = e.priority(res.Overall)
	res.Target = e.target(res.Relevance, geoTier)
	return res
}

// addressQuality scores corporate vs free-mail domains, local-part
// structure, and adds the domain relevance bonus from stage 2.
func (e *Engine) addressQuality(r *model.Record, domainScore float64) float64 {
	score := 40.0

	if !e.isFreemail(r.Address.Domain) {
		score += 30
	} else {
		score -= 10
	}

	local := r.Address.Local
	switch {
	case isRoleLocal(local):
		score += 15
	case strings.Contains(local, "."):
		// first.last style: a named human contact.
		score += 10
	}
	if digitCount(local) > 3 {
		score -= 15
	}

	// Domain relevance bonus, capped so it stays a bonus.
	score += math.Min(domainScore, 15)

	return clamp(score, 0, 100)
}

func (e *Engine) isFreemail(domain string) bool {
	for _, d := range e.profile.Domains.Freemail {
		if strings.EqualFold(domain, d) {
			return true
		}
	}
	return false
}

// roleLocals are generic business mailbox names that indicate a reachable
// company contact rather than a random personal inbox.
var roleLocals = []string{"info", "sales", "contact", "office", "mail", "vertrieb", "kontakt"}

func isRoleLocal(local string) bool {
	for _, role := range roleLocals {
		if local == role || strings.HasPrefix(local, role+".") || strings.HasPrefix(local, role+"-") {
			return true
		}
	}
	return false
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func geoScore(tier model.GeoTier) float64 {
	switch tier {
	case model.GeoHigh:
		return geoScoreHigh
	case model.GeoMedium:
		return geoScoreMedium
	default:
		return geoScoreLow
	}
}

// engagementScore derives a fixed value from the record's originating
// context string (source URL path and batch name).
func engagementScore(r *model.Record) float64 {
	context := strings.ToLower(r.SourceURL + " " + r.Batch)
	switch {
	case strings.Contains(context, "product"):
		return 80
	case strings.Contains(context, "contact"):
		return 70
	case strings.Contains(context, "service"):
		return 60
	case strings.Contains(context, "about"):
		return 50
	default:
		return 40
	}
}

func (e *Engine) priority(overall int) model.PriorityTier {
	t := e.profile.Thresholds
	switch {
	case float64(overall) >= t.High:
		return model.PriorityHigh
	case float64(overall) >= t.Medium:
		return model.PriorityMedium
	case float64(overall) >= t.Low:
		return model.PriorityLow
	default:
		return model.PriorityExclude
	}
}

// target assigns the target category from the relevance sub-score and the
// geographic tier, independently of the final priority.
func (e *Engine) target(relevance float64, geoTier model.GeoTier) model.TargetCategory {
	c := e.profile.Categories
	switch {
	case relevance >= c.PrimaryMin && geoTier == model.GeoHigh:
		return model.TargetPrimary
	case relevance >= c.PrimaryMin:
		return model.TargetSecondary
	case relevance >= c.PotentialMin:
		return model.TargetPotential
	default:
		return model.TargetExcluded
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
