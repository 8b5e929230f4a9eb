package scoring

import (
	"net/url"
	"sort"
	"strings"

	"github.com/sells-group/curate-cli/internal/model"
	"github.com/sells-group/curate-cli/internal/profile"
)

// maxIndicators caps the matched-indicator list reported for diagnostics.
const maxIndicators = 10

// Per-class base weights. Specificity (keyword length) adds on top, so a
// long, specific term always outscores a short generic one in its class.
const (
	weightPrimary     = 12
	weightOEM         = 10
	weightSecondary   = 8
	weightApplication = 6
	penaltyNegative   = 25
	weightDomainMatch = 10
)

// RelevanceResult is the stage-2 output: a bounded additive confidence (not
// a probability), the dominant language and the matched indicators.
type RelevanceResult struct {
	Confidence  float64
	Language    string
	Indicators  []string
	OEMMatch    bool
	DomainScore float64
}

// DetectRelevance scans organization name, description and keywords against
// the profile's positive keyword classes and negative set, and scores the
// address domain plus any known web domain against the domain patterns.
func DetectRelevance(r *model.Record, p *profile.MarketProfile) RelevanceResult {
	text := Fold(r.Org + " " + r.Description + " " + r.Keywords)

	var res RelevanceResult
	var matched []string

	scan := func(keywords []string, base float64, oem bool) {
		for _, kw := range keywords {
			if !containsFolded(text, kw) {
				continue
			}
			res.Confidence += base + specificityBonus(kw)
			matched = append(matched, kw)
			if oem {
				res.OEMMatch = true
			}
		}
	}
	scan(p.Keywords.Primary, weightPrimary, false)
	scan(p.Keywords.Secondary, weightSecondary, false)
	scan(p.Keywords.OEM, weightOEM, true)
	scan(p.Keywords.Application, weightApplication, false)

	for _, kw := range p.Keywords.Negative {
		if containsFolded(text, kw) {
			res.Confidence -= penaltyNegative
			matched = append(matched, "-"+kw)
		}
	}

	res.DomainScore = scoreDomains(r, p)
	res.Confidence += res.DomainScore

	res.Language = DetectLanguage(r.Org + " " + r.Description + " " + r.Keywords)
	res.Indicators = capIndicators(matched)
	return res
}

// specificityBonus rewards longer, more specific terms.
func specificityBonus(kw string) float64 {
	switch n := len(kw); {
	case n >= 14:
		return 6
	case n >= 9:
		return 4
	case n >= 5:
		return 2
	default:
		return 0
	}
}

// scoreDomains checks the address domain and the source URL host against
// the profile's relevant-domain patterns.
func scoreDomains(r *model.Record, p *profile.MarketProfile) float64 {
	hosts := []string{r.Address.Domain}
	if h := hostOf(r.SourceURL); h != "" && h != r.Address.Domain {
		hosts = append(hosts, h)
	}

	var score float64
	for _, host := range hosts {
		for _, pat := range p.Domains.Relevant {
			if strings.Contains(host, strings.ToLower(pat)) {
				score += weightDomainMatch
				break
			}
		}
	}
	return score
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Host, "www."))
}

// capIndicators keeps the top-N most specific indicators, longest first.
// Sorting is stable on length then lexicographic, so output is
// deterministic for a fixed input.
func capIndicators(matched []string) []string {
	if len(matched) == 0 {
		return nil
	}
	sort.Slice(matched, func(i, j int) bool {
		if len(matched[i]) != len(matched[j]) {
			return len(matched[i]) > len(matched[j])
		}
		return matched[i] < matched[j]
	})
	if len(matched) > maxIndicators {
		matched = matched[:maxIndicators]
	}
	return matched
}
