package scoring

import (
	"strings"

	"github.com/sells-group/curate-cli/internal/model"
	"github.com/sells-group/curate-cli/internal/profile"
)

// Exclusion reason codes.
const (
	ReasonPersonalDomain  = "personal_domain"
	ReasonHRPrefix        = "hr_prefix"
	ReasonServicePrefix   = "service_prefix"
	ReasonFinancialPrefix = "financial_prefix"
	ReasonIndustryKeyword = "industry_keyword"
	ReasonExcludedCountry = "excluded_country"
	ReasonExcludedCity    = "excluded_city"
	ReasonNonLatin        = "non_latin"
	ReasonHashLocal       = "hash_local"
	ReasonScoringError    = "scoring_error"
)

// HardExclude runs the stage-1 deterministic veto. It returns every
// independent match reason; one reason is a warning, two or more are
// critical. Excluded records never reach the relevance detector.
func HardExclude(r *model.Record, p *profile.MarketProfile) (reasons []string, severity model.ExclusionSeverity) {
	local := r.Address.Local
	domain := r.Address.Domain
	text := Fold(r.Org + " " + r.Description + " " + r.Keywords)

	for _, d := range p.Exclusions.PersonalDomains {
		if strings.EqualFold(domain, d) {
			reasons = append(reasons, ReasonPersonalDomain)
			break
		}
	}

	if matchPrefix(local, p.Exclusions.HRPrefixes) {
		reasons = append(reasons, ReasonHRPrefix)
	}
	if matchPrefix(local, p.Exclusions.ServicePrefixes) {
		reasons = append(reasons, ReasonServicePrefix)
	}
	if matchPrefix(local, p.Exclusions.FinancialPrefixes) {
		reasons = append(reasons, ReasonFinancialPrefix)
	}

	// Excluded-industry keywords, any configured language.
	industryMatch := false
	for _, kws := range p.Exclusions.IndustryKeywords {
		for _, kw := range kws {
			if containsFolded(text, kw) {
				industryMatch = true
				break
			}
		}
		if industryMatch {
			break
		}
	}
	if industryMatch {
		reasons = append(reasons, ReasonIndustryKeyword)
	}

	for _, tld := range p.Exclusions.Countries {
		if strings.HasSuffix(domain, "."+strings.ToLower(strings.TrimPrefix(tld, "."))) {
			reasons = append(reasons, ReasonExcludedCountry)
			break
		}
	}

	cityText := Fold(r.City + " " + r.Org + " " + r.Description)
	for _, city := range p.Exclusions.Cities {
		if containsFolded(cityText, city) {
			reasons = append(reasons, ReasonExcludedCity)
			break
		}
	}

	if hasNonLatinPayload(r.Org + r.Description + r.Keywords) {
		reasons = append(reasons, ReasonNonLatin)
	}
	if isHashLikeLocal(local) {
		reasons = append(reasons, ReasonHashLocal)
	}

	switch {
	case len(reasons) >= 2:
		severity = model.SeverityCritical
	case len(reasons) == 1:
		severity = model.SeverityWarning
	}
	return reasons, severity
}

// matchPrefix reports whether the local-part starts with any of the given
// prefixes at a boundary, so "hr" matches "hr" and "hr.berlin" but not
// "hradmin".
func matchPrefix(local string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.ToLower(p)
		if p == "" || !strings.HasPrefix(local, p) {
			continue
		}
		if len(local) == len(p) {
			return true
		}
		next := local[len(p)]
		if next == '.' || next == '-' || next == '_' || next == '+' || (next >= '0' && next <= '9') {
			return true
		}
	}
	return false
}
