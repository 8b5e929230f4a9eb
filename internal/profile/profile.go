// Package profile defines the declarative market profile that parameterizes
// the scoring engine. One profile exists per target market+industry; it is
// read-only at run time.
package profile

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// MarketProfile declares everything market-specific: exclusion rules,
// keyword weight classes, geographic tiers, scoring weights and thresholds.
// Country-specific behavior is data here, never code.
type MarketProfile struct {
	Name     string `yaml:"name"`
	Market   string `yaml:"market"`
	Industry string `yaml:"industry"`

	Exclusions  ExclusionRules `yaml:"exclusions"`
	Keywords    KeywordSets    `yaml:"keywords"`
	Domains     DomainPatterns `yaml:"domains"`
	Geo         GeoTiers       `yaml:"geo"`
	Weights     Weights        `yaml:"weights"`
	Thresholds  Thresholds     `yaml:"thresholds"`
	Categories  CategoryRules  `yaml:"categories"`
	Multipliers Multipliers    `yaml:"multipliers"`
}

// ExclusionRules feed the hard-exclusion stage.
type ExclusionRules struct {
	PersonalDomains   []string            `yaml:"personal_domains"`
	HRPrefixes        []string            `yaml:"hr_prefixes"`
	ServicePrefixes   []string            `yaml:"service_prefixes"`
	FinancialPrefixes []string            `yaml:"financial_prefixes"`
	IndustryKeywords  map[string][]string `yaml:"industry_keywords"` // language -> keywords
	Countries         []string            `yaml:"countries"`         // country-code TLDs
	Cities            []string            `yaml:"cities"`
}

// KeywordSets are the positive relevance keywords partitioned by weight
// class, plus the negative set.
type KeywordSets struct {
	Primary     []string `yaml:"primary"`
	Secondary   []string `yaml:"secondary"`
	OEM         []string `yaml:"oem"`
	Application []string `yaml:"application"`
	Negative    []string `yaml:"negative"`
}

// DomainPatterns score the address domain and any known web domain.
type DomainPatterns struct {
	Relevant []string `yaml:"relevant"`
	Freemail []string `yaml:"freemail"`
}

// GeoTiers are the geographic priority keyword lists, matched in fixed
// precedence: High, then Medium or Region, else low.
type GeoTiers struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Region []string `yaml:"region"`
}

// Weights are the four scoring component weights. They must sum to 1.0.
type Weights struct {
	AddressQuality float64 `yaml:"address_quality"`
	Relevance      float64 `yaml:"relevance"`
	Geographic     float64 `yaml:"geographic"`
	Engagement     float64 `yaml:"engagement"`
}

// Thresholds are the ascending priority cut-offs.
type Thresholds struct {
	Low    float64 `yaml:"low"`
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
}

// CategoryRules derive the target category from the relevance sub-score.
type CategoryRules struct {
	PrimaryMin   float64 `yaml:"primary_min"`
	PotentialMin float64 `yaml:"potential_min"`
}

// Multipliers are the final-score bonuses.
type Multipliers struct {
	OEM     float64 `yaml:"oem"`
	GeoHigh float64 `yaml:"geo_high"`
}

// Load reads and validates a market profile from a YAML file.
func Load(path string) (*MarketProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "profile: read %s", path)
	}

	var p MarketProfile
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, eris.Wrapf(err, "profile: parse %s", path)
	}

	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, eris.Wrapf(err, "profile: validate %s", path)
	}
	return &p, nil
}

func (p *MarketProfile) applyDefaults() {
	if p.Multipliers.OEM == 0 {
		p.Multipliers.OEM = 1.15
	}
	if p.Multipliers.GeoHigh == 0 {
		p.Multipliers.GeoHigh = 1.1
	}
	if p.Categories.PrimaryMin == 0 {
		p.Categories.PrimaryMin = 60
	}
	if p.Categories.PotentialMin == 0 {
		p.Categories.PotentialMin = 25
	}
}

// Validate checks internal consistency: weights sum to 1.0 and thresholds
// ascend strictly. Called at load time so a bad profile never scores.
func (p *MarketProfile) Validate() error {
	var errs []string

	if p.Name == "" {
		errs = append(errs, "name is required")
	}

	for name, w := range map[string]float64{
		"address_quality": p.Weights.AddressQuality,
		"relevance":       p.Weights.Relevance,
		"geographic":      p.Weights.Geographic,
		"engagement":      p.Weights.Engagement,
	} {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("weight %s must be >= 0", name))
		}
	}

	sum := p.Weights.AddressQuality + p.Weights.Relevance + p.Weights.Geographic + p.Weights.Engagement
	if math.Abs(sum-1.0) > 0.001 {
		errs = append(errs, fmt.Sprintf("weights must sum to 1.0, got %.3f", sum))
	}

	if !(p.Thresholds.Low < p.Thresholds.Medium && p.Thresholds.Medium < p.Thresholds.High) {
		errs = append(errs, fmt.Sprintf("thresholds must ascend strictly: low=%.1f medium=%.1f high=%.1f",
			p.Thresholds.Low, p.Thresholds.Medium, p.Thresholds.High))
	}

	if len(p.Keywords.Primary) == 0 {
		errs = append(errs, "keywords.primary must not be empty")
	}

	if p.Categories.PotentialMin >= p.Categories.PrimaryMin {
		errs = append(errs, "categories.potential_min must be below categories.primary_min")
	}

	for name, m := range map[string]float64{"oem": p.Multipliers.OEM, "geo_high": p.Multipliers.GeoHigh} {
		if m < 1.0 {
			errs = append(errs, fmt.Sprintf("multiplier %s must be >= 1.0", name))
		}
	}

	if len(errs) > 0 {
		return eris.New(strings.Join(errs, "; "))
	}
	return nil
}
