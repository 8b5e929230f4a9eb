package scoring

import (
	"github.com/sells-group/curate-cli/internal/model"
	"github.com/sells-group/curate-cli/internal/profile"
)

// GeoPrioritize assigns the geographic tier from the combined record text
// in fixed precedence: a high-priority keyword wins outright, else any
// medium or regional keyword yields medium, else low. First match wins; the
// tiers never accumulate.
func GeoPrioritize(r *model.Record, p *profile.MarketProfile) model.GeoTier {
	text := Fold(r.Org + " " + r.Description + " " + r.City + " " + r.Country + " " +
		r.Address.Domain + " " + r.Address.Local)

	for _, kw := range p.Geo.High {
		if containsFolded(text, kw) {
			return model.GeoHigh
		}
	}
	for _, kw := range p.Geo.Medium {
		if containsFolded(text, kw) {
			return model.GeoMedium
		}
	}
	for _, kw := range p.Geo.Region {
		if containsFolded(text, kw) {
			return model.GeoMedium
		}
	}
	return model.GeoLow
}
