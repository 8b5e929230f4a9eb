package scoring

import "strings"

// stopwords are small per-language marker sets used to pick the dominant
// language of a record's free text. Detection is a heuristic for diagnostics
// and language-aware exclusion, not a full classifier.
var stopwords = map[string][]string{
	"en": {" the ", " and ", " with ", " for ", " of ", " we ", " our ", " is "},
	"de": {" und ", " der ", " die ", " das ", " mit ", " für ", " wir ", " ist ", " gmbh"},
	"fr": {" le ", " la ", " les ", " et ", " avec ", " pour ", " nous ", " est "},
	"es": {" el ", " los ", " con ", " para ", " nosotros ", " es ", " una "},
	"it": {" il ", " con ", " per ", " noi ", " una ", " della ", " srl"},
}

// DetectLanguage returns the dominant language code of the given text, or
// "" when no marker matches. Ties break alphabetically so detection is
// deterministic.
func DetectLanguage(text string) string {
	if text == "" {
		return ""
	}
	padded := " " + strings.ToLower(text) + " "

	best := ""
	bestHits := 0
	for _, lang := range []string{"de", "en", "es", "fr", "it"} {
		hits := 0
		for _, marker := range stopwords[lang] {
			hits += strings.Count(padded, marker)
		}
		if hits > bestHits {
			best = lang
			bestHits = hits
		}
	}
	return best
}
