// Package normalize validates and repairs raw address lines and resolves
// duplicates within a batch.
package normalize

import (
	"strings"

	"github.com/sells-group/curate-cli/internal/model"
)

// Disposition classifies the outcome of normalizing a single raw line.
type Disposition int

const (
	// DispositionOK means the line yielded a valid address.
	DispositionOK Disposition = iota
	// DispositionRejected means the line is malformed even after repair.
	DispositionRejected
	// DispositionArtifact means the line is a machine artifact (hash-shaped
	// local-part, telemetry domain). Artifacts are counted and silently
	// dropped, never surfaced as errors.
	DispositionArtifact
)

// Normalized is a successfully normalized address plus repair provenance.
type Normalized struct {
	Address model.Address
	// Repaired is true when an artifact prefix was stripped from the raw
	// line. Prefix-duplicate resolution keys off this flag.
	Repaired bool
}

// localForbidden are the characters never allowed in a local-part.
const localForbidden = "<>()[],;:\"\\ /"

// telemetryDomains are crash-reporting and telemetry providers whose
// addresses are machine artifacts, not human contacts.
var telemetryDomains = map[string]struct{}{
	"sentry.io":      {},
	"crashlytics.com": {},
	"bugsnag.com":    {},
	"rollbar.com":    {},
	"raygun.io":      {},
	"instabug.com":   {},
	"appcenter.ms":   {},
	"sentry-cdn.com": {},
}

// Normalize validates a raw line and returns the normalized address.
// Artifact repair runs unconditionally before the syntax check.
func Normalize(raw string) (Normalized, Disposition) {
	repaired, changed := repair(strings.TrimSpace(raw))

	local, domain, ok := split(repaired)
	if !ok || !validLocal(local) || !validDomain(domain) {
		return Normalized{}, DispositionRejected
	}

	local = strings.ToLower(local)
	domain = strings.ToLower(domain)

	if isArtifactLocal(local) || isTelemetryDomain(domain) {
		return Normalized{}, DispositionArtifact
	}

	return Normalized{
		Address:  model.Address{Local: local, Domain: domain},
		Repaired: changed,
	}, DispositionOK
}

// repair strips known scrape artifacts from a raw line: a leading "//", a
// leading "20" (when at least three characters remain), any run of leading
// '.', '-', '+' or '_', and trailing dots.
func repair(s string) (string, bool) {
	orig := s

	if strings.HasPrefix(s, "//") {
		s = s[2:]
	}
	if strings.HasPrefix(s, "20") && len(s) >= 5 {
		s = s[2:]
	}
	for len(s) > 0 && strings.ContainsRune(".-+_", rune(s[0])) {
		s = s[1:]
	}
	s = strings.TrimRight(s, ".")

	return s, s != orig
}

// split separates local-part and domain on exactly one '@'.
func split(s string) (local, domain string, ok bool) {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') || at == len(s)-1 {
		return "", "", false
	}
	return s[:at], s[at+1:], true
}

func validLocal(local string) bool {
	if len(local) < 1 || len(local) > 64 {
		return false
	}
	if strings.ContainsRune(".-+_", rune(local[0])) {
		return false
	}
	if local[len(local)-1] == '.' {
		return false
	}
	if strings.Contains(local, "..") {
		return false
	}
	for i := 0; i < len(local); i++ {
		c := local[i]
		if c <= ' ' || c >= 0x7f {
			return false
		}
		if strings.IndexByte(localForbidden, c) >= 0 {
			return false
		}
	}
	return true
}

func validDomain(domain string) bool {
	if domain == "" {
		return false
	}
	if domain[0] == '.' || domain[0] == '-' {
		return false
	}
	last := domain[len(domain)-1]
	if last == '.' || last == '-' {
		return false
	}
	dot := strings.LastIndexByte(domain, '.')
	if dot < 0 {
		return false
	}
	tld := domain[dot+1:]
	if len(tld) < 2 {
		return false
	}
	for i := 0; i < len(tld); i++ {
		c := tld[i]
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// isArtifactLocal reports whether a (lower-cased) local-part is a hash or
// UUID shaped token produced by machines rather than humans.
func isArtifactLocal(local string) bool {
	if isHex(local) && (len(local) == 32 || len(local) == 40 || len(local) > 20) {
		return true
	}
	return isUUID(local)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// isUUID matches the 8-4-4-4-12 grouping.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for _, idx := range []int{8, 13, 18, 23} {
		if s[idx] != '-' {
			return false
		}
	}
	for i := 0; i < len(s); i++ {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			continue
		}
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

func isTelemetryDomain(domain string) bool {
	if _, ok := telemetryDomains[domain]; ok {
		return true
	}
	for d := range telemetryDomains {
		if strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
