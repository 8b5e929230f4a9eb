// Package policy holds the allow/deny lists and the per-record
// classification gate.
package policy

import (
	"bufio"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Store is the file-backed deny list: blocked addresses and blocked domains.
// Both files are line-delimited, lower-cased and deduplicated. Membership
// tests are O(1); writes append, never truncate. All mutation is serialized.
type Store struct {
	mu sync.Mutex

	addrPath   string
	domainPath string

	addresses map[string]struct{}
	domains   map[string]struct{}
}

// Open loads the deny lists from the given files. Missing files are treated
// as empty lists and created on first append.
func Open(addrPath, domainPath string) (*Store, error) {
	s := &Store{
		addrPath:   addrPath,
		domainPath: domainPath,
		addresses:  make(map[string]struct{}),
		domains:    make(map[string]struct{}),
	}

	if err := loadSet(addrPath, s.addresses); err != nil {
		return nil, eris.Wrap(err, "policy: load blocked addresses")
	}
	if err := loadSet(domainPath, s.domains); err != nil {
		return nil, eris.Wrap(err, "policy: load blocked domains")
	}

	zap.L().Debug("policy: store loaded",
		zap.Int("blocked_addresses", len(s.addresses)),
		zap.Int("blocked_domains", len(s.domains)),
	)
	return s, nil
}

// NewMemory returns an empty store with no backing files, for tests and
// one-off scoring runs.
func NewMemory() *Store {
	return &Store{
		addresses: make(map[string]struct{}),
		domains:   make(map[string]struct{}),
	}
}

func loadSet(path string, dst map[string]struct{}) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dst[line] = struct{}{}
	}
	return eris.Wrapf(sc.Err(), "scan %s", path)
}

// BlockedAddress reports whether the full address is deny-listed.
func (s *Store) BlockedAddress(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.addresses[strings.ToLower(addr)]
	return ok
}

// BlockedDomain reports whether the domain is deny-listed.
func (s *Store) BlockedDomain(domain string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.domains[strings.ToLower(domain)]
	return ok
}

// AppendAddresses adds the given addresses to the blocked-address list,
// skipping entries already present, and appends only the new ones to the
// backing file. Returns the number actually added.
func (s *Store) AppendAddresses(addrs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntries(s.addrPath, s.addresses, addrs)
}

// AppendDomains adds the given domains to the blocked-domain list.
func (s *Store) AppendDomains(domains []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntries(s.domainPath, s.domains, domains)
}

func appendEntries(path string, set map[string]struct{}, entries []string) (int, error) {
	var fresh []string
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := set[e]; ok {
			continue
		}
		set[e] = struct{}{}
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	sort.Strings(fresh)

	if path == "" {
		return len(fresh), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, eris.Wrapf(err, "policy: open %s for append", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range fresh {
		if _, err := w.WriteString(e + "\n"); err != nil {
			return 0, eris.Wrapf(err, "policy: append to %s", path)
		}
	}
	if err := w.Flush(); err != nil {
		return 0, eris.Wrapf(err, "policy: flush %s", path)
	}
	return len(fresh), nil
}

// Addresses returns the blocked-address list, sorted.
func (s *Store) Addresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.addresses)
}

// Domains returns the blocked-domain list, sorted.
func (s *Store) Domains() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.domains)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
