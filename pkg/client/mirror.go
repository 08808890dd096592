package client

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// defaultMirrorTTL bounds how long a resolved artifact may be replayed
// without consulting the backend again
const defaultMirrorTTL = 30 * time.Minute

type mirrorEntry struct {
	ArtifactURL string
	CreatedAt   time.Time
}

// mirror remembers resolved artifacts for the duration of one browsing
// session. Reads sweep expired entries first, so a hit is always fresh.
// Callers are responsible for locking; Client serializes access.
type mirror struct {
	entries map[string]mirrorEntry
	ttl     time.Duration
	now     func() time.Time
}

func newMirror(ttl time.Duration) *mirror {
	if ttl <= 0 {
		ttl = defaultMirrorTTL
	}
	return &mirror{
		entries: make(map[string]mirrorEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *mirror) get(key string) (string, bool) {
	m.sweep()
	entry, ok := m.entries[key]
	if !ok {
		return "", false
	}
	return entry.ArtifactURL, true
}

func (m *mirror) put(key, artifactURL string) {
	m.entries[key] = mirrorEntry{ArtifactURL: artifactURL, CreatedAt: m.now()}
}

func (m *mirror) sweep() {
	cutoff := m.now().Add(-m.ttl)
	for key, entry := range m.entries {
		if entry.CreatedAt.Before(cutoff) {
			delete(m.entries, key)
		}
	}
}

func (m *mirror) reset() {
	m.entries = make(map[string]mirrorEntry)
}

// mirrorKey couples a subject to the acquisition context that shaped its
// artifact. Following a new campaign link mid-session changes the key, so
// stale personalization is never replayed.
func mirrorKey(subjectURL, kind string, visit VisitContext) string {
	fields := []string{
		subjectIdentity(subjectURL),
		kind,
		strings.ToLower(strings.TrimSpace(visit.UTMSource)),
		strings.ToLower(strings.TrimSpace(visit.UTMMedium)),
		strings.ToLower(strings.TrimSpace(visit.UTMCampaign)),
		strings.ToLower(strings.TrimSpace(visit.UTMContent)),
		strings.ToLower(strings.TrimSpace(visit.UTMTerm)),
	}
	return strings.Join(fields, "|")
}

// subjectIdentity reduces a subject URL to its path tail the same way the
// backend keys its cache, so CDN hosts and cache-busting query strings do
// not fragment the mirror
func subjectIdentity(subjectURL string) string {
	u, err := url.Parse(subjectURL)
	if err != nil || u.Path == "" {
		return strings.TrimSpace(subjectURL)
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return strings.TrimSpace(subjectURL)
	}
	return strings.ToLower(base)
}
