package visitor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/brindlewood/storefront-api/internal/models"
)

// artifactKey is the canonical serialization for artifact fingerprints.
// Field order is fixed by the struct definition; changing it invalidates
// every cached artifact.
type artifactKey struct {
	Subject       string `json:"subject"`
	Kind          string `json:"kind"`
	TrafficSource string `json:"trafficSource"`
	TimeOfDay     string `json:"timeOfDay"`
	Season        string `json:"season"`
	Weather       string `json:"weather"`
	UTMCampaign   string `json:"utmCampaign"`
}

// campaignKey is the canonical serialization for personalization-config
// fingerprints. All five UTM fields participate so that distinct ad
// creatives resolve to distinct configs.
type campaignKey struct {
	UTMSource   string `json:"utmSource"`
	UTMMedium   string `json:"utmMedium"`
	UTMCampaign string `json:"utmCampaign"`
	UTMContent  string `json:"utmContent"`
	UTMTerm     string `json:"utmTerm"`
	Catalog     string `json:"catalog"`
}

// Fingerprint returns the deterministic cache key for one subject rendered
// under one acquisition context. Contexts that differ only in fields outside
// the key (utm_medium, temperature band, free-text term) share an artifact.
func Fingerprint(subjectIdentity string, kind models.SubjectKind, rc models.RequestContext) string {
	weather := ""
	if rc.Weather != nil {
		weather = string(rc.Weather.Condition)
	}

	key := artifactKey{
		Subject:       subjectIdentity,
		Kind:          string(kind),
		TrafficSource: string(rc.TrafficSource),
		TimeOfDay:     string(rc.TimeOfDay),
		Season:        string(rc.Season),
		Weather:       weather,
		UTMCampaign:   rc.UTMCampaign,
	}

	return "art:" + hashKey(key)
}

// CampaignFingerprint returns the cache key for a personalization config.
// catalogID scopes configs to one storefront catalog snapshot identity.
func CampaignFingerprint(rc models.RequestContext, catalogID string) string {
	key := campaignKey{
		UTMSource:   rc.UTMSource,
		UTMMedium:   rc.UTMMedium,
		UTMCampaign: rc.UTMCampaign,
		UTMContent:  rc.UTMContent,
		UTMTerm:     rc.UTMTerm,
		Catalog:     catalogID,
	}

	return "camp:" + hashKey(key)
}

func hashKey(key any) string {
	// encoding/json marshals struct fields in declaration order, which is
	// what makes the serialization stable.
	payload, _ := json.Marshal(key)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// SubjectIdentity reduces a subject URL to its path tail so that CDN hosts
// and cache-busting query strings do not fragment the key space. Unparsable
// input falls back to the raw string.
func SubjectIdentity(subjectURL string) string {
	u, err := url.Parse(subjectURL)
	if err != nil || u.Path == "" {
		return subjectURL
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return subjectURL
	}
	return strings.ToLower(base)
}
