// Package client is a session-scoped Go client for the storefront
// personalization API. It stands in for the browser collector: it keeps a
// per-session mirror of resolved artifacts, consults it before issuing any
// network call, and drives whole-page personalization with the same
// filter-then-generate sequencing the storefront snippet uses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// defaultRequestTimeout is the transport ceiling; image generation can
	// legitimately take minutes
	defaultRequestTimeout = 150 * time.Second

	// defaultPersonalizeWait bounds how long a page load waits for the
	// config before rendering unpersonalized
	defaultPersonalizeWait = 10 * time.Second

	// defaultGenerateBatch is how many image generations one page issues
	// concurrently
	defaultGenerateBatch = 4

	sessionHeader = "X-Session-ID"
)

// ErrMissingSubjectURL is returned when no subject URL is provided.
var ErrMissingSubjectURL = errors.New("client: missing subject URL")

// VisitContext carries the acquisition signals observed for the current
// page view. Empty fields are simply omitted from requests.
type VisitContext struct {
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMContent  string
	UTMTerm     string
	Referrer    string
	ClientTime  string
	Timezone    string
	Latitude    *float64
	Longitude   *float64
}

// Subject identifies one page element whose imagery should be regenerated.
type Subject struct {
	URL    string
	Kind   string // product, banner, collection or textBlock
	Handle string // catalog handle when the subject is a product card
	Meta   SubjectMeta
}

// SubjectMeta is optional caller-supplied detail about the subject.
type SubjectMeta struct {
	ProductName     string
	ProductCategory string
	CollectionTitle string
	CollectionDesc  string
	CollectionItems []string
	TextContent     string
}

// CatalogItem is one entry of the storefront catalog snapshot.
type CatalogItem struct {
	Handle string
	Title  string
	Tags   []string
}

// Artifact is one resolved generation.
type Artifact struct {
	URL    string
	Cached bool // served from the backend generation cache

	// Immediate marks a session-mirror hit. The page must apply it without
	// a reveal transition: nothing changed, so replaying an entrance
	// animation would look broken.
	Immediate bool
}

// PageCopy is the content copy block of a page configuration.
type PageCopy struct {
	Headline     string
	Subheadline  string
	Announcement string
}

// PageConfig is the personalization decision for one page view.
type PageConfig struct {
	Intensity string // none, light or full
	Theme     string
	Copy      PageCopy
	TagBoosts []string
	Order     []string // surviving catalog handles, best match first
	Cached    bool
	Fallback  bool
}

// GenerateRequest asks for one artifact.
type GenerateRequest struct {
	Subject Subject
	Visit   VisitContext

	// Force bypasses both the session mirror and the backend cache read
	Force bool
}

// PersonalizeRequest asks for a page configuration.
type PersonalizeRequest struct {
	Visit   VisitContext
	Catalog []CatalogItem
}

// Client issues generation and personalization calls against the API.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	session string

	mu     sync.Mutex
	mirror *mirror

	mirrorTTL       time.Duration
	personalizeWait time.Duration
	generateBatch   int
}

// Option customises client behaviour.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithMirrorTTL overrides how long mirror entries live.
func WithMirrorTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.mirrorTTL = ttl
		}
	}
}

// WithPersonalizeWait overrides the hard bound on the personalize phase.
func WithPersonalizeWait(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.personalizeWait = d
		}
	}
}

// WithGenerateBatchSize overrides how many generations run per batch.
func WithGenerateBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.generateBatch = n
		}
	}
}

// NewClient constructs a client for one browsing session.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:            &http.Client{Timeout: defaultRequestTimeout},
		session:         uuid.NewString(),
		mirrorTTL:       defaultMirrorTTL,
		personalizeWait: defaultPersonalizeWait,
		generateBatch:   defaultGenerateBatch,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.mirror = newMirror(c.mirrorTTL)
	return c
}

// Session returns the browsing-session identifier requests carry.
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// ResetSession clears the mirror and issues a fresh session identifier,
// mimicking the end of one browsing session.
func (c *Client) ResetSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = uuid.NewString()
	c.mirror.reset()
}

// GenerateArtifact resolves one subject to an artifact URL. The session
// mirror is consulted first: a hit answers without any network call.
func (c *Client) GenerateArtifact(ctx context.Context, req GenerateRequest) (*Artifact, error) {
	if strings.TrimSpace(req.Subject.URL) == "" {
		return nil, ErrMissingSubjectURL
	}

	key := mirrorKey(req.Subject.URL, req.Subject.Kind, req.Visit)
	if !req.Force {
		c.mu.Lock()
		artifactURL, ok := c.mirror.get(key)
		c.mu.Unlock()
		if ok {
			return &Artifact{URL: artifactURL, Cached: true, Immediate: true}, nil
		}
	}

	payload := generatePayload{
		SubjectURL:      req.Subject.URL,
		SubjectKind:     req.Subject.Kind,
		Subject:         toMetaPayload(req.Subject.Meta),
		UTMSource:       req.Visit.UTMSource,
		UTMMedium:       req.Visit.UTMMedium,
		UTMCampaign:     req.Visit.UTMCampaign,
		UTMContent:      req.Visit.UTMContent,
		UTMTerm:         req.Visit.UTMTerm,
		Referrer:        req.Visit.Referrer,
		ClientTime:      req.Visit.ClientTime,
		Timezone:        req.Visit.Timezone,
		Latitude:        req.Visit.Latitude,
		Longitude:       req.Visit.Longitude,
		ForceRegenerate: req.Force,
	}

	var resp generateResponsePayload
	if err := c.postJSON(ctx, "api/v1/artifacts/generate", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.ArtifactURL == "" {
		return nil, fmt.Errorf("client: generate failed: %s", resp.Error)
	}

	c.mu.Lock()
	c.mirror.put(key, resp.ArtifactURL)
	c.mu.Unlock()

	return &Artifact{URL: resp.ArtifactURL, Cached: resp.Cached}, nil
}

// Personalize fetches the page configuration, bounded by the personalize
// wait. Callers that cannot tolerate failure should fall back to rendering
// unpersonalized; PersonalizePage does exactly that.
func (c *Client) Personalize(ctx context.Context, req PersonalizeRequest) (*PageConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, c.personalizeWait)
	defer cancel()

	payload := personalizePayload{
		UTMSource:   req.Visit.UTMSource,
		UTMMedium:   req.Visit.UTMMedium,
		UTMCampaign: req.Visit.UTMCampaign,
		UTMContent:  req.Visit.UTMContent,
		UTMTerm:     req.Visit.UTMTerm,
		Referrer:    req.Visit.Referrer,
		ClientTime:  req.Visit.ClientTime,
		Timezone:    req.Visit.Timezone,
		Catalog:     toCatalogPayload(req.Catalog),
	}

	var resp personalizeResponsePayload
	if err := c.postJSON(ctx, "api/v1/personalize", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Config == nil {
		return nil, errors.New("client: personalize returned no config")
	}

	return &PageConfig{
		Intensity: resp.Config.Intensity,
		Theme:     resp.Config.Theme,
		Copy: PageCopy{
			Headline:     resp.Config.Copy.Headline,
			Subheadline:  resp.Config.Copy.Subheadline,
			Announcement: resp.Config.Copy.Announcement,
		},
		TagBoosts: resp.Config.TagBoosts,
		Order:     resp.Order,
		Cached:    resp.Cached,
		Fallback:  resp.Fallback,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, apiPath string, body, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, apiPath)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(sessionHeader, c.Session())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("client: %s status %d: %s", apiPath, resp.StatusCode, drainError(resp.Body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}

type subjectMetaPayload struct {
	ProductName     string   `json:"productName,omitempty"`
	ProductCategory string   `json:"productCategory,omitempty"`
	CollectionTitle string   `json:"collectionTitle,omitempty"`
	CollectionDesc  string   `json:"collectionDescription,omitempty"`
	CollectionItems []string `json:"collectionItems,omitempty"`
	TextContent     string   `json:"textContent,omitempty"`
}

func toMetaPayload(meta SubjectMeta) subjectMetaPayload {
	return subjectMetaPayload{
		ProductName:     meta.ProductName,
		ProductCategory: meta.ProductCategory,
		CollectionTitle: meta.CollectionTitle,
		CollectionDesc:  meta.CollectionDesc,
		CollectionItems: meta.CollectionItems,
		TextContent:     meta.TextContent,
	}
}

type generatePayload struct {
	SubjectURL  string             `json:"subjectURL"`
	SubjectKind string             `json:"subjectKind,omitempty"`
	Subject     subjectMetaPayload `json:"subject,omitempty"`

	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	UTMContent  string `json:"utmContent,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty"`
	Referrer    string `json:"referrer,omitempty"`

	ClientTime string `json:"clientTime,omitempty"`
	Timezone   string `json:"timezone,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	ForceRegenerate bool `json:"forceRegenerate,omitempty"`
}

type generateResponsePayload struct {
	Success     bool   `json:"success"`
	ArtifactURL string `json:"artifactURL"`
	Cached      bool   `json:"cached"`
	Error       string `json:"error"`
}

type catalogItemPayload struct {
	Handle string   `json:"handle"`
	Title  string   `json:"title"`
	Tags   []string `json:"tags"`
}

func toCatalogPayload(items []CatalogItem) []catalogItemPayload {
	if len(items) == 0 {
		return nil
	}
	payload := make([]catalogItemPayload, len(items))
	for i, item := range items {
		payload[i] = catalogItemPayload{Handle: item.Handle, Title: item.Title, Tags: item.Tags}
	}
	return payload
}

type personalizePayload struct {
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	UTMContent  string `json:"utmContent,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty"`
	Referrer    string `json:"referrer,omitempty"`

	ClientTime string `json:"clientTime,omitempty"`
	Timezone   string `json:"timezone,omitempty"`

	Catalog []catalogItemPayload `json:"catalog,omitempty"`
}

type configPayload struct {
	Intensity string `json:"intensity"`
	Theme     string `json:"theme"`
	Copy      struct {
		Headline     string `json:"headline"`
		Subheadline  string `json:"subheadline"`
		Announcement string `json:"announcement"`
	} `json:"copy"`
	TagBoosts []string `json:"tagBoosts"`
}

type personalizeResponsePayload struct {
	Success  bool           `json:"success"`
	Cached   bool           `json:"cached"`
	Fallback bool           `json:"fallback"`
	Config   *configPayload `json:"config"`
	Order    []string       `json:"order"`
	Error    string         `json:"error"`
}
