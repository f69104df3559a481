// Package fetch resolves frame locators to decoded pixel data.
//
// Remote imaging servers are inconsistent about how rendered frames are
// requested: some honour an image Accept header, some only look at an
// accept query parameter, and some refuse instance-level rendered
// endpoints but serve the same pixels at the frame level. The resolver
// tries each request shape in order and memoizes whatever works.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"dicom-viewer/internal/series"

	_ "golang.org/x/image/tiff"
)

// DefaultAcceptType is the image media type requested from the server.
const DefaultAcceptType = "image/jpeg"

// Result holds a successfully fetched and decoded frame.
type Result struct {
	Locator     string
	Image       image.Image
	Bytes       []byte
	ContentType string
	Strategy    string // name of the strategy that succeeded
}

// Resolver fetches frames through an ordered strategy chain, coalescing
// concurrent requests for the same locator and caching every success for
// the lifetime of the session. The cache is never evicted; the datasets
// this viewer targets are small and bounded.
type Resolver struct {
	client      *http.Client
	timeout     time.Duration
	acceptType  string
	proxyPrefix string

	mu       sync.Mutex
	cache    map[string]*Result
	inflight map[string]*call
}

// call is a pending resolve shared by coalesced callers.
type call struct {
	done chan struct{}
	res  *Result
	err  error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClient sets the HTTP client used for all requests.
func WithClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithAcceptType overrides the requested image media type.
func WithAcceptType(t string) Option {
	return func(r *Resolver) { r.acceptType = t }
}

// WithProxyPrefix routes every outgoing URL through a pass-through relay.
// The original URL is query-escaped and appended to the prefix. This is
// configuration applied uniformly before the strategy chain, not a
// strategy of its own.
func WithProxyPrefix(prefix string) Option {
	return func(r *Resolver) { r.proxyPrefix = prefix }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		client:     http.DefaultClient,
		timeout:    10 * time.Second,
		acceptType: DefaultAcceptType,
		cache:      make(map[string]*Result),
		inflight:   make(map[string]*call),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns decoded pixel data for the locator. Cached results are
// returned without network activity; a locator already being fetched
// joins the pending operation instead of issuing a duplicate request.
func (r *Resolver) Resolve(ctx context.Context, locator string) (*Result, error) {
	r.mu.Lock()
	if res, ok := r.cache[locator]; ok {
		r.mu.Unlock()
		return res, nil
	}
	if c, ok := r.inflight[locator]; ok {
		r.mu.Unlock()
		select {
		case <-c.done:
			return c.res, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	r.inflight[locator] = c
	r.mu.Unlock()

	c.res, c.err = r.runChain(ctx, locator)

	r.mu.Lock()
	if c.err == nil {
		r.cache[locator] = c.res
	}
	delete(r.inflight, locator)
	r.mu.Unlock()

	close(c.done)
	return c.res, c.err
}

// Cached reports whether a locator already has a cached result.
func (r *Resolver) Cached(locator string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cache[locator]
	return ok
}

// strategy is one request shape to try against the server.
type strategy struct {
	name    string
	locator string
	query   bool // encode the accept type as a query parameter
}

// strategies builds the ordered chain for a locator: accept header, then
// accept query parameter, then both again against the first-frame rewrite
// when the locator is instance-level rendered.
func (r *Resolver) strategies(locator string) []strategy {
	chain := []strategy{
		{name: "accept-header", locator: locator},
		{name: "accept-query", locator: locator, query: true},
	}
	if series.InstanceRendered(locator) {
		rewritten := series.RewriteToFirstFrame(locator)
		chain = append(chain,
			strategy{name: "frame-rewrite accept-header", locator: rewritten},
			strategy{name: "frame-rewrite accept-query", locator: rewritten, query: true},
		)
	}
	return chain
}

// runChain tries each strategy in order; first success wins.
func (r *Resolver) runChain(ctx context.Context, locator string) (*Result, error) {
	agg := &Error{Locator: locator}

	for _, s := range r.strategies(locator) {
		res, err := r.attempt(ctx, s)
		if err == nil {
			res.Locator = locator
			res.Strategy = s.name
			return res, nil
		}
		agg.Attempts = append(agg.Attempts, Attempt{Strategy: s.name, Reason: err.Error()})
		if ctx.Err() != nil {
			// The caller is gone; no point trying further shapes.
			return nil, agg
		}
	}
	return nil, agg
}

// attempt performs a single request with its own timeout and validates
// the response as an image.
func (r *Resolver) attempt(ctx context.Context, s strategy) (*Result, error) {
	target := s.locator
	if s.query {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target = target + sep + "accept=" + url.QueryEscape(r.acceptType)
	}
	if r.proxyPrefix != "" {
		target = r.proxyPrefix + url.QueryEscape(target)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if !s.query {
		req.Header.Set("Accept", r.acceptType)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	// Permissive on purpose: quirky servers declare odd subtypes, so only
	// a substring match on "image" is required before decoding.
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "image") {
		return nil, fmt.Errorf("content type %q is not an image", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &Result{Image: img, Bytes: data, ContentType: contentType}, nil
}
