package fetch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testPNG returns the bytes of a small valid PNG.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func servePNG(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	w.Header().Set("Content-Type", "image/png")
	w.Write(testPNG(t))
}

func TestResolveAcceptHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept"), "image") {
			http.Error(w, "bad accept", http.StatusNotAcceptable)
			return
		}
		servePNG(t, w)
	}))
	defer srv.Close()

	r := NewResolver(WithClient(srv.Client()))
	res, err := r.Resolve(context.Background(), srv.URL+"/frames/1/rendered")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Strategy != "accept-header" {
		t.Errorf("strategy = %q, want accept-header", res.Strategy)
	}
	if res.Image == nil || res.Image.Bounds().Dx() != 4 {
		t.Error("decoded image missing or wrong size")
	}
}

// TestResolveQueryFallback verifies the chain advances to the accept
// query parameter when the header shape is refused.
func TestResolveQueryFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("accept") == "" {
			http.Error(w, "accept param required", http.StatusBadRequest)
			return
		}
		servePNG(t, w)
	}))
	defer srv.Close()

	r := NewResolver(WithClient(srv.Client()))
	res, err := r.Resolve(context.Background(), srv.URL+"/frames/1/rendered")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Strategy != "accept-query" {
		t.Errorf("strategy = %q, want accept-query", res.Strategy)
	}
}

// TestResolveFrameRewrite verifies instance-level rendered locators fall
// back to the first-frame endpoint.
func TestResolveFrameRewrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/frames/1/rendered") {
			http.Error(w, "instance rendered unsupported", http.StatusNotFound)
			return
		}
		servePNG(t, w)
	}))
	defer srv.Close()

	r := NewResolver(WithClient(srv.Client()))
	locator := srv.URL + "/instances/1.2.3/rendered"
	res, err := r.Resolve(context.Background(), locator)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Strategy != "frame-rewrite accept-header" {
		t.Errorf("strategy = %q, want frame-rewrite accept-header", res.Strategy)
	}
	if res.Locator != locator {
		t.Errorf("result locator = %q, want the original %q", res.Locator, locator)
	}
}

// TestResolveRejectsNonImage verifies a 200 with a non-image content type
// is a strategy failure, not a success.
func TestResolveRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "no"}`))
	}))
	defer srv.Close()

	r := NewResolver(WithClient(srv.Client()))
	_, err := r.Resolve(context.Background(), srv.URL+"/frames/1/rendered")
	if err == nil {
		t.Fatal("expected failure for non-image response")
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *fetch.Error", err)
	}
	if len(fe.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2 (no rewrite for frame locators)", len(fe.Attempts))
	}
}

// TestResolveAggregateError verifies every failed strategy is named in
// the final error.
func TestResolveAggregateError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	r := NewResolver(WithClient(srv.Client()))
	_, err := r.Resolve(context.Background(), srv.URL+"/instances/1.2.3/rendered")
	if err == nil {
		t.Fatal("expected failure")
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *fetch.Error", err)
	}
	wantStrategies := []string{
		"accept-header", "accept-query",
		"frame-rewrite accept-header", "frame-rewrite accept-query",
	}
	if len(fe.Attempts) != len(wantStrategies) {
		t.Fatalf("attempts = %d, want %d", len(fe.Attempts), len(wantStrategies))
	}
	for i, want := range wantStrategies {
		if fe.Attempts[i].Strategy != want {
			t.Errorf("attempt %d strategy = %q, want %q", i, fe.Attempts[i].Strategy, want)
		}
	}
	if !strings.Contains(fe.Error(), "frame unavailable") {
		t.Errorf("error message %q missing prefix", fe.Error())
	}
}

// TestResolveCache verifies a second resolve of the same locator hits the
// cache without network activity.
func TestResolveCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		servePNG(t, w)
	}))
	defer srv.Close()

	r := NewResolver(WithClient(srv.Client()))
	locator := srv.URL + "/frames/1/rendered"

	if _, err := r.Resolve(context.Background(), locator); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if !r.Cached(locator) {
		t.Error("locator should be cached after success")
	}
	if _, err := r.Resolve(context.Background(), locator); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

// TestResolveCoalescing verifies concurrent resolves of one locator share
// a single request chain.
func TestResolveCoalescing(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		servePNG(t, w)
	}))
	defer srv.Close()

	r := NewResolver(WithClient(srv.Client()), WithTimeout(5*time.Second))
	locator := srv.URL + "/frames/1/rendered"

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Resolve(context.Background(), locator)
		}(i)
	}

	// Let the goroutines pile onto the in-flight call before releasing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1 coalesced request", got)
	}
}

// TestResolveProxyPrefix verifies outgoing URLs are escaped and wrapped
// through the relay prefix.
func TestResolveProxyPrefix(t *testing.T) {
	target := "http://imaging.internal/frames/1/rendered"

	var gotTarget string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTarget = r.URL.Query().Get("target")
		servePNG(t, w)
	}))
	defer srv.Close()

	r := NewResolver(WithClient(srv.Client()), WithProxyPrefix(srv.URL+"/relay?target="))
	if _, err := r.Resolve(context.Background(), target); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gotTarget != target {
		t.Errorf("relay received %q, want %q", gotTarget, target)
	}
}

// TestResolveContextCancel verifies a canceled context stops the chain.
func TestResolveContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	r := NewResolver(WithClient(srv.Client()))
	_, err := r.Resolve(ctx, srv.URL+"/frames/1/rendered")
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
}

func TestQueryParameterEncoding(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("accept") == "" {
			http.Error(w, "no", http.StatusBadRequest)
			return
		}
		gotQuery = r.URL.Query()
		servePNG(t, w)
	}))
	defer srv.Close()

	r := NewResolver(WithClient(srv.Client()), WithAcceptType("image/png"))
	if _, err := r.Resolve(context.Background(), srv.URL+"/frames/1/rendered?foo=bar"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gotQuery.Get("foo") != "bar" {
		t.Error("existing query parameters must survive the accept append")
	}
	if gotQuery.Get("accept") != "image/png" {
		t.Errorf("accept = %q, want image/png", gotQuery.Get("accept"))
	}
}
