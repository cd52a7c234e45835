package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func testChecker(t *testing.T, body string) *Checker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewChecker(zerolog.Nop(), WithReleaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestCheckReportsNewerRelease(t *testing.T) {
	c := testChecker(t, `{"tag_name": "v1.2.0", "html_url": "https://example.com/v1.2.0"}`)

	rel, err := c.Check(context.Background(), "1.1.0")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !rel.Newer {
		t.Fatalf("expected 1.2.0 to be newer than 1.1.0")
	}
	if rel.Version != "1.2.0" {
		t.Fatalf("expected v prefix stripped, got %q", rel.Version)
	}
	if rel.URL != "https://example.com/v1.2.0" {
		t.Fatalf("unexpected release url %q", rel.URL)
	}
}

func TestCheckSameVersionIsNotNewer(t *testing.T) {
	c := testChecker(t, `{"tag_name": "v1.1.0", "html_url": ""}`)

	rel, err := c.Check(context.Background(), "1.1.0")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if rel.Newer {
		t.Fatalf("same version must not be reported as newer")
	}
}

func TestCheckOlderReleaseIsNotNewer(t *testing.T) {
	c := testChecker(t, `{"tag_name": "v0.9.0", "html_url": ""}`)

	rel, err := c.Check(context.Background(), "1.0.0")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if rel.Newer {
		t.Fatalf("older release must not be reported as newer")
	}
}

func TestCheckRejectsUnparsableVersions(t *testing.T) {
	c := testChecker(t, `{"tag_name": "not-a-version", "html_url": ""}`)
	if _, err := c.Check(context.Background(), "1.0.0"); err == nil {
		t.Fatalf("expected version parse error")
	}
}

func TestCheckSurfacesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewChecker(zerolog.Nop(), WithReleaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if _, err := c.Check(context.Background(), "1.0.0"); err == nil {
		t.Fatalf("expected error for bad status")
	}
}
