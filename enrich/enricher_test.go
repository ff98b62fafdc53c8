package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"ririnfo/config"
	"ririnfo/delegation"
	"ririnfo/registry"
	"ririnfo/stats"
)

// rewriteTransport redirects every request to the test server regardless of
// the catalog's real host.
type rewriteTransport struct {
	host string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u := *req.URL
	u.Scheme = "http"
	u.Host = rt.host
	clone := req.Clone(req.Context())
	clone.URL = &u
	return http.DefaultTransport.RoundTrip(clone)
}

func testEnricher(t *testing.T, server *httptest.Server, tracker *stats.Tracker) *Enricher {
	t.Helper()
	e := New(config.Default().Enrich, tracker)
	e.attempts = 3
	e.backoffBase = time.Millisecond
	e.backoffMax = 2 * time.Millisecond
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	e.client = &http.Client{Transport: rewriteTransport{host: u.Host}, Timeout: 5 * time.Second}
	return e
}

func ripeRecord() delegation.Record {
	return delegation.Record{
		Registry:    registry.RIPE,
		CountryCode: "IR",
		IPVersion:   4,
		Start:       "5.160.0.0",
		Value:       1048576,
		Status:      delegation.StatusAllocated,
		OpaqueID:    "abc-123",
	}
}

const ripeStatBody = `{
	"status": "ok",
	"status_code": 200,
	"data": {
		"records": [[
			{"key": "inetnum", "value": "5.160.0.0 - 5.175.255.255"},
			{"key": "netname", "value": "EXAMPLE-NET"},
			{"key": "descr", "value": "Example Telecom"}
		]]
	}
}`

func TestLookupParsesRIPEStatResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("resource"); got != "5.160.0.0/12" {
			t.Errorf("expected prefix resource, got %q", got)
		}
		w.Write([]byte(ripeStatBody))
	}))
	defer server.Close()

	e := testEnricher(t, server, nil)
	org, err := e.Lookup(context.Background(), ripeRecord())
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if org.Name != "EXAMPLE-NET" || org.Address != "Example Telecom" {
		t.Fatalf("unexpected org: %+v", org)
	}
	if org.OpaqueID != "abc-123" {
		t.Fatalf("expected opaque id carried over, got %q", org.OpaqueID)
	}
}

func TestLookupParsesWhoisText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# ARIN WHOIS data\nOrgName: Example Org LLC\nAddress: 100 Main St\nCity: Anytown\n"))
	}))
	defer server.Close()

	rec := delegation.Record{
		Registry: registry.ARIN, CountryCode: "US", IPVersion: 4,
		Start: "8.0.0.0", Value: 256, Status: delegation.StatusAssigned,
		OpaqueID: "EXAMPLE-1",
	}
	e := testEnricher(t, server, nil)
	org, err := e.Lookup(context.Background(), rec)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if org.Name != "Example Org LLC" {
		t.Fatalf("unexpected name: %q", org.Name)
	}
	if org.Address != "100 Main St, Anytown" {
		t.Fatalf("unexpected address: %q", org.Address)
	}
}

func TestLookupRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(ripeStatBody))
	}))
	defer server.Close()

	e := testEnricher(t, server, nil)
	org, err := e.Lookup(context.Background(), ripeRecord())
	if err != nil {
		t.Fatalf("lookup should succeed on third attempt: %v", err)
	}
	if org.Name != "EXAMPLE-NET" {
		t.Fatalf("unexpected org: %+v", org)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 requests, got %d", calls.Load())
	}
}

func TestPersistentServerErrorEmitsRecordWithoutOrg(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tracker := stats.NewTracker()
	e := testEnricher(t, server, tracker)

	out := make(chan Outcome, 1)
	go e.Run(context.Background(), []delegation.Record{ripeRecord()}, out)

	var outcomes []Outcome
	for oc := range out {
		outcomes = append(outcomes, oc)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Org != nil {
		t.Fatalf("expected no org after retry exhaustion, got %+v", outcomes[0].Org)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected retry budget of 3 requests, got %d", calls.Load())
	}
	snap := tracker.Snapshot()
	if snap.EnrichFailure != 1 || snap.EnrichSuccess != 0 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	e := testEnricher(t, server, nil)
	if _, err := e.Lookup(context.Background(), ripeRecord()); err == nil {
		t.Fatalf("expected lookup failure")
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, got %d requests", calls.Load())
	}
}

func TestCacheAvoidsDuplicateLookups(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(ripeStatBody))
	}))
	defer server.Close()

	tracker := stats.NewTracker()
	e := testEnricher(t, server, tracker)
	// One worker so the repeated lookups hit the cache instead of racing.
	e.workers = 1

	recs := []delegation.Record{ripeRecord(), ripeRecord(), ripeRecord()}
	out := make(chan Outcome, len(recs))
	go e.Run(context.Background(), recs, out)
	var received int
	for oc := range out {
		received++
		if oc.Org == nil || oc.Org.Name != "EXAMPLE-NET" {
			t.Fatalf("unexpected outcome: %+v", oc)
		}
	}
	if received != len(recs) {
		t.Fatalf("expected %d outcomes, got %d", len(recs), received)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single round trip for a shared resource, got %d", calls.Load())
	}
	snap := tracker.Snapshot()
	if snap.EnrichAttempts() != uint64(len(recs)) {
		t.Fatalf("successes+failures must equal attempts: %+v", snap)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ripeStatBody))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := testEnricher(t, server, nil)
	out := make(chan Outcome, 4)
	go e.Run(ctx, []delegation.Record{ripeRecord(), ripeRecord()}, out)

	count := 0
	for range out {
		count++
	}
	if count != 0 {
		t.Fatalf("canceled run must not report outcomes, got %d", count)
	}
}

func TestLookupWithoutResourceFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	}))
	defer server.Close()

	rec := delegation.Record{
		Registry: registry.ARIN, CountryCode: "US", IPVersion: 4,
		Start: "8.0.0.0", Value: 256, Status: delegation.StatusAssigned,
	}
	e := testEnricher(t, server, nil)
	if _, err := e.Lookup(context.Background(), rec); err == nil {
		t.Fatalf("expected failure for record without opaque id")
	}
}
