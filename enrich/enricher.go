// Package enrich looks up organization metadata for delegation records. Each
// matched record costs one remote round trip, so lookups run on a bounded
// worker pool with per-call timeouts, retry transient failures with
// exponential backoff, and degrade to "no organization" on exhaustion —
// enrichment never aborts a batch.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"ririnfo/config"
	"ririnfo/delegation"
	"ririnfo/internal/backoff"
	"ririnfo/internal/ratelimit"
	"ririnfo/registry"
	"ririnfo/stats"
)

// OrganizationInfo is the holder metadata attached to a delegation record.
type OrganizationInfo struct {
	OpaqueID string
	Name     string
	Address  string
}

// Outcome reports one enrichment result back to the collector. Index refers
// to the record's position in the input slice; Org is nil when the lookup
// failed or was skipped.
type Outcome struct {
	Index int
	Org   *OrganizationInfo
}

// errNoResource means the record carries nothing usable as a lookup key.
var errNoResource = errors.New("enrich: record has no lookup resource")

// warnInterval throttles failure log lines; every failure is still counted.
const warnInterval = 5 * time.Second

// maxResponseBytes caps lookup response bodies. Whois and RIPEstat payloads
// are a few KB; anything larger is not a record we can use.
const maxResponseBytes = 1 << 20

// Enricher performs organization lookups with retries and an in-memory
// result cache. Many records share one organization, so the cache saves a
// round trip for every repeated lookup resource within a run.
type Enricher struct {
	client      *http.Client
	workers     int
	attempts    int
	backoffBase time.Duration
	backoffMax  time.Duration
	tracker     *stats.Tracker
	warn        *ratelimit.Counter

	mu    sync.Mutex
	cache map[uint64]*OrganizationInfo
}

// New builds an Enricher from the enrichment configuration. tracker may be
// nil when counters are not wanted (e.g. one-off lookups).
func New(cfg config.EnrichConfig, tracker *stats.Tracker) *Enricher {
	return &Enricher{
		client:      &http.Client{Timeout: cfg.Timeout()},
		workers:     cfg.Workers,
		attempts:    cfg.Attempts,
		backoffBase: cfg.BackoffBase(),
		backoffMax:  cfg.BackoffMax(),
		tracker:     tracker,
		warn:        ratelimit.NewCounter(warnInterval),
		cache:       make(map[uint64]*OrganizationInfo),
	}
}

// Run enriches every record on a bounded worker pool and sends one Outcome
// per completed record to out. It closes out when the batch is done or ctx
// is canceled; on cancellation no new requests are issued and remaining
// records go unreported (the caller discards partial results).
func (e *Enricher) Run(ctx context.Context, recs []delegation.Record, out chan<- Outcome) {
	defer close(out)
	if len(recs) == 0 {
		return
	}

	workers := e.workers
	if workers > len(recs) {
		workers = len(recs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				org := e.enrichOne(ctx, recs[idx])
				if ctx.Err() != nil {
					return
				}
				select {
				case out <- Outcome{Index: idx, Org: org}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for i := range recs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

// enrichOne wraps Lookup with counter updates and throttled failure logging.
func (e *Enricher) enrichOne(ctx context.Context, rec delegation.Record) *OrganizationInfo {
	org, err := e.Lookup(ctx, rec)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		if e.tracker != nil {
			e.tracker.IncrementEnrichFailure()
		}
		if total, ok := e.warn.Inc(); ok {
			log.Printf("Warning: organization lookup failed (%d so far): %s %s: %v",
				total, rec.Registry, rec.Start, err)
		}
		return nil
	}
	if e.tracker != nil {
		e.tracker.IncrementEnrichSuccess()
	}
	return org
}

// Lookup fetches organization metadata for one record using the registry's
// catalog strategy. Transient failures (timeouts, connection errors, 5xx)
// are retried up to the attempt budget; other failures, including responses
// that cannot be parsed, return immediately. The error is informational:
// callers emit the record without organization fields either way.
func (e *Enricher) Lookup(ctx context.Context, rec delegation.Record) (*OrganizationInfo, error) {
	src, err := registry.Lookup(rec.Registry)
	if err != nil {
		return nil, err
	}

	resource, err := lookupResource(src, rec)
	if err != nil {
		return nil, err
	}

	key := xxh3.HashString(string(rec.Registry) + "|" + resource)
	if org, ok := e.cacheGet(key); ok {
		return org, nil
	}

	url := src.OrgURL(resource)
	bo := backoff.New(e.backoffBase, e.backoffMax)
	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, retriable, err := e.get(ctx, url)
		if err == nil {
			org, perr := parseResponse(src.OrgFormat, body, rec.OpaqueID)
			if perr != nil {
				return nil, perr
			}
			e.cachePut(key, org)
			return org, nil
		}
		lastErr = err
		if !retriable {
			return nil, err
		}
		if attempt < e.attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(bo.Next()):
			}
		}
	}
	return nil, fmt.Errorf("enrich: %d attempts exhausted: %w", e.attempts, lastErr)
}

// get performs one GET and classifies the failure: network errors and 5xx
// are retriable, everything else is final.
func (e *Enricher) get(ctx context.Context, url string) (body []byte, retriable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("enrich: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("enrich: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, true, fmt.Errorf("enrich: fetch failed: status %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("enrich: fetch failed: status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, fmt.Errorf("enrich: read body: %w", err)
	}
	return data, false, nil
}

// lookupResource picks the value substituted into the org URL template.
func lookupResource(src registry.Source, rec delegation.Record) (string, error) {
	switch src.OrgKey {
	case registry.KeyOpaqueID:
		if rec.OpaqueID == "" {
			return "", errNoResource
		}
		return rec.OpaqueID, nil
	default:
		prefixes := delegation.Prefixes(rec)
		if len(prefixes) == 0 {
			return "", errNoResource
		}
		return prefixes[0], nil
	}
}

func (e *Enricher) cacheGet(key uint64) (*OrganizationInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	org, ok := e.cache[key]
	return org, ok
}

func (e *Enricher) cachePut(key uint64, org *OrganizationInfo) {
	e.mu.Lock()
	e.cache[key] = org
	e.mu.Unlock()
}
