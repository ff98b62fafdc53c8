// Package fetch downloads RIR delegation files to the local data directory.
// Downloads retry transient failures with exponential backoff; a source that
// stays unreachable after the retry budget fails only that registry's unit of
// work, never the whole run.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cavaliergopher/grab/v3"

	"ririnfo/config"
	"ririnfo/internal/backoff"
	"ririnfo/registry"
)

// ErrSourceUnreachable marks a delegation file that could not be retrieved
// within the retry budget.
var ErrSourceUnreachable = errors.New("fetch: source unreachable")

// progressInterval is how often the progress callback fires during a
// download.
const progressInterval = 250 * time.Millisecond

// Fetcher downloads delegation files. Progress, when set, receives byte
// counts during transfers (total is zero until the server reports a size).
type Fetcher struct {
	Progress func(done, total int64)

	client      *grab.Client
	dataDir     string
	timeout     time.Duration
	attempts    int
	backoffBase time.Duration
	backoffMax  time.Duration
}

// New builds a Fetcher from the fetch configuration.
func New(cfg config.FetchConfig) *Fetcher {
	client := grab.NewClient()
	client.UserAgent = cfg.UserAgent
	return &Fetcher{
		client:      client,
		dataDir:     cfg.DataDir,
		timeout:     cfg.Timeout(),
		attempts:    cfg.Attempts,
		backoffBase: cfg.BackoffBase(),
		backoffMax:  cfg.BackoffMax(),
	}
}

// FetchDelegation retrieves the delegation file for one catalog source and
// returns the local path. Transient failures are retried with exponential
// backoff; exhausting the budget returns an error wrapping
// ErrSourceUnreachable. Cancellation of ctx stops retries immediately.
func (f *Fetcher) FetchDelegation(ctx context.Context, src registry.Source) (string, error) {
	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("fetch: create data directory: %w", err)
	}
	dest := filepath.Join(f.dataDir, fmt.Sprintf("delegated-%s-extended-latest", src.Registry))

	bo := backoff.New(f.backoffBase, f.backoffMax)
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		path, err := f.download(ctx, src.DelegationURL, dest)
		if err == nil {
			return path, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		log.Printf("Warning: %s delegation fetch attempt %d/%d failed: %v",
			src.Registry, attempt, f.attempts, err)
		if attempt < f.attempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(bo.Next()):
			}
		}
	}
	return "", fmt.Errorf("%w: %s after %d attempts: %v",
		ErrSourceUnreachable, src.Registry, f.attempts, lastErr)
}

func (f *Fetcher) download(ctx context.Context, url, dest string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := grab.NewRequest(dest, url)
	if err != nil {
		return "", fmt.Errorf("fetch: build request: %w", err)
	}
	req = req.WithContext(attemptCtx)

	resp := f.client.Do(req)
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if f.Progress != nil {
				f.Progress(resp.BytesComplete(), resp.Size())
			}
		case <-resp.Done:
			if err := resp.Err(); err != nil {
				return "", fmt.Errorf("fetch: download %s: %w", url, err)
			}
			if f.Progress != nil {
				f.Progress(resp.BytesComplete(), resp.Size())
			}
			return resp.Filename, nil
		}
	}
}
