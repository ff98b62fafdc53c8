// Program ririnfo fetches RIR delegation statistics, filters them by
// registry, country, delegation status, and IP version, optionally enriches
// each matched block with organization metadata, and writes the result to a
// text file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"ririnfo/aggregate"
	"ririnfo/config"
	"ririnfo/countries"
	"ririnfo/delegation"
	"ririnfo/enrich"
	"ririnfo/fetch"
	"ririnfo/filter"
	"ririnfo/registry"
	"ririnfo/stats"
)

func main() {
	rirFlag := flag.String("rir", "", "comma-separated registries: ripe,afrinic,apnic,lacnic,arin (required)")
	countryFlag := flag.String("country", "", "comma-separated ISO 3166-1 alpha-2 country codes (required)")
	versionFlag := flag.String("ipversion", "4,6", "comma-separated IP versions to include")
	typeFlag := flag.String("type", "allocated,assigned", "comma-separated delegation statuses")
	orgFlag := flag.Bool("org", false, "look up organization info for each matched block")
	configFlag := flag.String("config", "", "path to YAML configuration file")
	outFlag := flag.String("o", "", "output file (default results_<timestamp>.txt)")
	progressFlag := flag.Bool("progress", false, "show download and lookup progress")
	flag.Parse()

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fanout, err := setupLogging(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}
	log.SetFlags(0)
	log.SetOutput(fanout)
	defer fanout.Close()

	regs, err := parseRegistries(*rirFlag)
	if err != nil {
		fatalUsage(err.Error())
	}
	codes, err := parseCountries(*countryFlag)
	if err != nil {
		fatalUsage(err.Error())
	}
	versions, err := parseVersions(*versionFlag)
	if err != nil {
		fatalUsage(err.Error())
	}
	statuses, err := parseStatuses(*typeFlag)
	if err != nil {
		fatalUsage(err.Error())
	}

	criteria := filter.NewCriteria(regs, codes, statuses, versions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := stats.NewTracker()
	progress := newProgressPrinter(*progressFlag)

	records, fetched := fetchAndParse(ctx, cfg, regs, tracker, progress)
	if interrupted(ctx) {
		return
	}
	if fetched == 0 {
		log.Printf("Error: no delegation file could be retrieved")
		os.Exit(1)
	}

	matched := filter.Apply(records, criteria, tracker)
	log.Printf("Matched %s of %s records",
		humanize.Comma(int64(len(matched))), humanize.Comma(int64(len(records))))

	var results []aggregate.Record
	if *orgFlag {
		enricher := enrich.New(cfg.Enrich, tracker)
		outcomes := make(chan enrich.Outcome, cfg.Enrich.Workers)
		go enricher.Run(ctx, matched, outcomes)
		results = aggregate.Collect(matched, outcomes, progress.Enrichf)
		progress.Finish()
	} else {
		results = aggregate.Wrap(matched)
	}
	if interrupted(ctx) {
		return
	}

	outPath := *outFlag
	if outPath == "" {
		outPath = defaultOutputName(time.Now())
	}
	if err := writeResults(outPath, results, *orgFlag); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}

	printSummary(tracker.Snapshot(), outPath, *orgFlag)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// fetchAndParse downloads and parses each requested registry's delegation
// file concurrently, preserving the requested registry order in the merged
// record list. A registry whose source stays unreachable is skipped with a
// warning; it never aborts the others. Returns the merged records and how
// many registries were fetched successfully.
func fetchAndParse(ctx context.Context, cfg *config.Config, regs []registry.Registry, tracker *stats.Tracker, progress *progressPrinter) ([]delegation.Record, int) {
	fetcher := fetch.New(cfg.Fetch)
	fetcher.Progress = func(done, total int64) {
		progress.Downloadf("delegation data", done, total)
	}

	perRegistry := make([][]delegation.Record, len(regs))
	var fetched int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, reg := range regs {
		wg.Add(1)
		go func(i int, reg registry.Registry) {
			defer wg.Done()
			src, err := registry.Lookup(reg)
			if err != nil {
				log.Printf("Warning: skipping %s: %v", reg, err)
				return
			}
			path, err := fetcher.FetchDelegation(ctx, src)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Printf("Warning: skipping %s: %v", reg, err)
				}
				return
			}
			f, err := os.Open(path)
			if err != nil {
				log.Printf("Warning: skipping %s: cannot open %s: %v", reg, path, err)
				return
			}
			defer f.Close()
			recs := delegation.ParseAll(f, tracker)
			mu.Lock()
			perRegistry[i] = recs
			fetched++
			mu.Unlock()
			log.Printf("Parsed %s records from %s", humanize.Comma(int64(len(recs))), reg)
		}(i, reg)
	}
	wg.Wait()
	progress.Finish()

	var merged []delegation.Record
	for _, recs := range perRegistry {
		merged = append(merged, recs...)
	}
	return merged, fetched
}

// interrupted reports a user cancellation. Partial results are discarded and
// no output file is written.
func interrupted(ctx context.Context) bool {
	if ctx.Err() == nil {
		return false
	}
	log.Printf("Interrupted: discarding partial results")
	return true
}

func printSummary(s stats.Snapshot, outPath string, withOrg bool) {
	log.Printf("Summary: %s records seen, %s malformed lines skipped, %s matched",
		humanize.Comma(int64(s.TotalSeen)),
		humanize.Comma(int64(s.Malformed)),
		humanize.Comma(int64(s.FilteredIn)))
	if withOrg {
		log.Printf("Organization lookups: %s succeeded, %s failed",
			humanize.Comma(int64(s.EnrichSuccess)),
			humanize.Comma(int64(s.EnrichFailure)))
	}
	log.Printf("Results written to %s", outPath)
}

func fatalUsage(msg string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n\n", msg)
	flag.Usage()
	os.Exit(2)
}

func parseRegistries(arg string) ([]registry.Registry, error) {
	parts := splitList(arg)
	if len(parts) == 0 {
		return nil, errors.New("at least one -rir is required")
	}
	regs := make([]registry.Registry, 0, len(parts))
	seen := make(map[registry.Registry]bool)
	for _, p := range parts {
		reg, err := registry.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("unknown registry %q (choose from ripe, afrinic, apnic, lacnic, arin)", p)
		}
		if !seen[reg] {
			seen[reg] = true
			regs = append(regs, reg)
		}
	}
	return regs, nil
}

func parseCountries(arg string) ([]string, error) {
	parts := splitList(arg)
	if len(parts) == 0 {
		return nil, errors.New("at least one -country code is required")
	}
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		code := strings.ToUpper(p)
		if !countries.Valid(code) {
			msg := fmt.Sprintf("unknown country code %q", p)
			if suggestions := countries.Suggest(p); len(suggestions) > 0 {
				msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(suggestions, ", "))
			}
			return nil, errors.New(msg)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func parseVersions(arg string) ([]int, error) {
	parts := splitList(arg)
	versions := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || (v != 4 && v != 6) {
			return nil, fmt.Errorf("invalid IP version %q (choose 4 or 6)", p)
		}
		versions = append(versions, v)
	}
	return versions, nil
}

func parseStatuses(arg string) ([]delegation.Status, error) {
	parts := splitList(arg)
	statuses := make([]delegation.Status, 0, len(parts))
	for _, p := range parts {
		status, ok := delegation.ParseStatus(p)
		if !ok {
			return nil, fmt.Errorf("invalid delegation status %q (choose from allocated, assigned, available, reserved)", p)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func splitList(arg string) []string {
	var out []string
	for _, p := range strings.Split(arg, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
