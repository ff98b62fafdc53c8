// Package stats tracks pipeline counters for the run summary: lines seen,
// malformed lines skipped, records passing the filter, and enrichment
// outcomes. Counters are atomic so parser, filter, and enrichment workers can
// increment them without a shared lock.
package stats

import "sync/atomic"

// Tracker accumulates counters across one pipeline run. The zero value is
// ready to use. Counters only ever increase; Snapshot returns a consistent
// copy for display.
type Tracker struct {
	totalSeen     atomic.Uint64
	malformed     atomic.Uint64
	skippedASN    atomic.Uint64
	filteredIn    atomic.Uint64
	enrichSuccess atomic.Uint64
	enrichFailure atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	TotalSeen     uint64
	Malformed     uint64
	SkippedASN    uint64
	FilteredIn    uint64
	EnrichSuccess uint64
	EnrichFailure uint64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// IncrementSeen counts one data line presented to the parser.
func (t *Tracker) IncrementSeen() {
	t.totalSeen.Add(1)
}

// IncrementMalformed counts one skipped malformed line.
func (t *Tracker) IncrementMalformed() {
	t.malformed.Add(1)
}

// IncrementSkippedASN counts one well-formed asn line outside the data model.
func (t *Tracker) IncrementSkippedASN() {
	t.skippedASN.Add(1)
}

// IncrementFilteredIn counts one record accepted by the filter.
func (t *Tracker) IncrementFilteredIn() {
	t.filteredIn.Add(1)
}

// IncrementEnrichSuccess counts one organization lookup that produced data.
func (t *Tracker) IncrementEnrichSuccess() {
	t.enrichSuccess.Add(1)
}

// IncrementEnrichFailure counts one lookup that exhausted its retry budget or
// returned an unparseable response.
func (t *Tracker) IncrementEnrichFailure() {
	t.enrichFailure.Add(1)
}

// Snapshot returns a copy of the current counter values.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		TotalSeen:     t.totalSeen.Load(),
		Malformed:     t.malformed.Load(),
		SkippedASN:    t.skippedASN.Load(),
		FilteredIn:    t.filteredIn.Load(),
		EnrichSuccess: t.enrichSuccess.Load(),
		EnrichFailure: t.enrichFailure.Load(),
	}
}

// EnrichAttempts returns successes plus failures, i.e. the number of records
// for which enrichment was attempted.
func (s Snapshot) EnrichAttempts() uint64 {
	return s.EnrichSuccess + s.EnrichFailure
}
