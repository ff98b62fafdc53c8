// Package aggregate assembles the final ordered result set: each filtered
// delegation record joined with at most one organization lookup result.
// Input order is preserved and duplicates are kept — one organization can
// hold many prefixes and the output should show all of them.
package aggregate

import (
	"ririnfo/delegation"
	"ririnfo/enrich"
)

// Record is a delegation record with optional organization metadata. Records
// are immutable once collected; the output writer consumes them exactly once.
type Record struct {
	delegation.Record
	Org *enrich.OrganizationInfo
}

// Wrap converts records without running enrichment (the -org flag off path).
func Wrap(recs []delegation.Record) []Record {
	out := make([]Record, len(recs))
	for i, rec := range recs {
		out[i] = Record{Record: rec}
	}
	return out
}

// Collect drains the enrichment outcome channel and joins results back onto
// the records by index, restoring input order regardless of worker completion
// order. It is the single consumer of the channel, so no further locking is
// needed. progress, when non-nil, is called after every received outcome.
func Collect(recs []delegation.Record, outcomes <-chan enrich.Outcome, progress func(done, total int)) []Record {
	out := Wrap(recs)
	done := 0
	for oc := range outcomes {
		if oc.Index < 0 || oc.Index >= len(out) {
			continue
		}
		out[oc.Index].Org = oc.Org
		done++
		if progress != nil {
			progress(done, len(recs))
		}
	}
	return out
}
