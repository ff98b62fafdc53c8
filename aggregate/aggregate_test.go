package aggregate

import (
	"testing"

	"ririnfo/delegation"
	"ririnfo/enrich"
	"ririnfo/registry"
)

func inputRecords() []delegation.Record {
	return []delegation.Record{
		{Registry: registry.RIPE, CountryCode: "IR", IPVersion: 4, Start: "5.160.0.0", Value: 1048576, Status: delegation.StatusAllocated, OpaqueID: "shared"},
		{Registry: registry.RIPE, CountryCode: "IR", IPVersion: 4, Start: "31.2.128.0", Value: 131072, Status: delegation.StatusAllocated, OpaqueID: "shared"},
		{Registry: registry.RIPE, CountryCode: "IR", IPVersion: 6, Start: "2a01:5e00::", Value: 32, Status: delegation.StatusAssigned, OpaqueID: "other"},
	}
}

func TestCollectRestoresInputOrder(t *testing.T) {
	recs := inputRecords()
	outcomes := make(chan enrich.Outcome, len(recs))
	// Deliberately out of order, as a worker pool would produce.
	outcomes <- enrich.Outcome{Index: 2, Org: &enrich.OrganizationInfo{Name: "C"}}
	outcomes <- enrich.Outcome{Index: 0, Org: &enrich.OrganizationInfo{Name: "A"}}
	outcomes <- enrich.Outcome{Index: 1, Org: nil}
	close(outcomes)

	got := Collect(recs, outcomes, nil)
	if len(got) != len(recs) {
		t.Fatalf("expected %d records, got %d", len(recs), len(got))
	}
	for i := range recs {
		if got[i].Record != recs[i] {
			t.Fatalf("record %d reordered", i)
		}
	}
	if got[0].Org == nil || got[0].Org.Name != "A" {
		t.Fatalf("unexpected org on record 0: %+v", got[0].Org)
	}
	if got[1].Org != nil {
		t.Fatalf("failed enrichment must leave org nil")
	}
	if got[2].Org == nil || got[2].Org.Name != "C" {
		t.Fatalf("unexpected org on record 2: %+v", got[2].Org)
	}
}

func TestCollectKeepsDuplicateOpaqueIDs(t *testing.T) {
	recs := inputRecords()
	outcomes := make(chan enrich.Outcome)
	close(outcomes)
	got := Collect(recs, outcomes, nil)
	if len(got) != 3 {
		t.Fatalf("duplicates must be preserved, got %d records", len(got))
	}
	if got[0].OpaqueID != got[1].OpaqueID {
		t.Fatalf("expected records 0 and 1 to share an opaque id")
	}
}

func TestCollectIgnoresOutOfRangeIndexes(t *testing.T) {
	recs := inputRecords()[:1]
	outcomes := make(chan enrich.Outcome, 2)
	outcomes <- enrich.Outcome{Index: 7, Org: &enrich.OrganizationInfo{Name: "X"}}
	outcomes <- enrich.Outcome{Index: -1}
	close(outcomes)
	got := Collect(recs, outcomes, nil)
	if got[0].Org != nil {
		t.Fatalf("stray outcome must not attach: %+v", got[0].Org)
	}
}

func TestCollectReportsProgress(t *testing.T) {
	recs := inputRecords()
	outcomes := make(chan enrich.Outcome, len(recs))
	for i := range recs {
		outcomes <- enrich.Outcome{Index: i}
	}
	close(outcomes)

	var calls int
	Collect(recs, outcomes, func(done, total int) {
		calls++
		if total != len(recs) {
			t.Fatalf("expected total %d, got %d", len(recs), total)
		}
		if done != calls {
			t.Fatalf("expected done %d, got %d", calls, done)
		}
	})
	if calls != len(recs) {
		t.Fatalf("expected %d progress calls, got %d", len(recs), calls)
	}
}

func TestWrapLeavesOrgEmpty(t *testing.T) {
	got := Wrap(inputRecords())
	for i, rec := range got {
		if rec.Org != nil {
			t.Fatalf("record %d should have no org", i)
		}
	}
}
