package delegation

import (
	"testing"

	"ririnfo/registry"
)

func v4Record(start string, count int) Record {
	return Record{
		Registry:    registry.RIPE,
		CountryCode: "IR",
		IPVersion:   4,
		Start:       start,
		Value:       count,
		Status:      StatusAllocated,
	}
}

func TestPrefixesPowerOfTwoCount(t *testing.T) {
	got := Prefixes(v4Record("5.160.0.0", 1048576))
	if len(got) != 1 || got[0] != "5.160.0.0/12" {
		t.Fatalf("expected [5.160.0.0/12], got %v", got)
	}
}

func TestPrefixesDecomposesNonPowerOfTwo(t *testing.T) {
	got := Prefixes(v4Record("193.0.0.0", 768))
	if len(got) != 2 {
		t.Fatalf("expected 2 prefixes, got %v", got)
	}
	if got[0] != "193.0.0.0/23" || got[1] != "193.0.2.0/24" {
		t.Fatalf("unexpected decomposition: %v", got)
	}
}

func TestPrefixesSingleAddress(t *testing.T) {
	got := Prefixes(v4Record("192.0.2.1", 1))
	if len(got) != 1 || got[0] != "192.0.2.1/32" {
		t.Fatalf("expected [192.0.2.1/32], got %v", got)
	}
}

func TestPrefixesIPv6UsesLengthDirectly(t *testing.T) {
	rec := Record{Registry: registry.ARIN, IPVersion: 6, Start: "2620:0:860::", Value: 48}
	got := Prefixes(rec)
	if len(got) != 1 || got[0] != "2620:0:860::/48" {
		t.Fatalf("expected [2620:0:860::/48], got %v", got)
	}
}

func TestPrefixesRejectsGarbage(t *testing.T) {
	if got := Prefixes(v4Record("not-an-ip", 256)); got != nil {
		t.Fatalf("expected nil for bad start address, got %v", got)
	}
	if got := Prefixes(v4Record("192.0.2.0", 0)); got != nil {
		t.Fatalf("expected nil for zero count, got %v", got)
	}
	rec := Record{IPVersion: 6, Start: "2001:db8::", Value: 129}
	if got := Prefixes(rec); got != nil {
		t.Fatalf("expected nil for out-of-range v6 length, got %v", got)
	}
}

func TestAddressCount(t *testing.T) {
	if got := AddressCount(v4Record("5.160.0.0", 1048576)); got.Int64() != 1048576 {
		t.Fatalf("expected 1048576, got %s", got)
	}
	rec := Record{IPVersion: 6, Start: "2001:db8::", Value: 126}
	if got := AddressCount(rec); got.Int64() != 4 {
		t.Fatalf("expected 4, got %s", got)
	}
}

func TestKeyDistinguishesRecords(t *testing.T) {
	a := v4Record("5.160.0.0", 256)
	a.OpaqueID = "org-1"
	b := a
	b.Start = "5.161.0.0"
	if a.Key() == b.Key() {
		t.Fatalf("records with different starts must not share a key")
	}
	c := a
	if a.Key() != c.Key() {
		t.Fatalf("identical records must share a key")
	}
}
