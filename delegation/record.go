// Package delegation models the RIR delegation-file records and parses the
// pipe-delimited extended statistics format. Parsing is permissive: comment,
// version, and summary lines are recognized structurally, and anything else
// that cannot be mapped onto a Record is counted and skipped rather than
// failing the run.
package delegation

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"ririnfo/registry"
)

// Status is the delegation status column of a record.
type Status string

const (
	StatusAllocated Status = "allocated"
	StatusAssigned  Status = "assigned"
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
)

// ParseStatus maps a status field case-insensitively onto a Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusAllocated:
		return StatusAllocated, true
	case StatusAssigned:
		return StatusAssigned, true
	case StatusAvailable:
		return StatusAvailable, true
	case StatusReserved:
		return StatusReserved, true
	}
	return "", false
}

// Record is one IP delegation line in canonical form.
//
// For IPv4 records Value is the number of addresses in the block; for IPv6 it
// is the prefix length. Registry plus OpaqueID plus Start identifies a record
// uniquely within one fetch; OpaqueID may be shared across many records held
// by the same organization.
type Record struct {
	Registry    registry.Registry
	CountryCode string
	IPVersion   int
	Start       string
	Value       int
	Date        string // yyyymmdd, may be empty
	Status      Status
	OpaqueID    string
}

// String re-serializes the record to its pipe-delimited file form. Records
// without an opaque id round-trip to the seven-field plain format.
func (r Record) String() string {
	line := fmt.Sprintf("%s|%s|ipv%d|%s|%d|%s|%s",
		r.Registry, r.CountryCode, r.IPVersion, r.Start, r.Value, r.Date, r.Status)
	if r.OpaqueID != "" {
		line += "|" + r.OpaqueID
	}
	return line
}

// Key hashes the record's identity (registry, opaque id, start address) for
// map keys and duplicate detection.
func (r Record) Key() uint64 {
	return xxh3.HashString(string(r.Registry) + "|" + r.OpaqueID + "|" + r.Start)
}
