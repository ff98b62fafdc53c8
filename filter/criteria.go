// Package filter selects delegation records matching user criteria. The four
// dimensions (registry, country code, status, IP version) combine with AND
// logic; within one dimension the allowed values combine with OR. An empty
// dimension matches everything, so the zero Criteria is the identity filter.
package filter

import (
	"strings"

	"ririnfo/delegation"
	"ririnfo/registry"
	"ririnfo/stats"
)

// Criteria holds the enabled values per dimension. Nil or empty maps mean
// "match all" for that dimension. Country codes are stored uppercased.
type Criteria struct {
	Registries   map[registry.Registry]bool
	CountryCodes map[string]bool
	Statuses     map[delegation.Status]bool
	IPVersions   map[int]bool
}

// NewCriteria builds a Criteria from plain slices, normalizing country codes
// to upper case. Empty slices leave the dimension unrestricted.
func NewCriteria(regs []registry.Registry, countries []string, statuses []delegation.Status, versions []int) Criteria {
	c := Criteria{}
	if len(regs) > 0 {
		c.Registries = make(map[registry.Registry]bool, len(regs))
		for _, r := range regs {
			c.Registries[r] = true
		}
	}
	if len(countries) > 0 {
		c.CountryCodes = make(map[string]bool, len(countries))
		for _, cc := range countries {
			c.CountryCodes[strings.ToUpper(strings.TrimSpace(cc))] = true
		}
	}
	if len(statuses) > 0 {
		c.Statuses = make(map[delegation.Status]bool, len(statuses))
		for _, s := range statuses {
			c.Statuses[s] = true
		}
	}
	if len(versions) > 0 {
		c.IPVersions = make(map[int]bool, len(versions))
		for _, v := range versions {
			c.IPVersions[v] = true
		}
	}
	return c
}

// Matches reports whether a record satisfies every restricted dimension.
func (c Criteria) Matches(rec delegation.Record) bool {
	if len(c.Registries) > 0 && !c.Registries[rec.Registry] {
		return false
	}
	if len(c.CountryCodes) > 0 && !c.CountryCodes[strings.ToUpper(rec.CountryCode)] {
		return false
	}
	if len(c.Statuses) > 0 && !c.Statuses[rec.Status] {
		return false
	}
	if len(c.IPVersions) > 0 && !c.IPVersions[rec.IPVersion] {
		return false
	}
	return true
}

// Apply returns the matching subsequence in input order and counts each
// accepted record on the tracker. tracker may be nil.
func Apply(recs []delegation.Record, c Criteria, tracker *stats.Tracker) []delegation.Record {
	out := make([]delegation.Record, 0, len(recs))
	for _, rec := range recs {
		if !c.Matches(rec) {
			continue
		}
		if tracker != nil {
			tracker.IncrementFilteredIn()
		}
		out = append(out, rec)
	}
	return out
}
