// Package registry holds the static source catalog for the five Regional
// Internet Registries: where each registry publishes its delegation file and
// how organization metadata is looked up for records it delegated. The
// catalog is pure configuration; no I/O happens here.
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Registry identifies an RIR using the token that appears in the registry
// field of the delegation files themselves.
type Registry string

const (
	RIPE    Registry = "ripencc"
	AFRINIC Registry = "afrinic"
	APNIC   Registry = "apnic"
	LACNIC  Registry = "lacnic"
	ARIN    Registry = "arin"
)

// ErrUnknownRegistry is returned for identifiers outside the catalog.
var ErrUnknownRegistry = errors.New("registry: unknown registry")

// Format selects the parsing strategy for a registry's organization lookup
// response. Formats differ per registry, so the strategy travels with the
// catalog entry instead of being branched on inside the enrichment code.
type Format string

const (
	// FormatRIPEStatJSON is the RIPEstat whois data API: JSON with
	// records of key/value entries. RIPEstat serves whois data for
	// resources of every region, so most registries use it.
	FormatRIPEStatJSON Format = "ripestat-json"
	// FormatWhoisText is plain "Key: value" text, as served by the ARIN
	// Whois-RWS .txt endpoints.
	FormatWhoisText Format = "whois-text"
)

// KeyKind says which record field is substituted into the lookup template.
type KeyKind string

const (
	// KeyPrefix substitutes the record's CIDR prefix notation.
	KeyPrefix KeyKind = "prefix"
	// KeyOpaqueID substitutes the registry-assigned opaque identifier.
	KeyOpaqueID KeyKind = "opaque-id"
)

// Source is one catalog entry: the delegation file location and the
// organization lookup strategy for a registry.
type Source struct {
	Registry       Registry
	DelegationURL  string
	OrgURLTemplate string // contains a {resource} placeholder
	OrgFormat      Format
	OrgKey         KeyKind
}

const ripeStatTemplate = "https://stat.ripe.net/data/whois/data.json?resource={resource}"

// The RIRs mirror their delegated-extended files over HTTPS at the same
// paths as the historical FTP locations.
var catalog = map[Registry]Source{
	RIPE: {
		Registry:       RIPE,
		DelegationURL:  "https://ftp.ripe.net/pub/stats/ripencc/delegated-ripencc-extended-latest",
		OrgURLTemplate: ripeStatTemplate,
		OrgFormat:      FormatRIPEStatJSON,
		OrgKey:         KeyPrefix,
	},
	AFRINIC: {
		Registry:       AFRINIC,
		DelegationURL:  "https://ftp.afrinic.net/pub/stats/afrinic/delegated-afrinic-extended-latest",
		OrgURLTemplate: ripeStatTemplate,
		OrgFormat:      FormatRIPEStatJSON,
		OrgKey:         KeyPrefix,
	},
	APNIC: {
		Registry:       APNIC,
		DelegationURL:  "https://ftp.apnic.net/pub/stats/apnic/delegated-apnic-extended-latest",
		OrgURLTemplate: ripeStatTemplate,
		OrgFormat:      FormatRIPEStatJSON,
		OrgKey:         KeyPrefix,
	},
	LACNIC: {
		Registry:       LACNIC,
		DelegationURL:  "https://ftp.lacnic.net/pub/stats/lacnic/delegated-lacnic-extended-latest",
		OrgURLTemplate: ripeStatTemplate,
		OrgFormat:      FormatRIPEStatJSON,
		OrgKey:         KeyPrefix,
	},
	ARIN: {
		Registry:       ARIN,
		DelegationURL:  "https://ftp.arin.net/pub/stats/arin/delegated-arin-extended-latest",
		OrgURLTemplate: "https://whois.arin.net/rest/org/{resource}.txt",
		OrgFormat:      FormatWhoisText,
		OrgKey:         KeyOpaqueID,
	},
}

// aliases map user-facing names to catalog registries. The delegation files
// call the RIPE NCC "ripencc" while operators say "ripe".
var aliases = map[string]Registry{
	"ripe":    RIPE,
	"ripencc": RIPE,
	"afrinic": AFRINIC,
	"apnic":   APNIC,
	"lacnic":  LACNIC,
	"arin":    ARIN,
}

// All lists the catalog registries in delegation-file token order.
func All() []Registry {
	return []Registry{RIPE, AFRINIC, APNIC, LACNIC, ARIN}
}

// Parse resolves a user-supplied registry name (case-insensitive, accepting
// the "ripe" alias) to a catalog Registry.
func Parse(name string) (Registry, error) {
	reg, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegistry, name)
	}
	return reg, nil
}

// Valid reports whether tok is a recognized delegation-file registry token.
func Valid(tok string) bool {
	_, ok := catalog[Registry(strings.ToLower(tok))]
	return ok
}

// Lookup returns the catalog entry for a registry.
func Lookup(r Registry) (Source, error) {
	src, ok := catalog[r]
	if !ok {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownRegistry, string(r))
	}
	return src, nil
}

// OrgURL substitutes the lookup resource into the entry's URL template.
func (s Source) OrgURL(resource string) string {
	return strings.ReplaceAll(s.OrgURLTemplate, "{resource}", resource)
}
