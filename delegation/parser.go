package delegation

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"ririnfo/registry"
	"ririnfo/stats"
)

// maxLineBytes bounds scanner growth; delegation lines are well under this.
const maxLineBytes = 64 * 1024

// Parser walks a delegation file once, yielding records in file order. It
// follows the bufio.Scanner idiom:
//
//	p := delegation.NewParser(r, tracker)
//	for p.Next() {
//		rec := p.Record()
//	}
//
// Structural lines (comments, the version header, the trailing summary
// section) are skipped silently. Data lines that cannot be parsed increment
// the tracker's malformed counter; asn lines are well formed but outside the
// IP data model and are counted separately. The parser never fails.
type Parser struct {
	sc      *bufio.Scanner
	tracker *stats.Tracker
	rec     Record
}

// NewParser creates a single-pass parser over r. tracker may be nil.
func NewParser(r io.Reader, tracker *stats.Tracker) *Parser {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	return &Parser{sc: sc, tracker: tracker}
}

// Next advances to the next parseable record. It returns false when the
// input is exhausted.
func (p *Parser) Next() bool {
	for p.sc.Scan() {
		rec, ok := p.parseLine(p.sc.Text())
		if !ok {
			continue
		}
		p.rec = rec
		return true
	}
	return false
}

// Record returns the record produced by the last successful Next.
func (p *Parser) Record() Record {
	return p.rec
}

// ParseAll drains a parser over r and returns every record.
func ParseAll(r io.Reader, tracker *stats.Tracker) []Record {
	var recs []Record
	p := NewParser(r, tracker)
	for p.Next() {
		recs = append(recs, p.Record())
	}
	return recs
}

func (p *Parser) parseLine(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Record{}, false
	}

	fields := strings.Split(line, "|")

	// Trailing summary section: registry|*|type|*|count|summary.
	if fields[len(fields)-1] == "summary" {
		return Record{}, false
	}
	// Version header: version|registry|serial|records|startdate|enddate|UTCoffset.
	if len(fields) == 7 && isNumeric(fields[0]) {
		return Record{}, false
	}

	p.seen()

	if len(fields) < 7 {
		p.malformed()
		return Record{}, false
	}
	if !registry.Valid(fields[0]) {
		p.malformed()
		return Record{}, false
	}

	var version int
	switch strings.ToLower(fields[2]) {
	case "ipv4":
		version = 4
	case "ipv6":
		version = 6
	case "asn":
		// Autonomous system delegations share the file but carry no
		// address block.
		if p.tracker != nil {
			p.tracker.IncrementSkippedASN()
		}
		return Record{}, false
	default:
		p.malformed()
		return Record{}, false
	}

	status, ok := ParseStatus(fields[6])
	if !ok {
		p.malformed()
		return Record{}, false
	}

	value, err := strconv.Atoi(fields[4])
	if err != nil {
		p.malformed()
		return Record{}, false
	}

	rec := Record{
		Registry:    registry.Registry(strings.ToLower(fields[0])),
		CountryCode: fields[1],
		IPVersion:   version,
		Start:       fields[3],
		Value:       value,
		Date:        fields[5],
		Status:      status,
	}
	if len(fields) > 7 {
		rec.OpaqueID = fields[7]
	}
	return rec, true
}

func (p *Parser) seen() {
	if p.tracker != nil {
		p.tracker.IncrementSeen()
	}
}

func (p *Parser) malformed() {
	if p.tracker != nil {
		p.tracker.IncrementMalformed()
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
