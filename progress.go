package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// progressPrinter draws a single in-place status line on stderr. It stays
// silent when stderr is not a terminal so piped output and log files never
// see carriage returns.
type progressPrinter struct {
	enabled bool
	mu      sync.Mutex
	lastLen int
}

func newProgressPrinter(requested bool) *progressPrinter {
	return &progressPrinter{
		enabled: requested && term.IsTerminal(int(os.Stderr.Fd())),
	}
}

// Downloadf reports delegation download progress in bytes.
func (p *progressPrinter) Downloadf(name string, done, total int64) {
	if total > 0 {
		p.printf("Downloading %s: %s / %s (%d%%)",
			name, humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)), 100*done/total)
		return
	}
	p.printf("Downloading %s: %s", name, humanize.Bytes(uint64(done)))
}

// Enrichf reports completed organization lookups.
func (p *progressPrinter) Enrichf(done, total int) {
	p.printf("Fetching organization info: %d / %d", done, total)
}

// Finish terminates the in-place line so subsequent output starts clean.
func (p *progressPrinter) Finish() {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastLen > 0 {
		fmt.Fprint(os.Stderr, "\r", strings.Repeat(" ", p.lastLen), "\r")
		p.lastLen = 0
	}
}

func (p *progressPrinter) printf(format string, args ...any) {
	if p == nil || !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	line := fmt.Sprintf(format, args...)
	pad := p.lastLen - len(line)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprint(os.Stderr, "\r", line, strings.Repeat(" ", pad))
	p.lastLen = len(line)
}
