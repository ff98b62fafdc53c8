package main

import (
	"bufio"
	"fmt"
	"math/big"
	"os"
	"time"

	"ririnfo/aggregate"
	"ririnfo/delegation"
)

// defaultOutputName is results_<timestamp>.txt in local time.
func defaultOutputName(now time.Time) string {
	return "results_" + now.Format("20060102_150405") + ".txt"
}

// writeResults writes one line per CIDR prefix, appending organization name
// and address when enrichment produced them, and ends with the total address
// count across all emitted blocks.
func writeResults(path string, recs []aggregate.Record, withOrg bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	w := bufio.NewWriter(f)

	total := new(big.Int)
	for _, rec := range recs {
		for _, prefix := range delegation.Prefixes(rec.Record) {
			line := prefix
			if withOrg {
				name := "Unknown organization"
				if rec.Org != nil && rec.Org.Name != "" {
					name = rec.Org.Name
				}
				line += " | " + name
				if rec.Org != nil && rec.Org.Address != "" {
					line += " | " + rec.Org.Address
				}
			}
			fmt.Fprintln(w, line)
		}
		total.Add(total, delegation.AddressCount(rec.Record))
	}
	fmt.Fprintf(w, "Total IP addresses: %s\n", total.String())

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}
