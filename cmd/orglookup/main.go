// Program orglookup resolves organization metadata for resources read from
// stdin, using the same per-registry lookup strategies as the main pipeline.
// Useful for spot-checking a registry's whois responses.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"ririnfo/config"
	"ririnfo/delegation"
	"ririnfo/enrich"
	"ririnfo/registry"
)

func main() {
	rirFlag := flag.String("rir", "ripe", "registry to query (ripe, afrinic, apnic, lacnic, arin)")
	flag.Parse()

	reg, err := registry.Parse(*rirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	src, err := registry.Lookup(reg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	enricher := enrich.New(config.Default().Enrich, nil)

	switch src.OrgKey {
	case registry.KeyOpaqueID:
		fmt.Printf("querying %s by opaque id (e.g. an org handle)\n", reg)
	default:
		fmt.Printf("querying %s by prefix start address\n", reg)
	}
	fmt.Println("enter resources (Ctrl+C to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		rec := delegation.Record{Registry: reg, IPVersion: 4, Start: input, Value: 256}
		if src.OrgKey == registry.KeyOpaqueID {
			rec.OpaqueID = input
		}

		org, err := enricher.Lookup(context.Background(), rec)
		if err != nil {
			fmt.Printf("lookup failed: %v\n", err)
			continue
		}
		fmt.Printf("%s -> name=%s", input, org.Name)
		if org.Address != "" {
			fmt.Printf(", address=%s", org.Address)
		}
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "input error: %v\n", err)
	}
}
