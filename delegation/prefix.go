package delegation

import (
	"fmt"
	"math/big"
	"math/bits"
	"net"

	"github.com/c-robinson/iplib"
)

// Prefixes converts a record's address block into CIDR notation.
//
// IPv6 delegations already carry a prefix length. IPv4 delegations carry an
// address count which is not always a power of two, so the block is
// decomposed greedily into aligned power-of-two chunks walking up from the
// start address: a count of 1048576 starting at 5.160.0.0 yields
// 5.160.0.0/12, while a count of 768 yields a /23 followed by a /24.
func Prefixes(rec Record) []string {
	if rec.Value <= 0 {
		return nil
	}
	if rec.IPVersion == 6 {
		if rec.Value > 128 {
			return nil
		}
		return []string{fmt.Sprintf("%s/%d", rec.Start, rec.Value)}
	}

	ip := net.ParseIP(rec.Start)
	if ip == nil || ip.To4() == nil {
		return nil
	}

	var prefixes []string
	cursor := ip.To4()
	remaining := uint64(rec.Value)
	for remaining > 0 && len(prefixes) < 32 {
		width := bits.Len64(remaining) - 1
		if width > 32 {
			width = 32
		}
		chunk := uint64(1) << width
		prefixes = append(prefixes, fmt.Sprintf("%s/%d", cursor, 32-width))
		cursor = iplib.IncrementIP4By(cursor, uint32(chunk)).To4()
		remaining -= chunk
	}
	return prefixes
}

// AddressCount returns how many addresses the record's block contains. IPv6
// blocks can exceed uint64 so the count is a big.Int.
func AddressCount(rec Record) *big.Int {
	if rec.Value <= 0 {
		return big.NewInt(0)
	}
	if rec.IPVersion == 6 {
		if rec.Value > 128 {
			return big.NewInt(0)
		}
		return new(big.Int).Lsh(big.NewInt(1), uint(128-rec.Value))
	}
	return big.NewInt(int64(rec.Value))
}
