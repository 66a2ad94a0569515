package ledger

import (
	"math/big"
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether addr is a well-formed ledger address.
func ValidAddress(addr string) bool {
	return addressPattern.MatchString(strings.TrimSpace(addr))
}

// NormalizeAddress lower-cases a ledger address for use as a comparison key.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// MemberRecord mirrors the cooperative contract's member mapping.
// Registration is terminal once true.
type MemberRecord struct {
	Registered bool
	Name       string
}

// Loan mirrors the cooperative contract's loan record. Settled is the only
// authority on loan termination; paid-vs-owed comparisons are display data.
type Loan struct {
	ID        uint64
	Borrower  string
	Principal *big.Int
	Owed      *big.Int
	Paid      *big.Int
	Approved  bool
	Settled   bool
}
