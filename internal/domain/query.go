package domain

import "time"

// HistoryQuery carries the optional filters for the loan history listing.
// Nil From/To mean an unbounded range; both bounds are inclusive calendar
// dates compared against the loan's issue date. Filter is matched
// case-insensitively against item title, item author, and loan recipient;
// an empty filter matches everything.
type HistoryQuery struct {
	From   *time.Time
	To     *time.Time
	Filter string
}

// DefaultAuditLimit is the number of audit events returned when a caller asks
// for a non-positive limit.
const DefaultAuditLimit = 50

// NormalizeAuditLimit replaces a non-positive audit listing limit with the default.
func NormalizeAuditLimit(limit int) int {
	if limit <= 0 {
		return DefaultAuditLimit
	}
	return limit
}
