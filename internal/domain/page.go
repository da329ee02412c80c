package domain

// Recent-list bounds. The default matches the "recently added" view; the cap
// prevents runaway queries from a caller-supplied limit.
const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// NewRecentLimit builds a row limit for the recent-records query from an
// optional caller value. Nil or non-positive values fall back to fallback
// (or DefaultRecentLimit when fallback is not positive); the result is capped
// at MaxRecentLimit.
func NewRecentLimit(limit *int, fallback int) int {
	n := fallback
	if n < 1 {
		n = DefaultRecentLimit
	}
	if limit != nil && *limit >= 1 {
		n = *limit
	}
	if n > MaxRecentLimit {
		n = MaxRecentLimit
	}
	return n
}
