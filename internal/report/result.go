package report

import "github.com/pkordes/securecheck/internal/domain"

// Result is one executed report: the definition that produced it and the
// table it returned, exactly as the store yielded it.
type Result struct {
	Definition Definition
	Table      domain.ResultTable
	// Cached is true when the table was served from the report cache.
	Cached bool
}
