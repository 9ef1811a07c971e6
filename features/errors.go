package features

import "fmt"

// SchemaError reports a required raw column that is missing or invalid in
// an input row. The enclosing Fit/Apply call fails as a whole; no partial
// feature rows are returned.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing or invalid required column %q", e.Column)
}

// MissingStatisticsError reports an inference-time lookup for a street the
// supplied training statistics know nothing about. The caller decides
// whether to skip the street or abort.
type MissingStatisticsError struct {
	Street string
}

func (e *MissingStatisticsError) Error() string {
	return fmt.Sprintf("no training statistics for street %q", e.Street)
}
