package handlers

import "time"

const dateLayout = "2006-01-02"

// validDate accepts only zero-padded ISO dates; time.Parse alone would
// let "2024-1-2" through.
func validDate(s string) bool {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return false
	}
	return t.Format(dateLayout) == s
}
