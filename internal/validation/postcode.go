// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"time"
)

// Post codes look like "P-010125-00": a literal P, the post's creation date
// as DDMMYY, and a two-digit daily sequence number.
var postCodeRegex = regexp.MustCompile(`^P-(\d{2})(\d{2})(\d{2})-(\d{2})$`)

// ValidatePostCode checks that a post code matches the expected format and
// carries a real calendar date.
func ValidatePostCode(code string) error {
	m := postCodeRegex.FindStringSubmatch(code)
	if m == nil {
		return fmt.Errorf("post code must match P-DDMMYY-NN")
	}

	if _, err := time.Parse("020106", m[1]+m[2]+m[3]); err != nil {
		return fmt.Errorf("post code %q does not contain a valid date", code)
	}

	return nil
}

// FormatPostCode builds a post code for the given date and daily sequence.
func FormatPostCode(day time.Time, seq int) string {
	return fmt.Sprintf("P-%s-%02d", day.Format("020106"), seq%100)
}
