package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewRequestID generates a value for the X-Request-ID header
func NewRequestID() string {
	return uuid.New().String()
}

// ShortID returns the first eight characters of an id for log prefixes
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ExportFilename builds the download name for a payments export
func ExportFilename(startDate, endDate string) string {
	return "payments-" + startDate + "-to-" + endDate + ".xlsx"
}

// NormalizeTerm trims a search term the way the dashboard search box does
func NormalizeTerm(term string) string {
	return strings.TrimSpace(term)
}
