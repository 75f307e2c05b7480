package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SearchFilters narrows a video search
type SearchFilters struct {
	UploadDate string `json:"upload_date,omitempty"` // hour, today, week, month, year
	Duration   string `json:"duration,omitempty"`    // short, medium, long
	SortBy     string `json:"sort_by,omitempty"`     // relevance, date, viewCount, rating
	Language   string `json:"language,omitempty"`
	RegionCode string `json:"region_code,omitempty"`
}

var (
	uploadDates = []string{"hour", "today", "week", "month", "year"}
	durations   = []string{"short", "medium", "long"}
	sortOrders  = []string{"relevance", "date", "viewCount", "rating"}
)

// Validate checks every enumerated field
func (f *SearchFilters) Validate() error {
	if f.UploadDate != "" && !oneOf(f.UploadDate, uploadDates) {
		return fmt.Errorf("upload_date must be one of %s", strings.Join(uploadDates, ", "))
	}
	if f.Duration != "" && !oneOf(f.Duration, durations) {
		return fmt.Errorf("duration must be one of %s", strings.Join(durations, ", "))
	}
	if f.SortBy != "" && !oneOf(f.SortBy, sortOrders) {
		return fmt.Errorf("sort_by must be one of %s", strings.Join(sortOrders, ", "))
	}
	return nil
}

// Order returns the search order, relevance by default
func (f *SearchFilters) Order() string {
	if f == nil || f.SortBy == "" {
		return "relevance"
	}
	return f.SortBy
}

// ParseSearchFilters decodes a JSON filter string. Blank input yields nil.
func ParseSearchFilters(raw string) (*SearchFilters, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var f SearchFilters
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid filters JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid filters JSON: unexpected data after object")
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filters JSON: %w", err)
	}
	return &f, nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
