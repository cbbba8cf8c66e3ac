package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxCaptionLength   = 2000
	MaxCommentLength   = 1000
	MaxTopicNameLength = 200
	MaxBioLength       = 500
	MaxLocationLength  = 100
)

// ValidateCoordinates requires latitude and longitude to be set together and within range.
func ValidateCoordinates(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return fmt.Errorf("latitude and longitude must be provided together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if *lon < -180 || *lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateText checks that a free-text field is not longer than max runes.
// When required is set the trimmed value must also be non-empty.
func ValidateText(field, value string, max int, required bool) error {
	if required && strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return nil
}
