package audio

import (
	"math"

	"AudioEditor/core/apperr"
)

type FadeType string

const (
	FadeIn  FadeType = "in"
	FadeOut FadeType = "out"
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidateCut checks the trim window. It never touches the filesystem.
func ValidateCut(start, end float64) error {
	if !finite(start) || !finite(end) {
		return apperr.Client("Start and end time must be finite numbers")
	}
	if start >= end {
		return apperr.Client("Start time must be less than end time")
	}
	if start < 0 {
		return apperr.Client("Start time cannot be negative")
	}
	return nil
}

// ValidateFade returns the typed fade direction.
func ValidateFade(fadeType string, duration float64) (FadeType, error) {
	fade := FadeType(fadeType)
	if fade != FadeIn && fade != FadeOut {
		return "", apperr.Client("Fade type must be 'in' or 'out'")
	}
	if !finite(duration) || duration <= 0 {
		return "", apperr.Client("Fade duration must be positive")
	}
	return fade, nil
}

// ValidateExportFormat accepts a bare extension token such as mp3 or wav. The format
// becomes part of an output filename, so separators and dots are refused.
func ValidateExportFormat(format string) error {
	if format == "" || len(format) > 8 {
		return apperr.Client("Unsupported export format")
	}
	for _, r := range format {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isLetter && !isDigit {
			return apperr.Client("Unsupported export format")
		}
	}
	return nil
}

// ValidateVolume rejects multipliers the volume filter cannot take.
func ValidateVolume(volume float64) error {
	if !finite(volume) || volume < 0 {
		return apperr.Client("Volume must be a non-negative number")
	}
	return nil
}
