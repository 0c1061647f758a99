// Package timecodec converts swim times and diving scores between their
// human form ("1:35.20", "350.25") and canonical seconds, and maps event
// names from different sources onto one canonical key.
package timecodec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	secondsPerMinute = 60
	hundredths       = 100
)

// NotAvailable is rendered for an absent time.
const NotAvailable = "N/A"

// Parse parses a time (scoreLike=false) or a diving score (scoreLike=true).
func Parse(text string, scoreLike bool) (float64, error) {
	if scoreLike {
		return ParseScore(text)
	}
	return ParseSeconds(text)
}

// ParseSeconds parses "MM:SS.ss" or "SS.ss" into seconds.
func ParseSeconds(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, &FormatError{Input: text, Reason: "empty"}
	}
	minutes, rest, hasMinutes := strings.Cut(s, ":")
	if !hasMinutes {
		return parseDecimal(text, s)
	}
	if minutes == "" || !allDigits(minutes) {
		return 0, &FormatError{Input: text, Reason: "minutes must be a non-negative integer"}
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, &FormatError{Input: text, Reason: err.Error()}
	}
	sec, err := parseDecimal(text, rest)
	if err != nil {
		return 0, err
	}
	if sec >= secondsPerMinute {
		return 0, &FormatError{Input: text, Reason: "seconds must be below 60 when minutes are given"}
	}
	return round2(float64(m)*secondsPerMinute + sec), nil
}

// ParseScore parses a plain non-negative decimal score such as "350.25".
func ParseScore(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, &FormatError{Input: text, Reason: "empty"}
	}
	if strings.Contains(s, ":") {
		return 0, &FormatError{Input: text, Reason: "scores are plain decimals"}
	}
	return parseDecimal(text, s)
}

// parseDecimal accepts digits with at most one decimal point. Signs,
// exponents, NaN and Inf are rejected.
func parseDecimal(orig, s string) (float64, error) {
	if strings.HasPrefix(s, "-") {
		return 0, &FormatError{Input: orig, Reason: "negative"}
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, &FormatError{Input: orig, Reason: "not a number"}
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, &FormatError{Input: orig, Reason: "not a number"}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{Input: orig, Reason: err.Error()}
	}
	return round2(v), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatSeconds renders seconds as "SS.ss" or "M:SS.ss", or as a plain
// two-place decimal when scoreLike is set.
func FormatSeconds(seconds float64, scoreLike bool) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return NotAvailable
	}
	if scoreLike {
		return strconv.FormatFloat(seconds, 'f', 2, 64)
	}
	total := int64(math.Round(seconds * hundredths))
	minutes := total / (secondsPerMinute * hundredths)
	rem := total % (secondsPerMinute * hundredths)
	if minutes == 0 {
		return fmt.Sprintf("%d.%02d", rem/hundredths, rem%hundredths)
	}
	return fmt.Sprintf("%d:%02d.%02d", minutes, rem/hundredths, rem%hundredths)
}

// FormatOptional renders an optional value, "N/A" when absent.
func FormatOptional(seconds *float64, scoreLike bool) string {
	if seconds == nil {
		return NotAvailable
	}
	return FormatSeconds(*seconds, scoreLike)
}

// Round2 rounds to hundredths, the resolution of a swim clock.
func Round2(v float64) float64 { return round2(v) }

func round2(v float64) float64 {
	return math.Round(v*hundredths) / hundredths
}
