// Package medianame derives structured identity from media file and directory names.
//
// Parsing never fails with an error: a name either matches a known naming
// convention and yields its fields, or it is reported as unrecognized.
package medianame

import "fmt"

// Mode selects how strictly episode filenames are matched.
type Mode string

const (
	// ModeStrict requires the whole name to follow
	// "SxxEyy[ - title][ [resolution]].ext".
	ModeStrict Mode = "strict"
	// ModeLenient only requires an SxEy token somewhere in the name.
	ModeLenient Mode = "lenient"
)

// ParseMode converts a configuration value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStrict:
		return ModeStrict, nil
	case ModeLenient, "":
		return ModeLenient, nil
	default:
		return "", fmt.Errorf("unknown episode match mode %q", s)
	}
}

// Movie is the identity parsed from a movie filename.
type Movie struct {
	Title      string
	Year       int
	Resolution string // empty when the name carries no resolution
}

// Episode is the identity parsed from an episode filename.
// Season is advisory; the season directory is authoritative.
type Episode struct {
	Season     int
	Episode    int
	Title      string // episode title text, strict names only
	Resolution string
	Matcher    string // name of the pattern that matched
}
