package wire

import "strings"

// Categorical free-text fields are carried on the broker as numeric codes.

const (
	// Fallback codes for unrecognized textual values. Encoding never fails
	// on an unknown mood or gender.
	MoodUnknown   = -1
	GenderNeutral = 3

	// Sentinel for derived fields that are deliberately not computed
	// (check-in temperature, checkout mood).
	DerivedUnset = -1
)

var moodCodes = map[string]int{
	"VERY ANGRY": 1,
	"ANGRY":      2,
	"NEUTRAL":    3,
	"HAPPY":      4,
	"VERY HAPPY": 5,
}

var genderCodes = map[string]int{
	"MALE":   1,
	"FEMALE": 2,
}

// MoodCode maps a mood label to its wire code, falling back to MoodUnknown.
func MoodCode(mood string) int {
	if code, ok := moodCodes[strings.ToUpper(strings.TrimSpace(mood))]; ok {
		return code
	}
	return MoodUnknown
}

// GenderCode maps a gender label to its wire code, falling back to GenderNeutral.
func GenderCode(gender string) int {
	if code, ok := genderCodes[strings.ToUpper(strings.TrimSpace(gender))]; ok {
		return code
	}
	return GenderNeutral
}
