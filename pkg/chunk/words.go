package chunk

import (
	"fmt"
	"math"
	"strings"
)

// CountWords counts runs of non-whitespace. It does no language-specific
// segmentation, so it is a coarse measure for Arabic and CJK text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// LengthReport is the outcome of ValidateLength.
type LengthReport struct {
	IsValid bool `json:"is_valid"`
	// Ratio is the edited word count as a percentage of the original one.
	Ratio         float64 `json:"ratio"`
	Message       string  `json:"message"`
	OriginalWords int     `json:"original_words"`
	EditedWords   int     `json:"edited_words"`
}

// ValidateLength checks that edited kept the word count of original within
// tolerancePercent. An invalid report is a signal for the caller, for example
// to retry an edit or keep the original text.
//
// An empty original is only matched by an empty edit; the ratio is then 100,
// otherwise 0.
func ValidateLength(original, edited string, tolerancePercent float64) LengthReport {
	if tolerancePercent < 0 || math.IsNaN(tolerancePercent) {
		tolerancePercent = 0
	}

	r := LengthReport{
		OriginalWords: CountWords(original),
		EditedWords:   CountWords(edited),
	}

	if r.OriginalWords == 0 {
		r.IsValid = r.EditedWords == 0
		if r.IsValid {
			r.Ratio = 100
			r.Message = "both texts are empty"
		} else {
			r.Message = fmt.Sprintf("original text is empty but edited text has %d words", r.EditedWords)
		}
		return r
	}

	r.Ratio = float64(r.EditedWords) / float64(r.OriginalWords) * 100
	r.IsValid = math.Abs(100-r.Ratio) <= tolerancePercent

	counts := fmt.Sprintf("%d words edited vs %d original (%.1f%%, tolerance %g%%)",
		r.EditedWords, r.OriginalWords, r.Ratio, tolerancePercent)
	switch {
	case r.IsValid:
		r.Message = "word count within tolerance: " + counts
	case r.Ratio < 100:
		r.Message = "edited text too short: " + counts
	default:
		r.Message = "edited text too long: " + counts
	}

	return r
}
