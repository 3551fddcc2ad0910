package chunk

import "unicode"

// DefaultSentenceTerminators lists the sentence-final marks the splitter cuts
// after: Latin, Arabic question mark and CJK full-width period.
const DefaultSentenceTerminators = ".!?؟。"

// lastParagraphBreak returns the cut point just after the rightmost paragraph
// break lying entirely inside runes[lower:upper], or -1. A paragraph break is
// two newlines separated only by spaces, tabs or carriage returns.
func lastParagraphBreak(runes []rune, lower, upper int) int {
	for i := upper - 1; i > lower; i-- {
		if runes[i] != '\n' {
			continue
		}
		j := i - 1
		for j >= lower && isInlineSpace(runes[j]) {
			j--
		}
		if j >= lower && runes[j] == '\n' {
			return i + 1
		}
	}
	return -1
}

// lastSentenceEnd returns the cut point just after the rightmost terminator
// followed by whitespace inside runes[lower:upper], or -1. The whitespace stays
// with the preceding chunk.
func lastSentenceEnd(runes []rune, lower, upper int, terminators []rune) int {
	for i := upper - 2; i >= lower; i-- {
		if isTerminator(runes[i], terminators) && unicode.IsSpace(runes[i+1]) {
			return i + 2
		}
	}
	return -1
}

func isInlineSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}

func isTerminator(r rune, terminators []rune) bool {
	for _, t := range terminators {
		if r == t {
			return true
		}
	}
	return false
}
