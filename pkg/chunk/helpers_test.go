package chunk_test

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// mixedManuscript builds an Arabic-English text of exactly size runes. Every
// sentence carries its own number so no two boundaries look alike, and a
// paragraph break follows every twelfth sentence.
func mixedManuscript(size int) string {
	var sb strings.Builder
	runes := 0
	for i := 0; runes < size; i++ {
		sep := " "
		if i%12 == 11 {
			sep = "\n\n"
		}
		s := fmt.Sprintf("Sentence %d tells the story of المخطوطة رقم %d in chapter %d.%s", i, i, i/40, sep)
		sb.WriteString(s)
		runes += utf8.RuneCountInString(s)
	}
	return string([]rune(sb.String())[:size])
}
