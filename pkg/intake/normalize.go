package intake

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	arabicVariants = strings.NewReplacer(
		"\u06cc", "\u064a", // Farsi Yeh
		"\u06a9", "\u0643", // Keheh
		"\u0649", "\u064a", // Alef Maksura
	)

	inlineSpace    = regexp.MustCompile(`[^\S\n]+`)
	aroundNewline  = regexp.MustCompile(` ?\n ?`)
	paragraphBreak = regexp.MustCompile(`\n{3,}`)
)

// NormalizeArabic applies NFC, folds Persian letter variants onto their Arabic
// forms and tidies whitespace. Runs of spaces and tabs become one space, and
// three or more line breaks become one paragraph break; paragraph breaks
// themselves are kept so the splitter can cut on them.
func NormalizeArabic(text string) string {
	text = norm.NFC.String(text)
	text = arabicVariants.Replace(text)
	text = inlineSpace.ReplaceAllString(text, " ")
	text = aroundNewline.ReplaceAllString(text, "\n")
	text = paragraphBreak.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
