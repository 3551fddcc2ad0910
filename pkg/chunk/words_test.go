package chunk_test

import (
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/shadow7/omnichunk/pkg/chunk"
)

var _ = Describe("Words", func() {
	DescribeTable("CountWords",
		func(text string, expected int) {
			Expect(CountWords(text)).To(Equal(expected))
		},
		Entry("empty", "", 0),
		Entry("only whitespace", " \n\t ", 0),
		Entry("runs of whitespace", "  hello   world \n\t foo ", 3),
		Entry("arabic", "مرحبا بالعالم", 2),
		Entry("unsegmented CJK", "你好世界", 1),
		Entry("mixed", "Chapter 1: البداية\n\nOnce upon a time", 7),
	)

	Describe("ValidateLength", func() {
		original := strings.TrimSpace(strings.Repeat("word ", 10))

		It("should accept an identical text", func() {
			t := "The manuscript is exactly as it was. النص كما هو."
			r := ValidateLength(t, t, DefaultTolerancePercent)
			Expect(r.IsValid).To(BeTrue())
			Expect(r.Ratio).To(Equal(100.0))
			Expect(r.Message).To(ContainSubstring("within tolerance"))
		})

		It("should accept two empty texts", func() {
			r := ValidateLength("", "", DefaultTolerancePercent)
			Expect(r.IsValid).To(BeTrue())
			Expect(r.Ratio).To(Equal(100.0))
		})

		It("should reject an edit of an empty original without dividing by zero", func() {
			r := ValidateLength("", "word", DefaultTolerancePercent)
			Expect(r.IsValid).To(BeFalse())
			Expect(r.Ratio).To(Equal(0.0))
			Expect(math.IsNaN(r.Ratio) || math.IsInf(r.Ratio, 0)).To(BeFalse())
			Expect(r.Message).To(ContainSubstring("empty"))
		})

		It("should flag a text that is too short", func() {
			r := ValidateLength(original, strings.Repeat("word ", 8), DefaultTolerancePercent)
			Expect(r.IsValid).To(BeFalse())
			Expect(r.Ratio).To(BeNumerically("~", 80, 0.001))
			Expect(r.Message).To(ContainSubstring("too short"))
			Expect(r.Message).To(ContainSubstring("8 words edited vs 10 original"))
		})

		It("should flag a text that is too long", func() {
			r := ValidateLength(original, strings.Repeat("word ", 12), DefaultTolerancePercent)
			Expect(r.IsValid).To(BeFalse())
			Expect(r.Ratio).To(BeNumerically("~", 120, 0.001))
			Expect(r.Message).To(ContainSubstring("too long"))
		})

		It("should accept a drift at the tolerance edge", func() {
			r := ValidateLength(original, strings.Repeat("word ", 9), DefaultTolerancePercent)
			Expect(r.IsValid).To(BeTrue())
			Expect(r.OriginalWords).To(Equal(10))
			Expect(r.EditedWords).To(Equal(9))
		})

		It("should treat a negative tolerance as zero", func() {
			Expect(ValidateLength(original, original, -5).IsValid).To(BeTrue())
			Expect(ValidateLength(original, strings.Repeat("word ", 9), -5).IsValid).To(BeFalse())
		})
	})
})
