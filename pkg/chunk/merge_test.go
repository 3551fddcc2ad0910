package chunk_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/shadow7/omnichunk/pkg/chunk"
)

var _ = Describe("Merge", func() {
	It("should return an empty string for no chunks", func() {
		Expect(Merge(nil)).To(Equal(""))
		Expect(Merge([]string{})).To(Equal(""))
	})

	It("should return a single chunk unchanged", func() {
		for _, x := range []string{"", "x", "  padded  ", "مرحبا بالعالم\n"} {
			Expect(Merge([]string{x})).To(Equal(x))
		}
	})

	It("should collapse a duplicated overlap", func() {
		acc := "It was a bright cold day in April, and the clocks were striking thirteen while the quick brown fox"
		current := "the clocks were striking thirteen while the quick brown fox jumps over the lazy dog."

		merged := Merge([]string{acc, current})
		Expect(merged).To(Equal("It was a bright cold day in April, and the clocks were striking thirteen while the quick brown fox jumps over the lazy dog."))
		Expect(strings.Count(merged, "the quick brown fox")).To(Equal(1))
	})

	It("should collapse short overlaps when configured to", func() {
		m := NewMerger(WithMinMatch(10))
		Expect(m.Merge([]string{"Look at the quick brown fox", "the quick brown fox jumps"})).
			To(Equal("Look at the quick brown fox jumps"))
	})

	It("should find the overlap anywhere in the leading window", func() {
		shared := "and so the caravan left the oasis before the sun rose over the dunes"
		acc := "Chapter one ends here.\n" + shared
		current := "Then " + shared + ", and chapter two begins."

		Expect(Merge([]string{acc, current})).To(Equal("Chapter one ends here.\nThen " + shared + ", and chapter two begins."))
	})

	It("should collapse Arabic overlaps by characters", func() {
		shared := "وفي صباح اليوم التالي خرجت القافلة من الواحة قبل شروق الشمس"
		m := NewMerger()
		merged, stats := m.MergeWithStats([]string{"نهاية الفصل الأول " + shared, shared + " وبدأ الفصل الثاني"})
		Expect(merged).To(Equal("نهاية الفصل الأول " + shared + " وبدأ الفصل الثاني"))
		Expect(stats.Collapsed).To(Equal([]int{len([]rune(shared))}))
		Expect(stats.Fallbacks).To(Equal(0))
	})

	It("should not treat a match of exactly the minimum length as overlap", func() {
		shared := strings.Repeat("z", DefaultMinMatch)
		merged := Merge([]string{"abc " + shared, shared + " tail"})
		Expect(merged).To(Equal("abc " + shared + " " + shared + " tail"))
	})

	It("should collapse a match one character longer than the minimum", func() {
		shared := strings.Repeat("z", DefaultMinMatch+1)
		merged := Merge([]string{"abc " + shared, shared + " tail"})
		Expect(merged).To(Equal("abc " + shared + " tail"))
	})

	DescribeTable("should keep words apart when concatenating",
		func(acc, current, expected string) {
			Expect(Merge([]string{acc, current})).To(Equal(expected))
		},
		Entry("no whitespace", "hello", "world", "hello world"),
		Entry("trailing newline", "hello\n", "world", "hello\nworld"),
		Entry("trailing space", "hello ", "world", "hello world"),
		Entry("leading space", "hello", " world", "hello world"),
		Entry("leading newline", "hello", "\nworld", "hello\nworld"),
		Entry("empty current", "hello", "", "hello"),
		Entry("empty accumulator", "", "world", "world"),
		Entry("trailing tab", "hello\t", "world", "hello\tworld"),
		Entry("trailing no-break space", "hello\u00a0", "world", "hello\u00a0world"),
		Entry("leading ideographic space", "hello", "\u3000world", "hello\u3000world"),
	)

	DescribeTable("should merge unedited chunks back into the source",
		func(terminator string) {
			text := strings.Repeat("a", 60) + terminator + strings.Repeat("b", 80)
			chunks, err := Split(text, 100, 10)
			Expect(err).ToNot(HaveOccurred())
			Expect(chunks).To(HaveLen(2))
			Expect(chunks[0].Text).To(HaveSuffix(terminator))
			Expect(Merge(Texts(chunks))).To(Equal(text))
		},
		Entry("period and tab", ".\t"),
		Entry("period and no-break space", ".\u00a0"),
		Entry("full-width period and ideographic space", "。\u3000"),
	)

	It("should report collapsed characters and fallbacks per boundary", func() {
		shared := "the lighthouse keeper climbed the stairs one last time that night"
		_, stats := NewMerger().MergeWithStats([]string{
			"First part. " + shared,
			shared + " Second part.",
			"Third part.",
		})
		Expect(stats.Collapsed).To(Equal([]int{len(shared), 0}))
		Expect(stats.Fallbacks).To(Equal(1))
	})

	It("should round-trip an unedited split", func() {
		text := mixedManuscript(260000)
		chunks, err := Split(text, 80000, 1000)
		Expect(err).ToNot(HaveOccurred())
		Expect(len(chunks)).To(BeNumerically(">", 1))

		merged, stats := NewMerger().MergeWithStats(Texts(chunks))
		Expect(merged).To(Equal(text))
		Expect(stats.Fallbacks).To(Equal(len(chunks) - 1))
	})
})
