package chunk

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Merger reassembles independently edited chunks into one text.
//
// Editors receive overlap context they are told not to reproduce, but they
// sometimes do. At every boundary the merger looks for the longest suffix of
// the text so far, within the last matchWindow characters and longer than
// minMatch characters, that also occurs in the first matchWindow characters of
// the next chunk, and drops it from the text so far. This is a heuristic: a
// paraphrased overlap is not detected and stays duplicated.
type Merger struct {
	matchWindow int
	minMatch    int
}

// MergeOption configures a Merger.
type MergeOption func(*Merger)

func WithMatchWindow(size int) MergeOption {
	return func(m *Merger) {
		m.matchWindow = size
	}
}

func WithMinMatch(size int) MergeOption {
	return func(m *Merger) {
		m.minMatch = size
	}
}

// MergeStats describes what happened at each boundary of a merge.
type MergeStats struct {
	// Collapsed holds, per boundary, the number of duplicated characters
	// removed. Zero means the chunks were concatenated.
	Collapsed []int
	// Fallbacks is the number of boundaries where no overlap was found.
	Fallbacks int
}

func NewMerger(opts ...MergeOption) *Merger {
	m := &Merger{
		matchWindow: DefaultMatchWindow,
		minMatch:    DefaultMinMatch,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.minMatch < 0 {
		m.minMatch = 0
	}
	return m
}

// Merge joins editedTexts with the default merger. Order and completeness
// are the caller's responsibility.
func Merge(editedTexts []string) string {
	return NewMerger().Merge(editedTexts)
}

func (m *Merger) Merge(editedTexts []string) string {
	out, _ := m.MergeWithStats(editedTexts)
	return out
}

func (m *Merger) MergeWithStats(editedTexts []string) (string, MergeStats) {
	switch len(editedTexts) {
	case 0:
		return "", MergeStats{}
	case 1:
		return editedTexts[0], MergeStats{}
	}

	stats := MergeStats{Collapsed: make([]int, 0, len(editedTexts)-1)}

	var acc bytes.Buffer
	acc.WriteString(editedTexts[0])
	for _, current := range editedTexts[1:] {
		cutBytes, cutRunes := m.overlap(acc.Bytes(), current)
		if cutRunes > 0 {
			acc.Truncate(acc.Len() - cutBytes)
		} else {
			stats.Fallbacks++
			if needsSeparator(acc.Bytes(), current) {
				acc.WriteByte(' ')
			}
		}
		stats.Collapsed = append(stats.Collapsed, cutRunes)
		acc.WriteString(current)
	}

	return acc.String(), stats
}

// overlap returns the size, in bytes and runes, of the longest suffix of acc
// that is found in the leading window of current, or zeros.
func (m *Merger) overlap(acc []byte, current string) (int, int) {
	tail := string(acc[lastRunesStart(acc, m.matchWindow):])
	head := current[:firstRunesEnd(current, m.matchWindow)]

	// starts[k] is the byte offset of the k-th rune of tail
	starts := make([]int, 0, len(tail))
	for i := range tail {
		starts = append(starts, i)
	}

	for length := len(starts); length > m.minMatch; length-- {
		suffix := tail[starts[len(starts)-length]:]
		if strings.Contains(head, suffix) {
			return len(suffix), length
		}
	}
	return 0, 0
}

// needsSeparator reports whether plain concatenation would fuse the last word
// of acc with the first word of current.
func needsSeparator(acc []byte, current string) bool {
	if len(acc) == 0 || current == "" {
		return false
	}
	last, _ := utf8.DecodeLastRune(acc)
	first, _ := utf8.DecodeRuneInString(current)
	return !unicode.IsSpace(last) && !unicode.IsSpace(first)
}

// lastRunesStart returns the byte offset where the last n runes of b begin.
func lastRunesStart(b []byte, n int) int {
	i := len(b)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRune(b[:i])
		i -= size
	}
	return i
}

// firstRunesEnd returns the byte offset just after the first n runes of s.
func firstRunesEnd(s string, n int) int {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
