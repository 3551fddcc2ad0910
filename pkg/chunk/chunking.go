package chunk

// Splitter breaks a long text into an ordered, gap-free sequence of chunks,
// biasing each cut towards a paragraph or sentence boundary near the size
// limit. A Splitter holds only configuration and is safe for concurrent use.
type Splitter struct {
	maxChunkSize      int
	overlapSize       int
	searchWindow      int
	paragraphLookback int
	terminators       []rune
}

// Option configures a Splitter.
type Option func(*Splitter)

func WithMaxChunkSize(size int) Option {
	return func(s *Splitter) {
		s.maxChunkSize = size
	}
}

func WithOverlapSize(size int) Option {
	return func(s *Splitter) {
		s.overlapSize = size
	}
}

// WithSearchWindow sets how far either side of the ideal cut point the
// splitter looks for a boundary before widening the search.
func WithSearchWindow(size int) Option {
	return func(s *Splitter) {
		s.searchWindow = size
	}
}

// WithParagraphLookback sets how far back from the ideal cut point the
// splitter is willing to go when the search window holds no boundary.
// Zero means half of the max chunk size.
func WithParagraphLookback(size int) Option {
	return func(s *Splitter) {
		s.paragraphLookback = size
	}
}

// WithSentenceTerminators replaces the set of sentence-final punctuation
// marks. Each rune of terminators counts as one mark.
func WithSentenceTerminators(terminators string) Option {
	return func(s *Splitter) {
		s.terminators = []rune(terminators)
	}
}

// NewSplitter returns a Splitter using the defaults overridden by opts.
func NewSplitter(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		maxChunkSize: DefaultMaxChunkSize,
		overlapSize:  DefaultOverlapSize,
		searchWindow: DefaultSearchWindow,
		terminators:  []rune(DefaultSentenceTerminators),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.maxChunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if s.overlapSize < 0 {
		return nil, ErrInvalidOverlap
	}
	if s.searchWindow < 0 {
		s.searchWindow = 0
	}
	if s.paragraphLookback <= 0 {
		s.paragraphLookback = s.maxChunkSize / 2
	}

	return s, nil
}

// Split splits text with the given limits. It only fails on invalid limits.
func Split(text string, maxChunkSize, overlapSize int) ([]Chunk, error) {
	s, err := NewSplitter(WithMaxChunkSize(maxChunkSize), WithOverlapSize(overlapSize))
	if err != nil {
		return nil, err
	}
	return s.Split(text), nil
}

// SplitDefault splits text using DefaultMaxChunkSize and DefaultOverlapSize.
func SplitDefault(text string) []Chunk {
	s, _ := NewSplitter()
	return s.Split(text)
}

// MaxChunkSize returns the configured target chunk size.
func (s *Splitter) MaxChunkSize() int {
	return s.maxChunkSize
}

// OverlapSize returns the configured overlap size.
func (s *Splitter) OverlapSize() int {
	return s.overlapSize
}

// Split returns the chunks of text. Sizes and offsets are counted in runes, so
// text is expected to be valid UTF-8: invalid bytes come back as U+FFFD when
// more than one chunk is produced.
//
// A text no longer than the max chunk size, including the empty string, comes
// back as a single chunk. Otherwise no chunk is longer than max chunk size plus
// overlap size.
func (s *Splitter) Split(text string) []Chunk {
	runes := []rune(text)
	n := len(runes)

	if n <= s.maxChunkSize {
		return []Chunk{{
			Text:        text,
			TotalChunks: 1,
			EndPosition: n,
		}}
	}

	chunks := make([]Chunk, 0, n/s.maxChunkSize+1)
	prevStart := 0
	for position := 0; position < n; {
		end := n
		// a remainder that fits in one chunk plus its overlap is absorbed
		// rather than left as a tiny trailing chunk
		if n-position-s.maxChunkSize > s.overlapSize {
			end = s.findSplitPoint(runes, position)
		}

		c := Chunk{
			Text:          string(runes[position:end]),
			Index:         len(chunks),
			StartPosition: position,
			EndPosition:   end,
			OverlapEnd:    string(runes[end : end+min(s.overlapSize, n-end)]),
		}
		if position > 0 {
			c.OverlapStart = string(runes[max(prevStart, position-s.overlapSize):position])
		}
		chunks = append(chunks, c)

		prevStart = position
		position = end
	}

	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}

	return chunks
}

// findSplitPoint picks the end of the chunk starting at position. The caller
// guarantees more than maxChunkSize+overlapSize runes remain.
//
// Candidates are tried in order: paragraph break near the target, sentence end
// near the target, paragraph break further back, sentence end further back,
// and finally a hard cut at the target. Within a tier the rightmost candidate
// wins.
func (s *Splitter) findSplitPoint(runes []rune, position int) int {
	target := position + s.maxChunkSize
	// offsets are added to target only up to the end of the text, so huge
	// window or overlap sizes cannot overflow
	upper := target + min(len(runes)-target, s.searchWindow, s.overlapSize)
	nearLower := max(position, target-s.searchWindow)
	farLower := max(position, target-s.paragraphLookback)

	if cut := lastParagraphBreak(runes, nearLower, upper); cut > position {
		return cut
	}
	if cut := lastSentenceEnd(runes, nearLower, upper, s.terminators); cut > position {
		return cut
	}
	if farLower < nearLower {
		if cut := lastParagraphBreak(runes, farLower, upper); cut > position {
			return cut
		}
		if cut := lastSentenceEnd(runes, farLower, upper, s.terminators); cut > position {
			return cut
		}
	}

	return target
}
