package chunk

import "errors"

const (
	// DefaultMaxChunkSize is the target chunk length, in characters.
	DefaultMaxChunkSize = 75000
	// DefaultOverlapSize is how much context is carried across each boundary.
	DefaultOverlapSize = 1000
	// DefaultSearchWindow is how far either side of the ideal cut point the
	// splitter looks for a paragraph or sentence boundary.
	DefaultSearchWindow = 2000
	// DefaultMatchWindow bounds the trailing/leading text compared when merging.
	DefaultMatchWindow = 200
	// DefaultMinMatch is the longest overlap the merger still treats as noise.
	// Only matches strictly longer than this are collapsed.
	DefaultMinMatch = 50
	// DefaultTolerancePercent is the accepted word count drift for ValidateLength.
	DefaultTolerancePercent = 10
)

var (
	ErrInvalidChunkSize = errors.New("max chunk size must be greater than 0")
	ErrInvalidOverlap   = errors.New("overlap size must not be negative")
)

// Chunk is a contiguous slice of a source text.
//
// StartPosition and EndPosition are character (rune) offsets into the source,
// EndPosition exclusive. Chunks of one split partition the source: the
// EndPosition of chunk i is the StartPosition of chunk i+1, and joining every
// Text in index order gives back the source.
//
// OverlapStart and OverlapEnd are read-only context taken from the neighbouring
// chunks. They are not part of the partition and must not be re-emitted by an
// editor.
type Chunk struct {
	Text          string `json:"text"`
	Index         int    `json:"index"`
	TotalChunks   int    `json:"total_chunks"`
	StartPosition int    `json:"start_position"`
	EndPosition   int    `json:"end_position"`
	OverlapStart  string `json:"overlap_start"`
	OverlapEnd    string `json:"overlap_end"`
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int {
	return c.EndPosition - c.StartPosition
}

// Texts returns the Text of every chunk, in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
