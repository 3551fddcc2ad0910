// Package intake turns uploaded manuscript files into one normalized text
// ready for chunking.
package intake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mudler/xlog"
	"github.com/shadow7/omnichunk/pkg/chunk"
	"github.com/shadow7/omnichunk/pkg/metrics"
)

var (
	ErrFileCount       = errors.New("wrong number of files")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooFewWords     = errors.New("manuscript below the minimum word count")
	ErrTooManyWords    = errors.New("manuscript above the maximum word count")
)

// EncodingMixed is reported when the files of a manuscript use different
// encodings.
const EncodingMixed = "mixed"

// Limits bounds what Merge accepts.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
	MinWords    int
	MaxWords    int
}

// DefaultLimits accepts 1 to 7 files of up to 50 MiB each, totalling 500 to
// 200,000 words.
func DefaultLimits() Limits {
	return Limits{
		MaxFiles:    7,
		MaxFileSize: 50 * 1024 * 1024,
		MinWords:    500,
		MaxWords:    200000,
	}
}

// File is one uploaded file.
type File struct {
	Name string
	Data []byte
}

// Manuscript is the merged result of an intake.
type Manuscript struct {
	Text      string   `json:"text"`
	WordCount int      `json:"word_count"`
	FileCount int      `json:"file_count"`
	Encoding  string   `json:"encoding"`
	Encodings []string `json:"encodings"`
}

// Merge extracts every file, joins them in order with a paragraph break and
// checks the result against limits.
func Merge(files []File, limits Limits) (*Manuscript, error) {
	if len(files) == 0 || len(files) > limits.MaxFiles {
		return nil, fmt.Errorf("%w: got %d, expected 1 to %d", ErrFileCount, len(files), limits.MaxFiles)
	}

	parts := make([]string, 0, len(files))
	encodings := make([]string, 0, len(files))
	for _, f := range files {
		if int64(len(f.Data)) > limits.MaxFileSize {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, f.Name, len(f.Data), limits.MaxFileSize)
		}

		text, encoding, err := Extract(f.Name, f.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		metrics.IntakeFiles.WithLabelValues(detectExtension(f.Name, f.Data), encoding).Inc()
		xlog.Debug("Extracted manuscript file", "file", f.Name, "encoding", encoding, "bytes", len(f.Data))

		parts = append(parts, NormalizeArabic(text))
		encodings = append(encodings, encoding)
	}

	text := NormalizeArabic(strings.Join(parts, "\n\n"))
	words := chunk.CountWords(text)

	if words < limits.MinWords {
		return nil, fmt.Errorf("%w: %d words, minimum is %d", ErrTooFewWords, words, limits.MinWords)
	}
	if words > limits.MaxWords {
		return nil, fmt.Errorf("%w: %d words, maximum is %d", ErrTooManyWords, words, limits.MaxWords)
	}

	encoding := encodings[0]
	for _, e := range encodings[1:] {
		if e != encoding {
			encoding = EncodingMixed
			break
		}
	}

	xlog.Info("Manuscript merged", "files", len(files), "words", words, "encoding", encoding)

	return &Manuscript{
		Text:      text,
		WordCount: words,
		FileCount: len(files),
		Encoding:  encoding,
		Encodings: encodings,
	}, nil
}
