package chunker

import "fmt"

// Splitter cuts text into fixed-size windows that overlap by a fixed
// number of characters. Sizes count runes, not bytes, so multi-byte
// text never tears mid-character. Windows are emitted verbatim, with no
// word boundary snapping, so concatenating them with the overlap
// removed reconstructs the input exactly.
type Splitter struct {
	maxChars int
	overlap  int
}

// NewSplitter validates the window policy. Overlap must be strictly
// smaller than the window size or the scan would not advance.
func NewSplitter(maxChars, overlap int) (*Splitter, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("max chars must be positive, got %d", maxChars)
	}
	if overlap <= 0 || overlap >= maxChars {
		return nil, fmt.Errorf("overlap must be in (0, %d), got %d", maxChars, overlap)
	}
	return &Splitter{maxChars: maxChars, overlap: overlap}, nil
}

// Split slides the window over text from offset 0, counting in runes.
// Each step ends at min(start+maxChars, chars); when the end reaches
// the text end the scan stops, otherwise start advances to end-overlap.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	var chunks []string
	start := 0
	for start < n {
		end := start + s.maxChars
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
		start = end - s.overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}
