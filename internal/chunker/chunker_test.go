package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitterValidation(t *testing.T) {
	cases := []struct {
		name     string
		maxChars int
		overlap  int
		wantErr  bool
	}{
		{"valid", 900, 150, false},
		{"zero max", 0, 10, true},
		{"zero overlap", 100, 0, true},
		{"overlap equals max", 100, 100, true},
		{"overlap exceeds max", 100, 150, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSplitter(tc.maxChars, tc.overlap)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitEmptyText(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)
	assert.Nil(t, s.Split(""))
}

func TestSplitShortText(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)
	chunks := s.Split("hello world")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitWindowOffsets(t *testing.T) {
	// 300 chars, window 100, overlap 20 -> [0,100) [80,180) [160,260) [240,300)
	text := strings.Repeat("A", 300)
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	chunks := s.Split(text)
	require.Len(t, chunks, 4)
	assert.Equal(t, text[0:100], chunks[0])
	assert.Equal(t, text[80:180], chunks[1])
	assert.Equal(t, text[160:260], chunks[2])
	assert.Equal(t, text[240:300], chunks[3])
}

func TestSplitReconstructsText(t *testing.T) {
	texts := []string{
		"The quick brown fox jumps over the lazy dog. " + strings.Repeat("Pack my box with five dozen liquor jugs. ", 40),
		strings.Repeat("x", 899),
		strings.Repeat("y", 900),
		strings.Repeat("z", 901),
	}
	s, err := NewSplitter(900, 150)
	require.NoError(t, err)

	for _, text := range texts {
		chunks := s.Split(text)
		require.NotEmpty(t, chunks)

		var sb strings.Builder
		sb.WriteString(chunks[0])
		for _, c := range chunks[1:] {
			sb.WriteString(c[150:])
		}
		assert.Equal(t, text, sb.String())
		assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
	}
}

func TestSplitCountsRunesNotBytes(t *testing.T) {
	// the leading ASCII byte puts every 100-rune boundary mid-rune in
	// byte terms, so byte slicing would tear the multi-byte characters
	text := "a" + strings.Repeat("中", 400)
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	chunks := s.Split(text)
	require.Len(t, chunks, 5)
	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d is not valid UTF-8: %q", i, c)
	}
	for _, c := range chunks[:4] {
		assert.Equal(t, 100, utf8.RuneCountInString(c))
	}
	assert.Equal(t, 81, utf8.RuneCountInString(chunks[4]))

	var sb strings.Builder
	sb.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		sb.WriteString(string([]rune(c)[20:]))
	}
	assert.Equal(t, text, sb.String())
}

func TestSplitTerminatesWithLargeOverlap(t *testing.T) {
	s, err := NewSplitter(10, 9)
	require.NoError(t, err)
	chunks := s.Split(strings.Repeat("a", 50))
	// each step advances by maxChars-overlap = 1
	assert.Len(t, chunks, 41)
}
