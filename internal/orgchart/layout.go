package orgchart

import "strings"

// Node glyph geometry. Text rows are centered vertically inside the glyph.
const (
	NodeWidth  = 180
	NodeHeight = 100

	rowSpacing  = 20
	wordsPerRow = 3
	maxRows     = 3
	maxWords    = wordsPerRow * maxRows

	// Ellipsis marks a truncated display name.
	Ellipsis = "..."
)

// TextChunk is one rendered row of a node label.
type TextChunk struct {
	Dy   int    `json:"dy"` // vertical offset from the glyph center
	Text string `json:"text"`
}

// RowOffset returns the vertical offset of the given text row. Offsets grow
// monotonically with the row index; row 0 sits at -30 for the standard
// glyph height.
func RowOffset(row int) int {
	return row*rowSpacing - NodeHeight/2 + rowSpacing
}

// ChunkDisplayName splits a space-separated display name into at most three
// rows of at most three words each. Names longer than nine words are
// truncated, with the ninth retained word suffixed by an ellipsis.
func ChunkDisplayName(name string) []TextChunk {
	words := strings.Fields(name)
	if len(words) == 0 {
		return nil
	}

	if len(words) > maxWords {
		words = words[:maxWords]
		words[maxWords-1] += Ellipsis
	}

	var chunks []TextChunk
	for row := 0; row*wordsPerRow < len(words); row++ {
		start := row * wordsPerRow
		end := start + wordsPerRow
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, TextChunk{
			Dy:   RowOffset(row),
			Text: strings.Join(words[start:end], " "),
		})
	}
	return chunks
}
