package textsplit

import "strings"

// DefaultChunkSize is the window used for document ingestion.
const DefaultChunkSize = 1000

// Chunk splits text into fixed-size windows of at most size characters
// (runes), with no overlap. Trailing whitespace is trimmed from each window
// and empty windows are dropped, so every returned chunk is non-empty. The
// split is fully deterministic.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)

	var chunks []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimRight(string(runes[i:end]), " \t\r\n")
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
