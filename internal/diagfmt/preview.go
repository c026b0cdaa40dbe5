package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"typeguard/internal/source"
)

type editPreview struct {
	before []string
	after  []string
}

// buildEditPreview renders the lines an edit touches before and after it.
func buildEditPreview(file *source.File, span source.Span, newText string) (editPreview, error) {
	if file == nil {
		return editPreview{}, fmt.Errorf("nil file")
	}
	lenFileContent, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return editPreview{}, fmt.Errorf("len file content overflow: %w", err)
	}
	if span.End > lenFileContent || span.Start > span.End {
		return editPreview{}, fmt.Errorf("edit span %v out of range", span)
	}

	startLine := file.Position(span.Start).Line
	endLine := max(file.Position(span.End).Line, startLine)

	blockStart := lineStartOffset(file, startLine)
	blockEnd := min(max(lineEndOffsetInclusive(file, endLine), blockStart), lenFileContent)

	original := file.Content[blockStart:blockEnd]
	relStart := int(span.Start - blockStart)
	relEnd := int(span.End - blockStart)
	if relEnd > len(original) {
		return editPreview{}, fmt.Errorf("edit span end %d out of range for preview block", relEnd)
	}

	after := make([]byte, 0, len(original)+len(newText))
	after = append(after, original[:relStart]...)
	after = append(after, newText...)
	after = append(after, original[relEnd:]...)

	return editPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	// the block ends at a line break; drop it so Split does not yield a trailing ""
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

func lineStartOffset(f *source.File, line uint32) uint32 {
	if start, ok := f.LineStart(line); ok {
		return start
	}
	return f.Size()
}

func lineEndOffsetInclusive(f *source.File, line uint32) uint32 {
	if line == 0 {
		return 0
	}
	idx := line - 1
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return f.Size()
}
