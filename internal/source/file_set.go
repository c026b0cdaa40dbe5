package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet manages versions of source files. Every Add produces a fresh FileID,
// so spans computed against an older version never resolve against newer text.
type FileSet struct {
	files []File
	index map[string]FileID // path -> latest id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and returns a new FileID.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	normalizedPath := normalizePath(path)
	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fileSet.index[normalizedPath] = id
	return id
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, flags := Normalize(content)
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds a virtual file (stdin, test, or generated) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Replace stores new content for an existing file, keeping its on-disk flags.
func (fileSet *FileSet) Replace(id FileID, content []byte) FileID {
	prev := fileSet.Get(id)
	return fileSet.Add(prev.Path, content, prev.Flags)
}

// Get returns the file metadata for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// GetLatest returns the latest file ID for the given path, if it exists.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// GetByPath возвращает последнюю версию файла по пути.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return &fileSet.files[id], true
	}
	return nil, false
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fileSet.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Len returns the number of stored file versions.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Size returns the content length as uint32.
func (f *File) Size() uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

// Position converts a byte offset to a 1-based line/column pair.
func (f *File) Position(off uint32) LineCol {
	return toLineCol(f.LineIdx, off)
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() uint32 {
	n, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return n
}

// LineStart returns the byte offset at which the 1-based line begins.
func (f *File) LineStart(line uint32) (uint32, bool) {
	if line == 0 {
		return 0, false
	}
	if line == 1 {
		return 0, true
	}
	idx := int(line) - 2
	if idx >= len(f.LineIdx) {
		return 0, false
	}
	start := f.LineIdx[idx] + 1
	if start > f.Size() {
		return 0, false
	}
	return start, true
}

// LineEnd returns the offset of the terminating '\n' (or EOF) of the 1-based line.
func (f *File) LineEnd(line uint32) uint32 {
	if line == 0 {
		return 0
	}
	if int(line)-1 < len(f.LineIdx) {
		return f.LineIdx[line-1]
	}
	return f.Size()
}

// Offset converts a 1-based line/column to a byte offset, clamping the column to the line.
func (f *File) Offset(lc LineCol) (uint32, bool) {
	start, ok := f.LineStart(lc.Line)
	if !ok {
		return 0, false
	}
	col := lc.Col
	if col == 0 {
		col = 1
	}
	off := start + col - 1
	if end := f.LineEnd(lc.Line); off > end {
		off = end
	}
	return off, true
}

// GetLine возвращает строку с заданным номером (1-based) без '\n'.
func (f *File) GetLine(lineNum uint32) string {
	start, ok := f.LineStart(lineNum)
	if !ok {
		return ""
	}
	return string(f.Content[start:f.LineEnd(lineNum)])
}

// Text returns the text covered by span.
func (f *File) Text(sp Span) string {
	if sp.End > f.Size() || sp.Start > sp.End {
		return ""
	}
	return string(f.Content[sp.Start:sp.End])
}

// Encode converts normalized content back to the file's on-disk form.
func (f *File) Encode(content []byte) []byte {
	return Denormalize(content, f.Flags)
}
