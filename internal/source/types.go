package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual marks files that were not read from disk (macro output, stdin, tests).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single source file.
// Files are never mutated after being added to a FileSet, so *File handles
// are shared freely between queued tasks.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n' bytes
	Hash    uint64   // xxh3 of Content
	Flags   FileFlags
}

// IsVirtual reports whether the file has no backing path on disk.
func (f *File) IsVirtual() bool {
	return f.Flags&FileVirtual != 0
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
