package include

import "github.com/juev/ledger-api/internal/ast"

type ErrorKind int

const (
	ErrorFileNotFound ErrorKind = iota
	ErrorCycleDetected
	ErrorParseError
	ErrorReadError
	ErrorFileTooLarge
	ErrorTooDeep
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorFileNotFound:
		return "file not found"
	case ErrorCycleDetected:
		return "include cycle"
	case ErrorParseError:
		return "parse error"
	case ErrorReadError:
		return "read error"
	case ErrorFileTooLarge:
		return "file too large"
	case ErrorTooDeep:
		return "include too deep"
	}
	return "unknown"
}

type LoadError struct {
	Kind    ErrorKind
	Path    string
	Message string
	Range   ast.Range
}

func (e LoadError) Error() string {
	if e.Range.Start.Line > 0 {
		return e.Path + ":" + e.Range.Start.String() + ": " + e.Message
	}
	return e.Path + ": " + e.Message
}

type Limits struct {
	MaxFileSizeBytes int64
	MaxIncludeDepth  int
}

func DefaultLimits() Limits {
	return Limits{
		MaxFileSizeBytes: 64 << 20,
		MaxIncludeDepth:  32,
	}
}

// File is one parsed source file of a resolved journal.
type File struct {
	Path    string
	Journal *ast.Journal
}

// ResolvedJournal holds the root file and every file it includes, in the
// order their contents appear once includes are expanded.
type ResolvedJournal struct {
	Path    string
	Primary *ast.Journal
	Files   []File
}

func NewResolvedJournal(path string, primary *ast.Journal) *ResolvedJournal {
	return &ResolvedJournal{
		Path:    path,
		Primary: primary,
	}
}

// Sources returns the root file followed by every included file.
func (r *ResolvedJournal) Sources() []File {
	files := make([]File, 0, len(r.Files)+1)
	files = append(files, File{Path: r.Path, Journal: r.Primary})
	return append(files, r.Files...)
}

func (r *ResolvedJournal) Paths() []string {
	paths := make([]string, 0, len(r.Files)+1)
	paths = append(paths, r.Path)
	for _, f := range r.Files {
		paths = append(paths, f.Path)
	}
	return paths
}
