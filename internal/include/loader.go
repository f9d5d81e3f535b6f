package include

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juev/ledger-api/internal/ast"
	"github.com/juev/ledger-api/internal/parser"
)

type Loader struct {
	limits Limits
}

func NewLoader() *Loader {
	return &Loader{limits: DefaultLimits()}
}

func (l *Loader) SetLimits(limits Limits) {
	defaults := DefaultLimits()
	if limits.MaxFileSizeBytes <= 0 {
		limits.MaxFileSizeBytes = defaults.MaxFileSizeBytes
	}
	if limits.MaxIncludeDepth <= 0 {
		limits.MaxIncludeDepth = defaults.MaxIncludeDepth
	}
	l.limits = limits
}

func (l *Loader) Limits() Limits {
	return l.limits
}

// Load reads the journal at path and every file it includes. The result is
// nil only when the root file itself cannot be read.
func (l *Loader) Load(path string) (*ResolvedJournal, []LoadError) {
	path = filepath.Clean(path)
	content, loadErr := l.readFile(path, ast.Range{})
	if loadErr != nil {
		return nil, []LoadError{*loadErr}
	}
	return l.LoadFromContent(path, content)
}

func (l *Loader) LoadFromContent(path, content string) (*ResolvedJournal, []LoadError) {
	journal, errs := l.parse(path, content)
	result := NewResolvedJournal(path, journal)

	stack := map[string]bool{path: true}
	errs = append(errs, l.expand(result, path, journal, stack, 1)...)
	return result, errs
}

func (l *Loader) expand(result *ResolvedJournal, path string, journal *ast.Journal, stack map[string]bool, depth int) []LoadError {
	var errs []LoadError

	for _, inc := range journal.Includes {
		targets, err := l.targets(path, inc)
		if err != nil {
			errs = append(errs, *err)
			continue
		}

		for _, target := range targets {
			if stack[target] {
				errs = append(errs, LoadError{
					Kind:    ErrorCycleDetected,
					Path:    path,
					Message: fmt.Sprintf("cycle detected: %s includes %s", path, target),
					Range:   inc.Range,
				})
				continue
			}
			if depth >= l.limits.MaxIncludeDepth {
				errs = append(errs, LoadError{
					Kind:    ErrorTooDeep,
					Path:    path,
					Message: fmt.Sprintf("include depth exceeds %d", l.limits.MaxIncludeDepth),
					Range:   inc.Range,
				})
				continue
			}

			content, loadErr := l.readFile(target, inc.Range)
			if loadErr != nil {
				loadErr.Path = path
				errs = append(errs, *loadErr)
				continue
			}

			sub, subErrs := l.parse(target, content)
			errs = append(errs, subErrs...)
			result.Files = append(result.Files, File{Path: target, Journal: sub})

			stack[target] = true
			errs = append(errs, l.expand(result, target, sub, stack, depth+1)...)
			delete(stack, target)
		}
	}

	return errs
}

// targets resolves an include path, expanding glob patterns in sorted order.
func (l *Loader) targets(path string, inc ast.Include) ([]string, *LoadError) {
	resolved := ResolvePath(path, inc.Path)
	if !strings.ContainsAny(resolved, "*?[") {
		return []string{resolved}, nil
	}

	matches, err := filepath.Glob(resolved)
	if err != nil || len(matches) == 0 {
		return nil, &LoadError{
			Kind:    ErrorFileNotFound,
			Path:    path,
			Message: fmt.Sprintf("no files match include pattern %s", inc.Path),
			Range:   inc.Range,
		}
	}
	sort.Strings(matches)

	targets := make([]string, 0, len(matches))
	for _, m := range matches {
		m = filepath.Clean(m)
		if m != path {
			targets = append(targets, m)
		}
	}
	return targets, nil
}

func (l *Loader) readFile(path string, at ast.Range) (string, *LoadError) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &LoadError{
			Kind:    ErrorFileNotFound,
			Path:    path,
			Message: fmt.Sprintf("cannot read file %s: %v", path, err),
			Range:   at,
		}
	}
	if info.Size() > l.limits.MaxFileSizeBytes {
		return "", &LoadError{
			Kind:    ErrorFileTooLarge,
			Path:    path,
			Message: fmt.Sprintf("file %s is %d bytes, limit is %d", path, info.Size(), l.limits.MaxFileSizeBytes),
			Range:   at,
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", &LoadError{
			Kind:    ErrorReadError,
			Path:    path,
			Message: fmt.Sprintf("cannot read file %s: %v", path, err),
			Range:   at,
		}
	}
	return string(content), nil
}

func (l *Loader) parse(path, content string) (*ast.Journal, []LoadError) {
	journal, parseErrs := parser.Parse(content)

	var errs []LoadError
	for _, e := range parseErrs {
		pos := ast.Position{
			Line:   e.Pos.Line,
			Column: e.Pos.Column,
			Offset: e.Pos.Offset,
		}
		errs = append(errs, LoadError{
			Kind:    ErrorParseError,
			Path:    path,
			Message: e.Message,
			Range:   ast.Range{Start: pos, End: pos},
		})
	}
	return journal, errs
}
