package pycontext

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies the type of definition that encloses a line range.
type Kind int

const (
	KindFunction Kind = iota + 1
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindFunction, KindClass:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("invalid kind %d", int(k))
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "function":
		*k = KindFunction
	case "class":
		*k = KindClass
	default:
		return fmt.Errorf("invalid kind %q", text)
	}
	return nil
}

// Context is a function or class block and the 1-based, inclusive line span the
// indentation heuristic attributes to it.
type Context struct {
	Kind  Kind   `json:"type"`
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Contains reports whether the block spans the whole of [lineStart, lineEnd].
func (c Context) Contains(lineStart, lineEnd int) bool {
	return c.Start <= lineStart && c.End >= lineEnd
}

func (c Context) Size() int {
	return c.End - c.Start
}

func (c Context) String() string {
	return fmt.Sprintf("%s %s (lines %d-%d)", c.Kind, c.Name, c.Start, c.End)
}

// DryRunResult is the verdict of a shallow structural check. Error is empty
// when Valid is true.
type DryRunResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

// Parser locates enclosing definitions and pre-checks files for a single language.
type Parser interface {
	FindEnclosingContext(file string, lineStart, lineEnd int) (Context, bool)
	DryRun(file string) DryRunResult
}

// PythonParser implements Parser with the package level heuristics.
type PythonParser struct{}

func (PythonParser) FindEnclosingContext(file string, lineStart, lineEnd int) (Context, bool) {
	return FindEnclosingContext(file, lineStart, lineEnd)
}

func (PythonParser) DryRun(file string) DryRunResult {
	return DryRun(file)
}

var defaultExtensions = map[string]Parser{
	".py":  PythonParser{},
	".pyi": PythonParser{},
}

// ForFile returns the parser registered for the extension of path. Extra
// extensions (with or without the leading dot) are treated as Python sources.
func ForFile(path string, extraExtensions ...string) (Parser, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, false
	}
	if p, ok := defaultExtensions[ext]; ok {
		return p, true
	}
	for _, extra := range extraExtensions {
		extra = strings.ToLower(strings.TrimSpace(extra))
		if !strings.HasPrefix(extra, ".") {
			extra = "." + extra
		}
		if extra == ext {
			return PythonParser{}, true
		}
	}
	return nil, false
}
