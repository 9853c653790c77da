package pycontext

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	functionRe = regexp.MustCompile(`^def\s+(\w+)\s*\(`)
	classRe    = regexp.MustCompile(`^class\s+(\w+)(\(.*\))?:`)
)

// lineInfo is a single non-blank source line. Line keeps the original 1-based
// numbering even though blank lines are dropped.
type lineInfo struct {
	Line    int
	Indent  int
	Content string
}

func parseLines(file string) []lineInfo {
	if file == "" {
		return nil
	}
	rawLines := strings.Split(file, "\n")
	lines := make([]lineInfo, 0, len(rawLines))
	for i, raw := range rawLines {
		content := strings.TrimSpace(raw)
		if content == "" {
			continue
		}
		lines = append(lines, lineInfo{
			Line:    i + 1,
			Indent:  indentOf(raw),
			Content: content,
		})
	}
	return lines
}

// indentOf counts leading whitespace characters; a tab counts as one column.
func indentOf(line string) int {
	indent := 0
	for _, r := range line {
		if !unicode.IsSpace(r) {
			break
		}
		indent++
	}
	return indent
}

func matchHeader(content string) (Kind, string, bool) {
	if m := functionRe.FindStringSubmatch(content); m != nil {
		return KindFunction, m[1], true
	}
	if m := classRe.FindStringSubmatch(content); m != nil {
		return KindClass, m[1], true
	}
	return 0, "", false
}

// blockEnd returns the line number of the last record indented deeper than the
// header at index i, stopping at the first record that dedents to the header's
// level or beyond.
func blockEnd(lines []lineInfo, i int) int {
	end := lines[i].Line
	for j := i + 1; j < len(lines); j++ {
		if lines[j].Indent <= lines[i].Indent {
			break
		}
		end = lines[j].Line
	}
	return end
}

func candidates(lines []lineInfo) []Context {
	blocks := make([]Context, 0)
	for i, li := range lines {
		kind, name, ok := matchHeader(li.Content)
		if !ok {
			continue
		}
		blocks = append(blocks, Context{
			Kind:  kind,
			Name:  name,
			Start: li.Line,
			End:   blockEnd(lines, i),
		})
	}
	return blocks
}

// Blocks returns every function and class block found in file in textual order.
func Blocks(file string) []Context {
	return candidates(parseLines(file))
}

// FindEnclosingContext returns the function or class block that contains the
// whole of [lineStart, lineEnd]. When several blocks qualify, the one with the
// widest span wins and ties go to the block found first, so a method inside a
// class yields the class. ok is false when no block qualifies.
func FindEnclosingContext(file string, lineStart, lineEnd int) (Context, bool) {
	var largest Context
	found := false
	for _, block := range Blocks(file) {
		if !block.Contains(lineStart, lineEnd) {
			continue
		}
		if !found || block.Size() > largest.Size() {
			largest = block
			found = true
		}
	}
	return largest, found
}
