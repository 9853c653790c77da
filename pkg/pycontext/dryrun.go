package pycontext

import (
	"fmt"
	"strings"
)

var bracketPairs = [...][2]string{
	{"(", ")"},
	{"[", "]"},
	{"{", "}"},
}

// DryRun performs a cheap line-local sanity check of file. Each line is judged
// on its own: brackets must balance within the line, and the line must not end
// in a lone backslash continuation. The first failing line is reported.
// Panics raised while scanning are reported as an invalid result.
func DryRun(file string) (result DryRunResult) {
	defer func() {
		if r := recover(); r != nil {
			result = DryRunResult{Valid: false, Error: fmt.Sprint(r)}
		}
	}()

	for i, raw := range strings.Split(file, "\n") {
		line := strings.TrimSpace(raw)
		lineNo := i + 1

		if !bracketsBalanced(line) {
			return DryRunResult{
				Valid: false,
				Error: fmt.Sprintf("Syntax error: Unbalanced brackets/parentheses at line %d", lineNo),
			}
		}
		if strings.HasSuffix(line, `\`) && !strings.HasSuffix(line, `\\`) {
			return DryRunResult{
				Valid: false,
				Error: fmt.Sprintf("Syntax error: Incomplete line at line %d", lineNo),
			}
		}
	}
	return DryRunResult{Valid: true, Error: ""}
}

func bracketsBalanced(line string) bool {
	for _, pair := range bracketPairs {
		if strings.Count(line, pair[0]) != strings.Count(line, pair[1]) {
			return false
		}
	}
	return true
}
