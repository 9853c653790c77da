package app

import (
	"fmt"
	"strings"
)

func formatRange(start, end int) string {
	if start == end {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

// RenderComment builds the markdown PR comment for an analysis. The comment
// starts with header so later runs can find and update it.
func RenderComment(header string, analysis *Analysis) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n### Enclosing context for changed hunks\n\n")

	if analysis.ContextCount() == 0 {
		sb.WriteString("No changed hunk is enclosed by a function or class.\n")
	} else {
		sb.WriteString("| File | Changed lines | Enclosing block |\n")
		sb.WriteString("| --- | --- | --- |\n")
		for _, file := range analysis.Files {
			for _, hunk := range file.Hunks {
				if hunk.Context == nil {
					continue
				}
				fmt.Fprintf(&sb, "| `%s` | %s | %s `%s` (lines %s) |\n",
					file.FileName,
					formatRange(hunk.Hunk.Start, hunk.Hunk.End),
					hunk.Context.Kind,
					hunk.Context.Name,
					formatRange(hunk.Context.Start, hunk.Context.End),
				)
			}
		}
	}

	if len(analysis.Skipped) > 0 {
		sb.WriteString("\n**Skipped files**\n")
		for _, skipped := range analysis.Skipped {
			fmt.Fprintf(&sb, "- `%s`: %s\n", skipped.FileName, skipped.Reason)
		}
	}
	return sb.String()
}
