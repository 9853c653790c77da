package git

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// HunkRange is the 1-based, inclusive span of new-side lines touched by a hunk.
// A pure deletion has End < Start.
type HunkRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsDeletion reports whether the hunk removes lines without adding any.
func (h HunkRange) IsDeletion() bool {
	return h.End < h.Start
}

type DiffFile struct {
	FileName string
	Hunks    []HunkRange
}

type Diff interface {
	AllChanges() []DiffFile
	Context() DiffContext
}

type GitDiff struct {
	context  DiffContext
	diff     []*diff.FileDiff
	files    []DiffFile
	executor gitCommandExecutor
}

type DiffContext struct {
	Base       string
	Head       string
	Dir        string
	IgnoreDirs []string
}

func NewDiff(context DiffContext) (Diff, error) {
	return NewDiffWithExecutor(context, newRealGitExecutor(context.Dir))
}

func NewDiffWithExecutor(context DiffContext, executor gitCommandExecutor) (Diff, error) {
	gitDiff, err := getGitDiff(context, executor)
	if err != nil {
		return nil, err
	}
	return &GitDiff{
		context:  context,
		diff:     gitDiff,
		files:    toDiffFiles(gitDiff),
		executor: executor,
	}, nil
}

func (gd *GitDiff) AllChanges() []DiffFile {
	return gd.files
}

func (gd *GitDiff) Context() DiffContext {
	return gd.context
}

// Parse the diff output to get the file names and new-side hunk ranges
func toDiffFiles(fileDiffs []*diff.FileDiff) []DiffFile {
	diffFiles := make([]DiffFile, 0, len(fileDiffs))

	for _, d := range fileDiffs {
		if d.NewName == devNull {
			continue
		}
		newDiffFile := DiffFile{
			FileName: stripPrefix(d.NewName),
			Hunks:    make([]HunkRange, 0, len(d.Hunks)),
		}
		for _, hunk := range d.Hunks {
			newDiffFile.Hunks = append(newDiffFile.Hunks, HunkRange{
				Start: int(hunk.NewStartLine),
				End:   int(hunk.NewStartLine + hunk.NewLines - 1),
			})
		}
		diffFiles = append(diffFiles, newDiffFile)
	}
	return diffFiles
}

// stripPrefix removes the "b/" destination prefix git adds to file names
func stripPrefix(name string) string {
	if len(name) > 2 && name[1] == '/' {
		return name[2:]
	}
	return name
}

func getGitDiff(data DiffContext, executor gitCommandExecutor) ([]*diff.FileDiff, error) {
	cmdOutput, err := executor.execute("git", "diff", "-U0", fmt.Sprintf("%s...%s", data.Base, data.Head))
	if err != nil {
		return nil, fmt.Errorf("diff error: %w\n%s", err, cmdOutput)
	}
	gitDiff, err := ParseDiff(cmdOutput)
	if err != nil {
		return nil, err
	}
	gitDiff = slices.DeleteFunc(gitDiff, func(d *diff.FileDiff) bool {
		for _, dir := range data.IgnoreDirs {
			if strings.HasPrefix(stripPrefix(d.NewName), dir) {
				return true
			}
		}
		return false
	})
	return gitDiff, nil
}

// ParseDiff parses unified diff output such as `git diff` or a patch file
func ParseDiff(patch []byte) ([]*diff.FileDiff, error) {
	fileDiffs, err := diff.ParseMultiFileDiff(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}
	return fileDiffs, nil
}

// DiffFilesFromPatch parses unified diff output into changed files and hunk ranges
func DiffFilesFromPatch(patch []byte) ([]DiffFile, error) {
	fileDiffs, err := ParseDiff(patch)
	if err != nil {
		return nil, err
	}
	return toDiffFiles(fileDiffs), nil
}
