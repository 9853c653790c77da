package app

import (
	"context"
	"fmt"
	"io"

	"github.com/multimediallc/hunk-context/internal/config"
	"github.com/multimediallc/hunk-context/internal/git"
	"github.com/multimediallc/hunk-context/pkg/pycontext"
	"golang.org/x/sync/errgroup"
)

// HunkContext pairs a changed line range with the block that encloses it.
// Context is nil when no function or class contains the whole hunk.
type HunkContext struct {
	Hunk    git.HunkRange      `json:"hunk"`
	Context *pycontext.Context `json:"context"`
}

type FileContext struct {
	FileName string        `json:"file"`
	Hunks    []HunkContext `json:"hunks"`
}

// SkippedFile is a changed file that could not be analyzed.
type SkippedFile struct {
	FileName string `json:"file"`
	Reason   string `json:"reason"`
}

type Analysis struct {
	Files   []FileContext `json:"files"`
	Skipped []SkippedFile `json:"skipped"`
}

// Analyzer resolves enclosing contexts for every hunk of a set of changed files.
type Analyzer struct {
	conf   *config.Config
	reader git.FileReader
	debug  io.Writer
	warn   io.Writer
}

func NewAnalyzer(conf *config.Config, reader git.FileReader, debug io.Writer, warn io.Writer) *Analyzer {
	if debug == nil {
		debug = io.Discard
	}
	if warn == nil {
		warn = io.Discard
	}
	return &Analyzer{
		conf:   conf,
		reader: reader,
		debug:  debug,
		warn:   warn,
	}
}

type fileResult struct {
	context *FileContext
	skipped *SkippedFile
}

// Analyze reads each supported, non-ignored file and attaches an enclosing
// context to each of its hunks. Files are processed concurrently, bounded by
// the configured worker count; results keep the order of files.
func (an *Analyzer) Analyze(ctx context.Context, files []git.DiffFile) (*Analysis, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(an.conf.MaxWorkers)
	for i, file := range files {
		if an.conf.IsIgnored(file.FileName) {
			_, _ = fmt.Fprintf(an.debug, "Ignoring %s\n", file.FileName)
			continue
		}
		parser, ok := pycontext.ForFile(file.FileName, an.conf.Extensions...)
		if !ok {
			_, _ = fmt.Fprintf(an.debug, "No parser for %s\n", file.FileName)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = an.analyzeFile(file, parser)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	analysis := &Analysis{
		Files:   make([]FileContext, 0, len(files)),
		Skipped: make([]SkippedFile, 0),
	}
	for _, res := range results {
		if res.context != nil {
			analysis.Files = append(analysis.Files, *res.context)
		}
		if res.skipped != nil {
			analysis.Skipped = append(analysis.Skipped, *res.skipped)
		}
	}
	return analysis, nil
}

func (an *Analyzer) analyzeFile(file git.DiffFile, parser pycontext.Parser) fileResult {
	content, err := an.reader.ReadFile(file.FileName)
	if err != nil {
		_, _ = fmt.Fprintf(an.warn, "WARNING: Unable to read %s: %v\n", file.FileName, err)
		return fileResult{skipped: &SkippedFile{FileName: file.FileName, Reason: err.Error()}}
	}
	text := string(content)

	if result := parser.DryRun(text); !result.Valid {
		_, _ = fmt.Fprintf(an.warn, "WARNING: %s failed dry run: %s\n", file.FileName, result.Error)
		if an.conf.ShouldSkipInvalid() {
			return fileResult{skipped: &SkippedFile{FileName: file.FileName, Reason: result.Error}}
		}
	}

	return fileResult{context: &FileContext{
		FileName: file.FileName,
		Hunks:    hunkContexts(text, file.Hunks, parser),
	}}
}

func hunkContexts(text string, hunks []git.HunkRange, parser pycontext.Parser) []HunkContext {
	contexts := make([]HunkContext, 0, len(hunks))
	for _, hunk := range hunks {
		if hunk.IsDeletion() {
			continue
		}
		hc := HunkContext{Hunk: hunk}
		if enclosing, ok := parser.FindEnclosingContext(text, hunk.Start, hunk.End); ok {
			hc.Context = &enclosing
		}
		contexts = append(contexts, hc)
	}
	return contexts
}

// ContextCount returns the number of hunks with an enclosing context.
func (a *Analysis) ContextCount() int {
	count := 0
	for _, file := range a.Files {
		for _, hunk := range file.Hunks {
			if hunk.Context != nil {
				count++
			}
		}
	}
	return count
}
