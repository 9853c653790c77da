package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/boyter/gocodewalker"
	"github.com/multimediallc/hunk-context/internal/app"
	"github.com/multimediallc/hunk-context/internal/config"
	"github.com/multimediallc/hunk-context/internal/git"
	f "github.com/multimediallc/hunk-context/pkg/functional"
	"github.com/multimediallc/hunk-context/pkg/pycontext"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

func stripRoot(root string, path string) string {
	if root == "." {
		return path
	}
	return strings.TrimPrefix(path, strings.TrimSuffix(root, "/")+"/")
}

var (
	infoWriter io.Writer = io.Discard
	warnWriter io.Writer = os.Stderr
)

// configureLogging routes verbose output to stderr, or to a rotating log file
// when one is given.
func configureLogging(logFile string, verbose bool) {
	if logFile != "" {
		logger := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		infoWriter = logger
		warnWriter = io.MultiWriter(os.Stderr, logger)
		return
	}
	if verbose {
		infoWriter = os.Stderr
	}
}

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   string(FormatDefault),
		Usage:   "Output format.  Allowed values are: default, one-line, and json",
	}
}

func rootFlag(repo *string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "root",
		Aliases:     []string{"r", "repo"},
		Value:       "./",
		Usage:       "Path to local Git repo",
		Destination: repo,
	}
}

func main() {
	var repo string
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "Print version",
	}
	cli.VersionPrinter = func(cCtx *cli.Context) {
		fmt.Println(cCtx.App.Version)
	}
	cliApp := &cli.App{
		Name:    "hunk-context",
		Usage:   "Find the function or class enclosing changed lines of Python sources",
		Version: "v0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Verbose output",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write verbose output to a rotating log file",
			},
		},
		Before: func(cCtx *cli.Context) error {
			configureLogging(cCtx.String("log-file"), cCtx.Bool("verbose"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:        "context",
				Aliases:     []string{"c"},
				Usage:       "Find the block enclosing a line range",
				UsageText:   "hunk-context context [options] <file|->",
				Description: "Print the widest function or class whose span contains the given line range. Use - to read the file from stdin.",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "start",
						Aliases:  []string{"s"},
						Usage:    "First line of the range (1-based)",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "end",
						Aliases: []string{"e"},
						Usage:   "Last line of the range (defaults to start)",
					},
					formatFlag(),
				},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return fmt.Errorf("exactly one target file is required")
					}
					format, err := validateFormat(cCtx.String("format"))
					if err != nil {
						return err
					}
					start := cCtx.Int("start")
					end := cCtx.Int("end")
					if end == 0 {
						end = start
					}
					return enclosingContext(os.Stdout, cCtx.Args().First(), start, end, format)
				},
			},
			{
				Name:        "dryrun",
				Aliases:     []string{"d"},
				Usage:       "Run a shallow syntax check on one or more files",
				UsageText:   "hunk-context dryrun [options] <file1> [file2]...",
				Description: "Check files for unbalanced brackets and dangling line continuations. File names can also be piped through stdin.",
				Flags:       []cli.Flag{formatFlag()},
				Action: func(cCtx *cli.Context) error {
					targets := cCtx.Args().Slice()
					if len(targets) == 0 && isStdinPiped() {
						lines, err := scanStdin()
						if err != nil {
							return err
						}
						targets = lines
					}
					if len(targets) == 0 {
						return fmt.Errorf("at least one target file is required")
					}
					format, err := validateFormat(cCtx.String("format"))
					if err != nil {
						return err
					}
					return dryRunFiles(os.Stdout, f.RemoveDuplicates(targets), format)
				},
			},
			{
				Name:        "scan",
				Aliases:     []string{"s"},
				Usage:       "Dry run every supported file in the repository",
				UsageText:   "hunk-context scan [options] [target-dir]",
				Description: "Walk the repository (honoring .gitignore and hunkcontext.toml ignores) and report files that fail the dry run. If target-dir is specified, only files under that directory are checked.",
				Flags:       []cli.Flag{rootFlag(&repo), formatFlag()},
				Action: func(cCtx *cli.Context) error {
					target := ""
					if cCtx.NArg() > 0 {
						target = cCtx.Args().First()
					}
					format, err := validateFormat(cCtx.String("format"))
					if err != nil {
						return err
					}
					return scanRepo(os.Stdout, repo, target, format)
				},
			},
			{
				Name:        "diff",
				Usage:       "Resolve enclosing contexts for every hunk of a diff",
				UsageText:   "hunk-context diff [options]",
				Description: "Diff base...head in the repository (or read a unified diff with --patch) and print the enclosing block of every changed hunk.",
				Flags: []cli.Flag{
					rootFlag(&repo),
					&cli.StringFlag{
						Name:  "base",
						Value: "main",
						Usage: "Base ref of the diff",
					},
					&cli.StringFlag{
						Name:  "head",
						Value: "HEAD",
						Usage: "Head ref of the diff",
					},
					&cli.StringFlag{
						Name:    "patch",
						Aliases: []string{"p"},
						Usage:   "Read a unified diff from this file (- for stdin) and analyze the working tree",
					},
					formatFlag(),
				},
				Action: func(cCtx *cli.Context) error {
					format, err := validateFormat(cCtx.String("format"))
					if err != nil {
						return err
					}
					return diffContexts(cCtx.Context, os.Stdout, diffOptions{
						repo:   repo,
						base:   cCtx.String("base"),
						head:   cCtx.String("head"),
						patch:  cCtx.String("patch"),
						format: format,
					})
				},
			},
		},
	}

	err := cliApp.Run(os.Args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func readTarget(target string) (string, error) {
	if target == "-" {
		return readStdin()
	}
	content, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", target, err)
	}
	return string(content), nil
}

func enclosingContext(w io.Writer, target string, start int, end int, format OutputFormat) error {
	if start < 1 || end < start {
		return fmt.Errorf("invalid line range %d-%d", start, end)
	}
	content, err := readTarget(target)
	if err != nil {
		return err
	}
	ctx, found := pycontext.FindEnclosingContext(content, start, end)
	_, _ = fmt.Fprintf(infoWriter, "%s %d-%d: found=%v\n", target, start, end, found)
	return printContext(w, ctx, found, format)
}

func dryRunFiles(w io.Writer, targets []string, format OutputFormat) error {
	entries := make([]dryRunEntry, 0, len(targets))
	invalid := 0
	for _, target := range targets {
		if target == "" {
			return fmt.Errorf("empty target file path is not allowed")
		}
		content, err := readTarget(target)
		if err != nil {
			return err
		}
		result := pycontext.DryRun(content)
		if !result.Valid {
			invalid++
		}
		entries = append(entries, dryRunEntry{File: target, DryRunResult: result})
	}
	if err := printDryRuns(w, entries, format); err != nil {
		return err
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d file(s) failed the dry run", invalid, len(targets))
	}
	return nil
}

func walkSupportedFiles(repo string, target string, conf *config.Config) ([]string, error) {
	fileListQueue := make(chan *gocodewalker.File, 100)

	walker := gocodewalker.NewFileWalker(repo, fileListQueue)
	walker.IncludeHidden = true
	walker.ExcludeDirectory = []string{".git"}

	errChan := make(chan error, 1)

	go func() {
		err := walker.Start()
		errChan <- err
		close(errChan)
	}()

	files := make([]string, 0)
	for fl := range fileListQueue {
		file := stripRoot(repo, fl.Location)
		if target != "" && !strings.HasPrefix(file, target) {
			continue
		}
		if conf.IsIgnored(file) {
			continue
		}
		if _, ok := pycontext.ForFile(file, conf.Extensions...); !ok {
			continue
		}
		files = append(files, file)
	}

	if err := <-errChan; err != nil {
		return nil, fmt.Errorf("error walking repo: %s", err)
	}
	slices.Sort(files)
	return files, nil
}

func scanRepo(w io.Writer, repo string, target string, format OutputFormat) error {
	if repoStat, err := os.Lstat(repo); err != nil || !repoStat.IsDir() {
		return fmt.Errorf("root is not a directory: %s", repo)
	}
	conf, err := config.ReadConfig(repo, nil)
	if err != nil {
		_, _ = fmt.Fprintf(warnWriter, "WARNING: Error reading %s - using default config: %v\n", config.FileName, err)
	}

	files, err := walkSupportedFiles(repo, target, conf)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(infoWriter, "Scanning %d file(s)\n", len(files))

	reader := git.NewFilesystemReader(repo)
	entries := make([]dryRunEntry, 0)
	for _, file := range files {
		content, err := reader.ReadFile(file)
		if err != nil {
			_, _ = fmt.Fprintf(warnWriter, "WARNING: %v\n", err)
			continue
		}
		if result := pycontext.DryRun(string(content)); !result.Valid {
			entries = append(entries, dryRunEntry{File: file, DryRunResult: result})
		}
	}
	if len(entries) == 0 {
		if format == FormatJSON {
			return writeJSON(w, entries)
		}
		return nil
	}
	if err := printDryRuns(w, entries, format); err != nil {
		return err
	}
	return fmt.Errorf("%d of %d file(s) failed the dry run", len(entries), len(files))
}

type diffOptions struct {
	repo   string
	base   string
	head   string
	patch  string
	format OutputFormat
}

func diffContexts(ctx context.Context, w io.Writer, opts diffOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	conf, err := config.ReadConfig(opts.repo, nil)
	if err != nil {
		_, _ = fmt.Fprintf(warnWriter, "WARNING: Error reading %s - using default config: %v\n", config.FileName, err)
	}

	var files []git.DiffFile
	var reader git.FileReader
	if opts.patch != "" {
		patch, err := readTarget(opts.patch)
		if err != nil {
			return err
		}
		files, err = git.DiffFilesFromPatch([]byte(patch))
		if err != nil {
			return err
		}
		reader = git.NewFilesystemReader(opts.repo)
	} else {
		if gitStat, err := os.Stat(filepath.Join(opts.repo, ".git")); err != nil || !gitStat.IsDir() {
			return fmt.Errorf("root is not a Git repository: %s", opts.repo)
		}
		gitDiff, err := git.NewDiff(git.DiffContext{
			Base:       opts.base,
			Head:       opts.head,
			Dir:        opts.repo,
			IgnoreDirs: conf.IgnoreDirs(),
		})
		if err != nil {
			return err
		}
		files = gitDiff.AllChanges()
		reader = git.NewGitRefFileReader(opts.head, opts.repo)
	}
	_, _ = fmt.Fprintf(infoWriter, "Analyzing %d changed file(s)\n", len(files))

	analysis, err := app.NewAnalyzer(conf, reader, infoWriter, warnWriter).Analyze(ctx, files)
	if err != nil {
		return err
	}
	return printAnalysis(w, analysis, opts.format)
}
