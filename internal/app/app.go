package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/multimediallc/hunk-context/internal/config"
	"github.com/multimediallc/hunk-context/internal/git"
	gh "github.com/multimediallc/hunk-context/internal/github"
	f "github.com/multimediallc/hunk-context/pkg/functional"
)

// OutputData holds the data that will be written to GITHUB_OUTPUT
type OutputData struct {
	Files   []FileContext `json:"files"`
	Skipped []SkippedFile `json:"skipped"`
	Success bool          `json:"success"`
	Message string        `json:"message"`
}

func NewOutputData(analysis *Analysis) *OutputData {
	return &OutputData{
		Files:   analysis.Files,
		Skipped: analysis.Skipped,
		Success: false,
		Message: "",
	}
}

func (od *OutputData) UpdateOutputData(success bool, message string) {
	od.Success = success
	od.Message = message
}

// Config holds the application configuration
type Config struct {
	Token         string
	RepoDir       string
	PR            int
	Repo          string
	Verbose       bool
	Quiet         bool
	InfoBuffer    io.Writer
	WarningBuffer io.Writer
}

// App represents the application with its dependencies
type App struct {
	Conf      *config.Config
	config    *Config
	client    gh.Client
	newDiff   func(git.DiffContext) (git.Diff, error)
	newReader func(ref string, dir string) git.FileReader
}

// New creates a new App instance with the given configuration
func New(cfg Config) (*App, error) {
	repoSplit := strings.Split(cfg.Repo, "/")
	if len(repoSplit) != 2 || repoSplit[0] == "" || repoSplit[1] == "" {
		return nil, fmt.Errorf("invalid repo name: %s", cfg.Repo)
	}
	owner := repoSplit[0]
	repo := repoSplit[1]

	if cfg.InfoBuffer == nil {
		cfg.InfoBuffer = io.Discard
	}
	if cfg.WarningBuffer == nil {
		cfg.WarningBuffer = io.Discard
	}

	client := gh.NewClient(owner, repo, cfg.Token)
	client.SetInfoBuffer(cfg.InfoBuffer)
	client.SetWarningBuffer(cfg.WarningBuffer)
	app := &App{
		config:  &cfg,
		client:  client,
		newDiff: git.NewDiff,
		newReader: func(ref string, dir string) git.FileReader {
			return git.NewGitRefFileReader(ref, dir)
		},
	}

	return app, nil
}

func (a *App) printDebug(format string, args ...interface{}) {
	if a.config.Verbose {
		_, _ = fmt.Fprintf(a.config.InfoBuffer, format, args...)
	}
}

func (a *App) printWarn(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.config.WarningBuffer, format, args...)
}

func (a *App) debugWriter() io.Writer {
	if a.config.Verbose {
		return a.config.InfoBuffer
	}
	return io.Discard
}

// Run executes the application logic
func (a *App) Run(ctx context.Context) (*OutputData, error) {
	// Initialize PR
	if err := a.client.InitPR(a.config.PR); err != nil {
		return &OutputData{}, fmt.Errorf("InitPR Error: %v", err)
	}
	pr := a.client.PR()
	a.printDebug("PR: %d\n", pr.GetNumber())

	// Read config from the base ref so a PR cannot change its own settings
	baseReader := a.newReader(pr.GetBase().GetSHA(), a.config.RepoDir)
	conf, err := config.ReadConfig("", baseReader)
	if err != nil {
		a.printWarn("WARNING: Error reading %s - using default config: %v\n", config.FileName, err)
	}
	a.Conf = conf

	diffContext := git.DiffContext{
		Base:       pr.GetBase().GetSHA(),
		Head:       pr.GetHead().GetSHA(),
		Dir:        a.config.RepoDir,
		IgnoreDirs: conf.IgnoreDirs(),
	}

	a.printDebug("Getting diff for %s...%s\n", diffContext.Base, diffContext.Head)
	gitDiff, err := a.newDiff(diffContext)
	if err != nil {
		return &OutputData{}, fmt.Errorf("NewGitDiff Error: %v", err)
	}
	changes := gitDiff.AllChanges()
	a.printDebug("Changed files: %s\n", f.Map(changes, func(d git.DiffFile) string { return d.FileName }))

	headReader := a.newReader(diffContext.Head, a.config.RepoDir)
	analyzer := NewAnalyzer(conf, headReader, a.debugWriter(), a.config.WarningBuffer)
	analysis, err := analyzer.Analyze(ctx, changes)
	if err != nil {
		return &OutputData{}, fmt.Errorf("Analyze Error: %v", err)
	}
	outputData := NewOutputData(analysis)

	if a.config.Verbose {
		a.printContexts(analysis)
	}

	if err := a.postComment(analysis); err != nil {
		return outputData, err
	}

	message := fmt.Sprintf("Resolved enclosing context for %d hunk(s) in %d file(s)", analysis.ContextCount(), len(analysis.Files))
	if len(analysis.Skipped) > 0 {
		message += fmt.Sprintf(", skipped %d file(s)", len(analysis.Skipped))
	}
	outputData.UpdateOutputData(true, message)
	return outputData, nil
}

func (a *App) postComment(analysis *Analysis) error {
	if a.config.Quiet || !a.Conf.Comment.Enabled {
		a.printDebug("Commenting disabled\n")
		return nil
	}
	if analysis.ContextCount() == 0 && len(analysis.Skipped) == 0 {
		a.printDebug("Nothing to comment\n")
		return nil
	}
	comment := RenderComment(a.Conf.Comment.Header, analysis)
	found, err := a.client.IsInComments(comment, nil)
	if err != nil {
		a.printWarn("WARNING: Error checking existing comments: %v\n", err)
	}
	if found {
		a.printDebug("Comment already up to date\n")
		return nil
	}
	if err := a.client.UpsertComment(a.Conf.Comment.Header, comment); err != nil {
		return fmt.Errorf("UpsertComment Error: %v", err)
	}
	return nil
}

func (a *App) printContexts(analysis *Analysis) {
	a.printDebug("Hunk Contexts:\n")
	for _, file := range analysis.Files {
		for _, hunk := range file.Hunks {
			if hunk.Context == nil {
				a.printDebug("- %s:%s: <none>\n", file.FileName, formatRange(hunk.Hunk.Start, hunk.Hunk.End))
				continue
			}
			a.printDebug("- %s:%s: %s\n", file.FileName, formatRange(hunk.Hunk.Start, hunk.Hunk.End), hunk.Context)
		}
	}
	for _, skipped := range analysis.Skipped {
		a.printDebug("- %s: skipped (%s)\n", skipped.FileName, skipped.Reason)
	}
}
