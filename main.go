package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/multimediallc/hunk-context/internal/app"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func ignoreError[V any, E error](res V, _ E) V {
	return res
}

var (
	WarningBuffer = bytes.NewBuffer([]byte{})
	InfoBuffer    = bytes.NewBuffer([]byte{})
)

type Flags struct {
	Token   *string
	RepoDir *string
	PR      *int
	Repo    *string
	Verbose *bool
	Quiet   *bool
}

var flags = &Flags{
	Token:   flag.String("token", getEnv("INPUT_GITHUB-TOKEN", ""), "GitHub authentication token"),
	RepoDir: flag.String("dir", getEnv("GITHUB_WORKSPACE", "/"), "Path to local Git repo"),
	PR:      flag.Int("pr", ignoreError(strconv.Atoi(getEnv("INPUT_PR", ""))), "Pull Request number"),
	Repo:    flag.String("repo", getEnv("INPUT_REPOSITORY", ""), "GitHub repo name"),
	Verbose: flag.Bool("v", ignoreError(strconv.ParseBool(getEnv("INPUT_VERBOSE", "0"))), "Verbose output"),
	Quiet:   flag.Bool("quiet", ignoreError(strconv.ParseBool(getEnv("INPUT_QUIET", "0"))), "Do not post PR comments"),
}

// shouldFail should always be true for errors that are not recoverable
func errorAndExit(shouldFail bool, format string, args ...interface{}) {
	flushBuffers()
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
	if shouldFail {
		os.Exit(1)
	} else {
		os.Exit(0)
	}
}

func flushBuffers() {
	_, err := WarningBuffer.WriteTo(os.Stderr)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error writing warning buffer: %v\n", err)
	}
	if *flags.Verbose {
		_, err := InfoBuffer.WriteTo(os.Stderr)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error writing info buffer: %v\n", err)
		}
	}
}

func initFlags(flags *Flags) error {
	flag.Parse()
	badFlags := make([]string, 0, 3)
	if *flags.Token == "" {
		badFlags = append(badFlags, "token")
	}
	if *flags.PR == 0 {
		badFlags = append(badFlags, "pr")
	}
	if *flags.Repo == "" {
		badFlags = append(badFlags, "repo")
	}
	if len(badFlags) > 0 {
		return fmt.Errorf("required flags or environment variables not set: %s", badFlags)
	}
	return nil
}

// writeOutput appends the JSON output to the file named by GITHUB_OUTPUT, if set
func writeOutput(outputData *app.OutputData) error {
	outputFile, ok := os.LookupEnv("GITHUB_OUTPUT")
	if !ok || outputFile == "" {
		return nil
	}
	jsonData, err := json.Marshal(outputData)
	if err != nil {
		return fmt.Errorf("failed to marshal output data: %w", err)
	}
	file, err := os.OpenFile(outputFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open GITHUB_OUTPUT: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	_, err = fmt.Fprintf(file, "data<<EOF\n%s\nEOF\n", jsonData)
	if err != nil {
		return fmt.Errorf("failed to write GITHUB_OUTPUT: %w", err)
	}
	return nil
}

func main() {
	if err := initFlags(flags); err != nil {
		errorAndExit(true, "%v\n", err)
	}

	cfg := app.Config{
		Token:         *flags.Token,
		RepoDir:       *flags.RepoDir,
		PR:            *flags.PR,
		Repo:          *flags.Repo,
		Verbose:       *flags.Verbose,
		Quiet:         *flags.Quiet,
		InfoBuffer:    InfoBuffer,
		WarningBuffer: WarningBuffer,
	}

	application, err := app.New(cfg)
	if err != nil {
		errorAndExit(true, "Failed to initialize app: %v\n", err)
	}

	outputData, err := application.Run(context.Background())
	if err != nil {
		errorAndExit(true, "%v\n", err)
	}

	if err := writeOutput(outputData); err != nil {
		_, _ = fmt.Fprintf(WarningBuffer, "WARNING: %v\n", err)
	}

	flushBuffers()
	fmt.Println(outputData.Message)
}
