package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileReader reads file contents relative to a repository root
type FileReader interface {
	ReadFile(path string) ([]byte, error)
	PathExists(path string) bool
}

// GitRefFileReader reads files from a specific git ref
type GitRefFileReader struct {
	ref      string
	dir      string
	executor gitCommandExecutor
}

// NewGitRefFileReader creates a new GitRefFileReader for reading files from a git ref
func NewGitRefFileReader(ref string, dir string) *GitRefFileReader {
	return &GitRefFileReader{
		ref:      ref,
		dir:      dir,
		executor: newRealGitExecutor(dir),
	}
}

// ReadFile reads a file from the git ref
func (r *GitRefFileReader) ReadFile(path string) ([]byte, error) {
	path = strings.TrimPrefix(path, "/")

	output, err := r.executor.execute("git", "show", fmt.Sprintf("%s:%s", r.ref, path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s from ref %s: %w", path, r.ref, err)
	}
	return output, nil
}

// PathExists checks if a file exists in the git ref
func (r *GitRefFileReader) PathExists(path string) bool {
	path = strings.TrimPrefix(path, "/")

	_, err := r.executor.execute("git", "cat-file", "-e", fmt.Sprintf("%s:%s", r.ref, path))
	return err == nil
}

// FilesystemReader reads files from the working tree
type FilesystemReader struct {
	dir string
}

func NewFilesystemReader(dir string) *FilesystemReader {
	return &FilesystemReader{dir: dir}
}

func (r *FilesystemReader) ReadFile(path string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(r.dir, strings.TrimPrefix(path, "/")))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return content, nil
}

func (r *FilesystemReader) PathExists(path string) bool {
	stat, err := os.Stat(filepath.Join(r.dir, strings.TrimPrefix(path, "/")))
	return err == nil && !stat.IsDir()
}
