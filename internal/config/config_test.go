package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func boolPtr(b bool) *bool {
	return &b
}

type mockConfigFileReader struct {
	files map[string]string
}

func (m *mockConfigFileReader) ReadFile(path string) ([]byte, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return []byte(content), nil
}

func (m *mockConfigFileReader) PathExists(path string) bool {
	_, ok := m.files[path]
	return ok
}

func TestReadConfig(t *testing.T) {
	tt := []struct {
		name          string
		configContent string
		path          string
		expected      *Config
		expectedErr   bool
	}{
		{
			name: "default config when no file exists",
			path: "nonexistent",
			expected: &Config{
				Ignore:      []string{},
				Extensions:  []string{},
				MaxWorkers:  DefaultMaxWorkers,
				SkipInvalid: boolPtr(true),
				Comment:     &Comment{Enabled: true, Header: DefaultCommentHeader},
			},
		},
		{
			name: "valid config with all fields",
			configContent: `
ignore = ["vendor/", "**/migrations/*.py"]
extensions = [".pyw"]
max_workers = 8
skip_invalid = false

[comment]
enabled = false
header = "## Context"
`,
			path: "testdata",
			expected: &Config{
				Ignore:      []string{"vendor/", "**/migrations/*.py"},
				Extensions:  []string{".pyw"},
				MaxWorkers:  8,
				SkipInvalid: boolPtr(false),
				Comment:     &Comment{Enabled: false, Header: "## Context"},
			},
		},
		{
			name: "partial config with defaults",
			configContent: `
ignore = ["docs/"]
max_workers = 0
`,
			path: "testdata",
			expected: &Config{
				Ignore:      []string{"docs/"},
				Extensions:  []string{},
				MaxWorkers:  DefaultMaxWorkers,
				SkipInvalid: boolPtr(true),
				Comment:     &Comment{Enabled: true, Header: DefaultCommentHeader},
			},
		},
		{
			name: "invalid toml",
			configContent: `
ignore = ["docs/"
`,
			path:        "testdata",
			expected:    defaultConfig(),
			expectedErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), tc.path)
			if tc.configContent != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					t.Fatalf("failed to create dir: %v", err)
				}
				if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tc.configContent), 0o644); err != nil {
					t.Fatalf("failed to write config: %v", err)
				}
			}

			config, err := ReadConfig(dir, nil)
			if tc.expectedErr {
				if err == nil {
					t.Error("expected error but got none")
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(config, tc.expected) {
				t.Errorf("expected %+v, got %+v", tc.expected, config)
			}
		})
	}
}

func TestReadConfigFromReader(t *testing.T) {
	mockReader := &mockConfigFileReader{
		files: map[string]string{
			"repo/hunkcontext.toml": `
ignore = ["generated/"]

[comment]
enabled = true
header = "<!-- ctx -->"
`,
		},
	}

	config, err := ReadConfig("repo", mockReader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(config.Ignore) != 1 || config.Ignore[0] != "generated/" {
		t.Errorf("expected ignore = [generated/], got %v", config.Ignore)
	}
	if config.Comment.Header != "<!-- ctx -->" {
		t.Errorf("expected comment header <!-- ctx -->, got %s", config.Comment.Header)
	}
	if !config.ShouldSkipInvalid() {
		t.Error("expected skip_invalid to default to true")
	}
}

func TestReadConfigInvalidPattern(t *testing.T) {
	mockReader := &mockConfigFileReader{
		files: map[string]string{
			"hunkcontext.toml": `ignore = ["src/[a-"]`,
		},
	}
	config, err := ReadConfig("", mockReader)
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if config == nil {
		t.Fatal("expected config to be returned alongside the error")
	}
}

func TestIsIgnored(t *testing.T) {
	config := &Config{Ignore: []string{"vendor/", "**/migrations/*.py", "setup.py"}}
	tt := []struct {
		file     string
		expected bool
	}{
		{"vendor/lib/thing.py", true},
		{"/vendor/a.py", true},
		{"app/migrations/0001_initial.py", true},
		{"app/migrations/nested/0001.py", false},
		{"setup.py", true},
		{"app/setup.py", false},
		{"app/views.py", false},
	}
	for _, tc := range tt {
		if got := config.IsIgnored(tc.file); got != tc.expected {
			t.Errorf("IsIgnored(%q) = %v, expected %v", tc.file, got, tc.expected)
		}
	}
}

func TestIgnoreDirs(t *testing.T) {
	config := &Config{Ignore: []string{"vendor/", "**/gen/", "setup.py", "third_party/"}}
	expected := []string{"vendor/", "third_party/"}
	if got := config.IgnoreDirs(); !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}
