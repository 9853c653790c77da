package pycontext

import (
	"reflect"
	"testing"
)

const classWithMethods = `class Greeter(Base):
    greeting = "hi"

    def greet(self, name):
        msg = self.greeting
        return msg + name

    def wave(self):
        pass

def standalone():
    return 1
`

func TestParseLines(t *testing.T) {
	src := "def a():\n\n\tx = 1\n    \n  y = 2\r\n"
	lines := parseLines(src)
	expected := []lineInfo{
		{Line: 1, Indent: 0, Content: "def a():"},
		{Line: 3, Indent: 1, Content: "x = 1"},
		{Line: 5, Indent: 2, Content: "y = 2"},
	}
	if !reflect.DeepEqual(lines, expected) {
		t.Errorf("expected %+v, got %+v", expected, lines)
	}
}

func TestParseLinesEmpty(t *testing.T) {
	for _, src := range []string{"", "\n\n", "   \n\t\n"} {
		if lines := parseLines(src); len(lines) != 0 {
			t.Errorf("expected no lines for %q, got %+v", src, lines)
		}
	}
}

func TestBlocks(t *testing.T) {
	blocks := Blocks(classWithMethods)
	expected := []Context{
		{Kind: KindClass, Name: "Greeter", Start: 1, End: 9},
		{Kind: KindFunction, Name: "greet", Start: 4, End: 6},
		{Kind: KindFunction, Name: "wave", Start: 8, End: 9},
		{Kind: KindFunction, Name: "standalone", Start: 11, End: 12},
	}
	if !reflect.DeepEqual(blocks, expected) {
		t.Errorf("expected %+v, got %+v", expected, blocks)
	}
}

func TestHeaderMatching(t *testing.T) {
	tt := []struct {
		content string
		kind    Kind
		name    string
		ok      bool
	}{
		{"def foo():", KindFunction, "foo", true},
		{"def  foo_bar2 (a, b):", KindFunction, "foo_bar2", true},
		{"def foo", 0, "", false},
		{"class Foo:", KindClass, "Foo", true},
		{"class Foo(Bar, metaclass=M):", KindClass, "Foo", true},
		{"class Foo(Bar)", 0, "", false},
		{"class Foo(object): pass", KindClass, "Foo", true},
		{"async def foo():", 0, "", false},
		{"x = def_foo()", 0, "", false},
		{"classify(x):", 0, "", false},
	}
	for _, tc := range tt {
		kind, name, ok := matchHeader(tc.content)
		if ok != tc.ok || kind != tc.kind || name != tc.name {
			t.Errorf("matchHeader(%q) = (%v, %q, %v), expected (%v, %q, %v)", tc.content, kind, name, ok, tc.kind, tc.name, tc.ok)
		}
	}
}

func TestFindEnclosingContext(t *testing.T) {
	tt := []struct {
		name      string
		src       string
		lineStart int
		lineEnd   int
		expected  Context
		found     bool
	}{
		{
			name:      "function body",
			src:       "def foo():\n    x = 1\n    y = 2\n",
			lineStart: 2,
			lineEnd:   3,
			expected:  Context{Kind: KindFunction, Name: "foo", Start: 1, End: 3},
			found:     true,
		},
		{
			name:      "method inside class yields widest block",
			src:       classWithMethods,
			lineStart: 5,
			lineEnd:   6,
			expected:  Context{Kind: KindClass, Name: "Greeter", Start: 1, End: 9},
			found:     true,
		},
		{
			name:      "header line only",
			src:       "def foo():\n    return 1\n",
			lineStart: 1,
			lineEnd:   1,
			expected:  Context{Kind: KindFunction, Name: "foo", Start: 1, End: 2},
			found:     true,
		},
		{
			name:      "range crosses block boundary",
			src:       classWithMethods,
			lineStart: 9,
			lineEnd:   11,
			found:     false,
		},
		{
			name:      "second top level function",
			src:       classWithMethods,
			lineStart: 12,
			lineEnd:   12,
			expected:  Context{Kind: KindFunction, Name: "standalone", Start: 11, End: 12},
			found:     true,
		},
		{
			name:      "no headers",
			src:       "x = 1\ny = 2\nprint(x + y)\n",
			lineStart: 1,
			lineEnd:   3,
			found:     false,
		},
		{
			name:      "empty file",
			src:       "",
			lineStart: 1,
			lineEnd:   1,
			found:     false,
		},
		{
			name:      "out of range",
			src:       "def foo():\n    pass\n",
			lineStart: 10,
			lineEnd:   12,
			found:     false,
		},
		{
			name:      "one line block",
			src:       "def foo(): return 1\nx = 2\n",
			lineStart: 1,
			lineEnd:   1,
			expected:  Context{Kind: KindFunction, Name: "foo", Start: 1, End: 1},
			found:     true,
		},
		{
			name:      "blank lines inside body",
			src:       "def foo():\n    a = 1\n\n\n    b = 2\nc = 3\n",
			lineStart: 3,
			lineEnd:   4,
			expected:  Context{Kind: KindFunction, Name: "foo", Start: 1, End: 5},
			found:     true,
		},
		{
			name:      "sibling blocks of equal size keep first",
			src:       "def a():\n    pass\ndef b():\n    pass\n",
			lineStart: 1,
			lineEnd:   1,
			expected:  Context{Kind: KindFunction, Name: "a", Start: 1, End: 2},
			found:     true,
		},
		{
			name:      "indented header closes at dedent",
			src:       "if True:\n    def inner():\n        x = 1\n    y = 2\n",
			lineStart: 3,
			lineEnd:   3,
			expected:  Context{Kind: KindFunction, Name: "inner", Start: 2, End: 3},
			found:     true,
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			ctx, found := FindEnclosingContext(tc.src, tc.lineStart, tc.lineEnd)
			if found != tc.found {
				t.Fatalf("expected found=%v, got %v (%+v)", tc.found, found, ctx)
			}
			if !found {
				return
			}
			if ctx != tc.expected {
				t.Errorf("expected %+v, got %+v", tc.expected, ctx)
			}
			if !ctx.Contains(tc.lineStart, tc.lineEnd) {
				t.Errorf("context %+v does not contain [%d, %d]", ctx, tc.lineStart, tc.lineEnd)
			}
		})
	}
}

func TestFindEnclosingContextMaxSpan(t *testing.T) {
	for line := 1; line <= 12; line++ {
		ctx, found := FindEnclosingContext(classWithMethods, line, line)
		for _, block := range Blocks(classWithMethods) {
			if !block.Contains(line, line) {
				continue
			}
			if !found {
				t.Fatalf("line %d: block %+v qualifies but nothing was returned", line, block)
			}
			if block.Size() > ctx.Size() {
				t.Errorf("line %d: returned %+v but wider %+v qualifies", line, ctx, block)
			}
		}
	}
}

func TestFindEnclosingContextIdempotent(t *testing.T) {
	first, ok1 := FindEnclosingContext(classWithMethods, 4, 6)
	second, ok2 := FindEnclosingContext(classWithMethods, 4, 6)
	if first != second || ok1 != ok2 {
		t.Errorf("repeated calls differ: (%+v, %v) vs (%+v, %v)", first, ok1, second, ok2)
	}
}

func TestForFile(t *testing.T) {
	tt := []struct {
		path  string
		extra []string
		ok    bool
	}{
		{"app/models.py", nil, true},
		{"stubs/models.PYI", nil, true},
		{"main.go", nil, false},
		{"Makefile", nil, false},
		{"scripts/tool.pyw", []string{"pyw"}, true},
		{"scripts/tool.pyw", []string{".pyw"}, true},
		{"scripts/tool.pyx", []string{".pyw"}, false},
	}
	for _, tc := range tt {
		_, ok := ForFile(tc.path, tc.extra...)
		if ok != tc.ok {
			t.Errorf("ForFile(%q, %v) ok=%v, expected %v", tc.path, tc.extra, ok, tc.ok)
		}
	}
}

func TestKindText(t *testing.T) {
	for _, k := range []Kind{KindFunction, KindClass} {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var parsed Kind
		if err := parsed.UnmarshalText(text); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if parsed != k {
			t.Errorf("expected %v, got %v", k, parsed)
		}
	}
	if _, err := Kind(0).MarshalText(); err == nil {
		t.Error("expected error for zero kind")
	}
	var k Kind
	if err := k.UnmarshalText([]byte("module")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
