package patterns

import (
	"errors"
	"regexp/syntax"
	"testing"
)

func TestDefaultCatalogOrder(t *testing.T) {
	cat := Default()

	secrets, dangerous := cat.Size()
	if secrets != 4 {
		t.Fatalf("expected 4 secret patterns, got %d", secrets)
	}
	if dangerous != 5 {
		t.Fatalf("expected 5 dangerous patterns, got %d", dangerous)
	}

	want := []string{"eval()", "dangerouslySetInnerHTML", "innerHTML", "document.write", "new Function()"}
	for i, d := range cat.Dangerous() {
		if d.Name != want[i] {
			t.Fatalf("dangerous[%d] = %q, want %q", i, d.Name, want[i])
		}
	}
}

func TestSecretPatterns(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		pattern int
		match   bool
	}{
		{name: "api key double quotes", input: `const apiKey = "abc123";`, pattern: 0, match: true},
		{name: "api_key colon backtick", input: "api_key: `xyz`", pattern: 0, match: true},
		{name: "api key unquoted", input: `apiKey = process.env.KEY`, pattern: 0, match: false},
		{name: "password single quotes", input: `password='hunter2'`, pattern: 1, match: true},
		{name: "PWD upper case", input: `PWD: "x"`, pattern: 1, match: true},
		{name: "token assignment", input: `token = "t"`, pattern: 2, match: true},
		{name: "empty value", input: `secret = ""`, pattern: 2, match: false},
		{name: "long identifier", input: `aaaaaaaaaaaaaaaaaaaa`, pattern: 3, match: true},
		{name: "nineteen characters", input: `aaaaaaaaaaaaaaaaaaa`, pattern: 3, match: false},
	}

	secrets := Default().Secrets()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := secrets[tt.pattern].MatchString(tt.input)
			if got != tt.match {
				t.Fatalf("pattern %d on %q: got %v, want %v", tt.pattern, tt.input, got, tt.match)
			}
		})
	}
}

func TestDangerousPatterns(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: `eval("1+1")`, want: "eval()"},
		{input: `<div dangerouslySetInnerHTML={{__html: x}} />`, want: "dangerouslySetInnerHTML"},
		{input: `div.innerHTML = userInput;`, want: "innerHTML"},
		{input: `document.write("<p>")`, want: "document.write"},
		{input: `new Function ("return 1")`, want: "new Function()"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var hits []string
			for _, d := range Default().Dangerous() {
				if d.Regex.MatchString(tt.input) {
					hits = append(hits, d.Name)
				}
			}
			if len(hits) != 1 || hits[0] != tt.want {
				t.Fatalf("expected only %q to match %q, got %v", tt.want, tt.input, hits)
			}
		})
	}
}

func TestEvalRequiresWordBoundary(t *testing.T) {
	for _, d := range Default().Dangerous() {
		if d.Name == "eval()" && d.Regex.MatchString("retrieval(x)") {
			t.Fatal("eval pattern should not match inside another identifier")
		}
	}
}

func TestCompileAppendsExtras(t *testing.T) {
	cat, err := Compile([]string{`AKIA[0-9A-Z]{16}`}, []Rule{{Name: "setTimeout(string)", Pattern: `setTimeout\s*\(\s*["']`}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	secrets, dangerous := cat.Size()
	if secrets != 5 || dangerous != 6 {
		t.Fatalf("unexpected sizes: secrets=%d dangerous=%d", secrets, dangerous)
	}

	last := cat.Dangerous()[dangerous-1]
	if last.Name != "setTimeout(string)" {
		t.Fatalf("extra rule should be appended last, got %q", last.Name)
	}

	if s, d := Default().Size(); s != 4 || d != 5 {
		t.Fatalf("compile must not mutate the default catalog (secrets=%d dangerous=%d)", s, d)
	}
}

func TestCompileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name      string
		secrets   []string
		dangerous []Rule
	}{
		{name: "bad secret syntax", secrets: []string{`(unclosed`}},
		{name: "bad dangerous syntax", dangerous: []Rule{{Name: "broken", Pattern: `[a-`}}},
		{name: "missing name", dangerous: []Rule{{Pattern: `x`}}},
		{name: "duplicate of builtin", dangerous: []Rule{{Name: "innerHTML", Pattern: `outerHTML\s*=`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.secrets, tt.dangerous)
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *PatternError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PatternError, got %T", err)
			}
		})
	}
}

func TestPatternErrorUnwrapsSyntaxError(t *testing.T) {
	_, err := Compile([]string{`(unclosed`}, nil)
	var se *syntax.Error
	if !errors.As(err, &se) {
		t.Fatalf("expected wrapped *syntax.Error, got %v", err)
	}
}
