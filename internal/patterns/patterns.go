package patterns

import (
	"fmt"
	"regexp"
)

// quote matches any of the three JavaScript string delimiters.
const quote = `["'\x60]`

// Rule is a named expression as it appears in configuration.
type Rule struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// Dangerous pairs a compiled expression with the display name used in reports.
type Dangerous struct {
	Name  string
	Regex *regexp.Regexp
}

// Catalog holds the compiled secret and dangerous-API patterns. A Catalog is
// immutable once built and safe for concurrent use.
type Catalog struct {
	secrets   []*regexp.Regexp
	dangerous []Dangerous
}

// PatternError reports an expression that failed to compile.
type PatternError struct {
	Kind    string
	Name    string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid %s pattern %q (%s): %v", e.Kind, e.Name, e.Pattern, e.Err)
	}
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Kind, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

var (
	defaultSecrets = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)\s*[:=]\s*` + quote + `[^"'\x60]+` + quote),
		regexp.MustCompile(`(?i)(?:password|passwd|pwd)\s*[:=]\s*` + quote + `[^"'\x60]+` + quote),
		regexp.MustCompile(`(?i)(?:secret|token)\s*[:=]\s*` + quote + `[^"'\x60]+` + quote),
		regexp.MustCompile(`[a-zA-Z0-9_-]{20,}`),
	}

	defaultDangerous = []Dangerous{
		{Name: "eval()", Regex: regexp.MustCompile(`\beval\s*\(`)},
		{Name: "dangerouslySetInnerHTML", Regex: regexp.MustCompile(`dangerouslySetInnerHTML`)},
		{Name: "innerHTML", Regex: regexp.MustCompile(`innerHTML\s*=`)},
		{Name: "document.write", Regex: regexp.MustCompile(`document\.write`)},
		{Name: "new Function()", Regex: regexp.MustCompile(`new Function\s*\(`)},
	}
)

// Default returns the built-in catalog.
func Default() Catalog {
	return Catalog{secrets: defaultSecrets, dangerous: defaultDangerous}
}

// Compile returns the built-in catalog extended with the given expressions.
// Extra patterns are evaluated after the defaults, in the order supplied.
func Compile(extraSecrets []string, extraDangerous []Rule) (Catalog, error) {
	cat := Default()
	if len(extraSecrets) == 0 && len(extraDangerous) == 0 {
		return cat, nil
	}

	secrets := append([]*regexp.Regexp(nil), cat.secrets...)
	for _, expr := range extraSecrets {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Catalog{}, &PatternError{Kind: "secret", Pattern: expr, Err: err}
		}
		secrets = append(secrets, re)
	}

	dangerous := append([]Dangerous(nil), cat.dangerous...)
	seen := make(map[string]struct{}, len(dangerous))
	for _, d := range dangerous {
		seen[d.Name] = struct{}{}
	}
	for _, rule := range extraDangerous {
		if rule.Name == "" {
			return Catalog{}, &PatternError{Kind: "dangerous", Pattern: rule.Pattern, Err: fmt.Errorf("name is required")}
		}
		if _, dup := seen[rule.Name]; dup {
			return Catalog{}, &PatternError{Kind: "dangerous", Name: rule.Name, Pattern: rule.Pattern, Err: fmt.Errorf("duplicate name")}
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return Catalog{}, &PatternError{Kind: "dangerous", Name: rule.Name, Pattern: rule.Pattern, Err: err}
		}
		seen[rule.Name] = struct{}{}
		dangerous = append(dangerous, Dangerous{Name: rule.Name, Regex: re})
	}

	return Catalog{secrets: secrets, dangerous: dangerous}, nil
}

// Secrets returns the secret patterns in evaluation order.
func (c Catalog) Secrets() []*regexp.Regexp {
	return c.secrets
}

// Dangerous returns the dangerous-API patterns in evaluation order.
func (c Catalog) Dangerous() []Dangerous {
	return c.dangerous
}

// Size returns the number of secret and dangerous patterns.
func (c Catalog) Size() (secrets, dangerous int) {
	return len(c.secrets), len(c.dangerous)
}
