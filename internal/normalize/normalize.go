// Package normalize applies deterministic substitutions to finalized
// transcripts before they reach the parsing gateway. Rules live in a plain
// text file so common ASR script confusions can be corrected locally without
// another model round-trip.
package normalize

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const defaultIterationLimit = 30

type rule struct {
	pattern *regexp.Regexp
	replace string
}

// Engine applies an ordered set of substitution rules until the text is
// stable or the iteration limit is reached.
type Engine struct {
	rules []rule
	limit int
}

// NewEngine loads rules from path. An empty or missing path yields a no-op
// engine.
func NewEngine(path string, limit int) (*Engine, error) {
	if limit <= 0 {
		limit = defaultIterationLimit
	}
	if strings.TrimSpace(path) == "" {
		return &Engine{limit: limit}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Engine{limit: limit}, nil
		}
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	rules, err := parseRules(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}
	return &Engine{rules: rules, limit: limit}, nil
}

// Apply runs every rule in order, repeating the pass while the text keeps
// changing, up to the iteration limit.
func (e *Engine) Apply(text string) (string, error) {
	if len(e.rules) == 0 {
		return text, nil
	}

	current := text
	for i := 0; i < e.limit; i++ {
		next := current
		for _, r := range e.rules {
			next = r.pattern.ReplaceAllString(next, r.replace)
		}
		if next == current {
			return current, nil
		}
		current = next
	}
	return current, nil
}

// Rule syntax, one per line:
//
//	s/pattern/replacement/flags   regexp substitution (flags: i)
//	literal => replacement        literal substitution
//
// Blank lines and lines starting with # are ignored.
func parseRules(contents string) ([]rule, error) {
	var rules []rule
	for lineno, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parsed, err := parseRule(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno+1, err)
		}
		rules = append(rules, parsed)
	}
	return rules, nil
}

func parseRule(line string) (rule, error) {
	if strings.HasPrefix(line, "s/") {
		parts := strings.Split(line[2:], "/")
		if len(parts) < 2 || len(parts) > 3 {
			return rule{}, fmt.Errorf("malformed substitution %q", line)
		}
		expr := parts[0]
		if len(parts) == 3 && strings.Contains(parts[2], "i") {
			expr = "(?i)" + expr
		}
		pattern, err := regexp.Compile(expr)
		if err != nil {
			return rule{}, fmt.Errorf("invalid pattern in %q: %w", line, err)
		}
		return rule{pattern: pattern, replace: parts[1]}, nil
	}

	if before, after, ok := strings.Cut(line, "=>"); ok {
		literal := strings.TrimSpace(before)
		if literal == "" {
			return rule{}, fmt.Errorf("empty literal in %q", line)
		}
		return rule{
			pattern: regexp.MustCompile(regexp.QuoteMeta(literal)),
			replace: strings.TrimSpace(after),
		}, nil
	}

	return rule{}, fmt.Errorf("unrecognized rule %q", line)
}
