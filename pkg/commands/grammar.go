package commands

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	commandPrefixPattern = `(?is)/\w+(?:@.+?bot)?(?:\s+)?`
	argumentSeparator    = `(?:\s+)?`
	defaultArgumentBody  = `\S+`
)

var groupNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Grammar is the compiled argument pattern of one command.
type Grammar struct {
	specs []ParameterSpec
	re    *regexp.Regexp
}

// GrammarPattern renders the pattern source for specs without compiling it.
func GrammarPattern(specs []ParameterSpec) string {
	groups := make([]string, 0, len(specs))
	for _, s := range specs {
		body := defaultArgumentBody
		if s.Pattern != nil {
			body = *s.Pattern
		}
		groups = append(groups, fmt.Sprintf("(?P<%s>%s)?", s.Name, body))
	}
	return commandPrefixPattern + strings.Join(groups, argumentSeparator)
}

// Compile builds the grammar for specs.
func Compile(specs []ParameterSpec) (*Grammar, error) {
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if !groupNamePattern.MatchString(s.Name) {
			return nil, fmt.Errorf("invalid parameter name %q", s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	re, err := regexp.Compile(GrammarPattern(specs))
	if err != nil {
		return nil, fmt.Errorf("compile argument pattern: %w", err)
	}
	return &Grammar{specs: specs, re: re}, nil
}

// Pattern returns the regular expression source.
func (g *Grammar) Pattern() string {
	return g.re.String()
}

// Specs returns the parameter specs the grammar was built from.
func (g *Grammar) Specs() []ParameterSpec {
	return g.specs
}

// Match extracts arguments from text. Regex-literal parameters start as
// null; named groups that took part in the match overwrite the base.
func (g *Grammar) Match(text string) Arguments {
	args := make(Arguments, len(g.specs))
	for _, s := range g.specs {
		if s.IsRegex() {
			args[s.Name] = nil
		}
	}

	loc := g.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return args
	}
	for i, name := range g.re.SubexpNames() {
		if name == "" || loc[2*i] < 0 {
			continue
		}
		v := text[loc[2*i]:loc[2*i+1]]
		args[name] = &v
	}
	return args
}
