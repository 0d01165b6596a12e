package commands

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestGrammarPattern(t *testing.T) {
	specs := []ParameterSpec{
		{Name: "a", Required: true},
		{Name: "b", Pattern: strPtr(`\d+`)},
	}
	want := `(?is)/\w+(?:@.+?bot)?(?:\s+)?(?P<a>\S+)?(?:\s+)?(?P<b>\d+)?`
	if got := GrammarPattern(specs); got != want {
		t.Fatalf("pattern = %s, want %s", got, want)
	}

	if got := GrammarPattern(nil); got != `(?is)/\w+(?:@.+?bot)?(?:\s+)?` {
		t.Fatalf("empty pattern = %s", got)
	}
}

func TestGrammarMatch(t *testing.T) {
	g, err := Compile([]ParameterSpec{{Name: "first", Required: true}, {Name: "second"}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	args := g.Match("/cmd foo bar")
	if args.String("first") != "foo" || args.String("second") != "bar" {
		t.Fatalf("unexpected args %v", args.Names())
	}

	args = g.Match("/cmd@SomeBot foo")
	if args.String("first") != "foo" {
		t.Fatalf("expected bot suffix to be skipped, got %q", args.String("first"))
	}
	if args.Has("second") {
		t.Fatal("unmatched optional group must be absent")
	}

	if args := g.Match("no command here"); len(args) != 0 {
		t.Fatalf("expected no args without a command, got %v", args.Names())
	}
}

func TestGrammarRegexLiteralIsNullWhenUnmatched(t *testing.T) {
	g, err := Compile([]ParameterSpec{{Name: "id", Pattern: strPtr(`\d+`)}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	args := g.Match("/cmd abc")
	if !args.IsNull("id") {
		t.Fatalf("expected id to be null, got %v", args["id"])
	}

	args = g.Match("/cmd 42")
	if v, ok := args.Lookup("id"); !ok || v != "42" {
		t.Fatalf("expected id 42, got %q (%v)", v, ok)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		specs []ParameterSpec
		want  string
	}{
		{name: "bad name", specs: []ParameterSpec{{Name: "bad-name"}}, want: "invalid parameter name"},
		{name: "empty name", specs: []ParameterSpec{{Name: ""}}, want: "invalid parameter name"},
		{name: "duplicate", specs: []ParameterSpec{{Name: "x"}, {Name: "x"}}, want: "duplicate parameter name"},
		{name: "bad body", specs: []ParameterSpec{{Name: "x", Pattern: strPtr("(")}}, want: "compile argument pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.specs)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParameterSpecsUnionBoundary(t *testing.T) {
	cmd := NewFunc("x", "", nil).WithParameters(
		Inject("api", "API"),
		Param("mixed", TypeObject("API"), TypeString),
		Param("maybeObject", TypeObject("API"), TypeNull),
		Param("plain"),
		Param("count", TypeInt, TypeNull),
	)

	var names []string
	for _, s := range ParameterSpecs(cmd) {
		names = append(names, s.Name)
	}
	if got := strings.Join(names, ","); got != "mixed,plain,count" {
		t.Fatalf("unexpected slots %s", got)
	}
}

func TestParameterSpecRequiredness(t *testing.T) {
	cmd := NewFunc("x", "", nil).WithParameters(
		Param("req"),
		Param("opt").WithDefault("fallback"),
		Param("num").WithDefault(5),
		Param("rest").AsVariadic(),
		Param("code").WithPattern(`[A-Z]{3}`),
		Param("braced").WithDefault("{[a-z]+}"),
	)

	specs := ParameterSpecs(cmd)
	byName := make(map[string]ParameterSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}

	if !byName["req"].Required {
		t.Fatal("req should be required")
	}
	for _, name := range []string{"opt", "num", "rest", "code", "braced"} {
		if byName[name].Required {
			t.Fatalf("%s should be optional", name)
		}
	}
	if byName["opt"].IsRegex() || byName["num"].IsRegex() {
		t.Fatal("plain defaults must not be regex literals")
	}
	if p := byName["code"].Pattern; p == nil || *p != `[A-Z]{3}` {
		t.Fatalf("unexpected code pattern %v", p)
	}
	if p := byName["braced"].Pattern; p == nil || *p != `[a-z]+` {
		t.Fatalf("unexpected braced pattern %v", p)
	}
	if got := RequiredParameters(cmd); len(got) != 1 || got[0] != "req" {
		t.Fatalf("unexpected required list %v", got)
	}
}
