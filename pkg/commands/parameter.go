package commands

import (
	"fmt"
	"strings"
)

// Type is a declared parameter type.
type Type string

// Primitive parameter types. Anything created with TypeObject is a
// collaborator injected by the caller and never parsed from text.
const (
	TypeString Type = "string"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeBool   Type = "bool"
	TypeNull   Type = "null"
)

const objectTypePrefix = "object:"

// TypeObject declares a non-primitive type such as an API client or service.
func TypeObject(name string) Type {
	return Type(objectTypePrefix + name)
}

// IsPrimitive reports whether values of t can come from message text.
// Null alone is not primitive; it only widens a union.
func (t Type) IsPrimitive() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool:
		return true
	}
	return false
}

// IsObject reports whether t was declared with TypeObject.
func (t Type) IsObject() bool {
	return strings.HasPrefix(string(t), objectTypePrefix)
}

// Parameter declares one positional argument of a command.
type Parameter struct {
	Name string
	// Types is a union. Empty means string.
	Types      []Type
	Default    any
	HasDefault bool
	Variadic   bool
}

// Param declares a parameter. Without types it is a plain string.
func Param(name string, types ...Type) Parameter {
	return Parameter{Name: name, Types: types}
}

// Inject declares a parameter satisfied by a collaborator rather than text.
func Inject(name, typeName string) Parameter {
	return Parameter{Name: name, Types: []Type{TypeObject(typeName)}}
}

// WithDefault makes the parameter optional.
func (p Parameter) WithDefault(v any) Parameter {
	p.Default = v
	p.HasDefault = true
	return p
}

// WithPattern makes the parameter optional and constrains it to pattern.
// The pattern is stored as a brace-wrapped default.
func (p Parameter) WithPattern(pattern string) Parameter {
	return p.WithDefault("{" + pattern + "}")
}

// AsVariadic marks the parameter variadic, which makes it optional.
func (p Parameter) AsVariadic() Parameter {
	p.Variadic = true
	return p
}

// ParameterSpec is the grammar view of a Parameter.
type ParameterSpec struct {
	Name     string
	Required bool
	// Pattern is the group body for regex-literal parameters.
	Pattern *string
}

// IsRegex reports whether the parameter carries its own pattern.
func (s ParameterSpec) IsRegex() bool {
	return s.Pattern != nil
}

// ParameterSpecs returns the argument slots of cmd in declaration order.
func ParameterSpecs(cmd Command) []ParameterSpec {
	params := cmd.Parameters()
	specs := make([]ParameterSpec, 0, len(params))
	for _, p := range params {
		if !parsesFromText(p) {
			continue
		}
		specs = append(specs, specFor(p))
	}
	return specs
}

// RequiredParameters returns the names of required slots of cmd.
func RequiredParameters(cmd Command) []string {
	var names []string
	for _, s := range ParameterSpecs(cmd) {
		if s.Required {
			names = append(names, s.Name)
		}
	}
	return names
}

// parsesFromText excludes a parameter only when every declared type is
// non-primitive.
func parsesFromText(p Parameter) bool {
	if len(p.Types) == 0 {
		return true
	}
	for _, t := range p.Types {
		if t.IsPrimitive() {
			return true
		}
	}
	return false
}

func specFor(p Parameter) ParameterSpec {
	spec := ParameterSpec{
		Name:     p.Name,
		Required: !p.HasDefault && !p.Variadic,
	}
	if body, ok := regexLiteral(p); ok {
		spec.Pattern = &body
	}
	return spec
}

func regexLiteral(p Parameter) (string, bool) {
	if !p.HasDefault || p.Default == nil {
		return "", false
	}
	s := fmt.Sprint(p.Default)
	if len(s) < 2 || !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return "", false
	}
	return s[1 : len(s)-1], true
}
