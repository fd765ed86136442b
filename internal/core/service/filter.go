package service

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// FieldEnv is the environment a skip rule is evaluated against.
type FieldEnv struct {
	// Type is the owning instance or cell's type tag.
	Type string `expr:"type"`
	// Name is the field name.
	Name string `expr:"name"`
	// Kind is the field value's kind, e.g. "obj" or "list_contents".
	Kind string `expr:"kind"`
}

type skipRule struct {
	source  string
	program *vm.Program
}

// FieldFilter drops fields matching any of its rules before encoding.
// A nil *FieldFilter matches nothing.
//
// Rules are boolean expressions, e.g.
//
//	name == "tmp_cache"
//	type startsWith "/mob/observer" && kind == "list_overlays"
type FieldFilter struct {
	rules []skipRule
}

// NewFieldFilter compiles rules. An empty rule list yields a filter that
// matches nothing.
func NewFieldFilter(rules []string) (*FieldFilter, error) {
	f := &FieldFilter{}
	for _, src := range rules {
		if src == "" {
			continue
		}
		program, err := expr.Compile(src, expr.Env(FieldEnv{}), expr.AsBool())
		if err != nil {
			return nil, domain.ErrConfiguration.WithDetailsf("skip rule %q", src).WithCause(err)
		}
		f.rules = append(f.rules, skipRule{source: src, program: program})
	}
	return f, nil
}

// Match returns the source of the first rule that matches the field, or
// false when none does. Rules that fail at run time are treated as not
// matching.
func (f *FieldFilter) Match(typeTag, name string, kind domain.Kind) (string, bool) {
	if f == nil || len(f.rules) == 0 {
		return "", false
	}
	env := FieldEnv{Type: typeTag, Name: name, Kind: kind.String()}
	for _, r := range f.rules {
		out, err := expr.Run(r.program, env)
		if err != nil {
			continue
		}
		if matched, ok := out.(bool); ok && matched {
			return r.source, true
		}
	}
	return "", false
}

// Len returns the number of compiled rules.
func (f *FieldFilter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rules)
}
