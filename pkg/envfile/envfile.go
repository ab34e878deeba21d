// Package envfile builds formula evaluation environments from YAML
// definitions. Identifiers load as constants, each table becomes a
// reference function doing exact nested lookups, and Load and Parse merge
// in the stock builtin functions.
package envfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gamekitlabs/formula-engine/pkg/builtin"
	"github.com/gamekitlabs/formula-engine/pkg/formula"
)

// Definition is the YAML shape of an environment file:
//
//	identifiers:
//	  LEVEL: 35
//	tables:
//	  stat:
//	    hp: {accr: 12, base: 50}
//	tables2q:
//	  skill:
//	    fireball:
//	      dmg: {base: 120, scale: 7}
type Definition struct {
	Identifiers map[string]int32                                  `yaml:"identifiers" json:"identifiers"`
	Tables      map[string]map[string]map[string]int32            `yaml:"tables" json:"tables"`
	Tables2Q    map[string]map[string]map[string]map[string]int32 `yaml:"tables2q" json:"tables2q"`
}

// Load reads a YAML environment definition from path and builds an
// environment from it.
func Load(path string) (*formula.Env, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading environment file: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals a YAML environment definition and builds an environment
// with the stock builtin functions included.
func Parse(data []byte) (*formula.Env, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("invalid environment definition: %w", err)
	}
	env := def.Env()
	env.Functions = builtin.NewRegistry().Functions()
	return env, nil
}

// Env assembles the evaluation environment described by the definition
// alone, without the stock builtins. Callers overlaying a definition onto a
// base environment use this so the overlay only shadows what it names.
func (d *Definition) Env() *formula.Env {
	env := &formula.Env{
		Identifiers: make(map[string]formula.Identifier, len(d.Identifiers)),
		RefFuncs:    make(map[string]formula.RefFunc, len(d.Tables)),
		RefFuncs2Q:  make(map[string]formula.RefFunc2Q, len(d.Tables2Q)),
	}

	for name, value := range d.Identifiers {
		env.Identifiers[name] = formula.Const(value)
	}

	for name, table := range d.Tables {
		env.RefFuncs[name] = tableFunc(name, table)
	}
	for name, table := range d.Tables2Q {
		env.RefFuncs2Q[name] = table2QFunc(name, table)
	}

	return env
}

// tableFunc wraps a single-qualifier table in a reference function.
// Lookups use exact membership only; a missing entity or code is an error
// surfaced through the evaluator's context wrapping.
func tableFunc(name string, table map[string]map[string]int32) formula.RefFunc {
	return func(ref formula.Ref, code string) (int32, error) {
		entity, ok := table[ref.String()]
		if !ok {
			return 0, fmt.Errorf("no entry %q in table '%s'", ref.String(), name)
		}
		v, ok := entity[code]
		if !ok {
			return 0, fmt.Errorf("entry %q in table '%s' has no code %q", ref.String(), name, code)
		}
		return v, nil
	}
}

func table2QFunc(name string, table map[string]map[string]map[string]int32) formula.RefFunc2Q {
	return func(ref formula.Ref, code1, code2 string) (int32, error) {
		entity, ok := table[ref.String()]
		if !ok {
			return 0, fmt.Errorf("no entry %q in table '%s'", ref.String(), name)
		}
		group, ok := entity[code1]
		if !ok {
			return 0, fmt.Errorf("entry %q in table '%s' has no code %q", ref.String(), name, code1)
		}
		v, ok := group[code2]
		if !ok {
			return 0, fmt.Errorf("entry %q in table '%s' has no code %q.%q", ref.String(), name, code1, code2)
		}
		return v, nil
	}
}

// Merge overlays one environment onto a base, name by name and table by
// table. Overlay entries win; the base is not modified.
func Merge(base, overlay *formula.Env) *formula.Env {
	if base == nil {
		base = &formula.Env{}
	}
	if overlay == nil {
		overlay = &formula.Env{}
	}

	merged := &formula.Env{
		Identifiers: make(map[string]formula.Identifier),
		Functions:   make(map[string]formula.Func),
		RefFuncs:    make(map[string]formula.RefFunc),
		RefFuncs2Q:  make(map[string]formula.RefFunc2Q),
	}

	for name, v := range base.Identifiers {
		merged.Identifiers[name] = v
	}
	for name, v := range overlay.Identifiers {
		merged.Identifiers[name] = v
	}
	for name, v := range base.Functions {
		merged.Functions[name] = v
	}
	for name, v := range overlay.Functions {
		merged.Functions[name] = v
	}
	for name, v := range base.RefFuncs {
		merged.RefFuncs[name] = v
	}
	for name, v := range overlay.RefFuncs {
		merged.RefFuncs[name] = v
	}
	for name, v := range base.RefFuncs2Q {
		merged.RefFuncs2Q[name] = v
	}
	for name, v := range overlay.RefFuncs2Q {
		merged.RefFuncs2Q[name] = v
	}

	return merged
}
