// Package validate checks a project's variable store against a
// declarative requirement schema and can auto-populate missing
// variables with generated defaults.
package validate

import "errors"

// ErrUnknownVariable indicates setup-instruction generation referenced
// a variable name with no matching spec. That is a schema/data mismatch
// and fails loudly instead of being skipped.
var ErrUnknownVariable = errors.New("unknown variable in schema")

// GenerateCrypto asks AutoConfigure to produce a cryptographically
// random value instead of a literal default.
const GenerateCrypto = "crypto"

// VariableSpec describes one required variable inside a group.
type VariableSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Example     string `json:"example,omitempty"`
	Type        string `json:"type,omitempty"`
	Validation  string `json:"validation,omitempty"`
	MinLength   int    `json:"minLength,omitempty"`
	Default     string `json:"default,omitempty"`
	Generate    string `json:"generate,omitempty"`
	Sensitive   bool   `json:"sensitive,omitempty"`
}

// Group is a named set of variable requirements. Required marks the
// group as a hard requirement for overall validity; whether it also
// gates startup is decided separately by Schema.RequiredGroups.
type Group struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required"`
	Variables   []VariableSpec `json:"variables"`
}

// Schema is the project-supplied requirement structure. It is data,
// not code: the surrounding tooling may load it from a file, the
// validator only needs the resolved form.
//
// RequiredGroups is the startup gate: CanStart demands every group
// named here to be configured. A required group absent from this list
// can fail validation without blocking startup; the layering of hard
// requirement vs. startup gate is intentional.
type Schema struct {
	Groups         []Group  `json:"groups"`
	RequiredGroups []string `json:"requiredGroups"`
}

// findSpec locates a variable spec by name across all groups.
func (s Schema) findSpec(name string) (VariableSpec, bool) {
	for _, g := range s.Groups {
		for _, spec := range g.Variables {
			if spec.Name == name {
				return spec, true
			}
		}
	}
	return VariableSpec{}, false
}

// GroupResult is the per-group validation outcome.
type GroupResult struct {
	Name       string   `json:"name"`
	Required   bool     `json:"required"`
	Configured bool     `json:"configured"`
	Missing    []string `json:"missing"`
	Invalid    []string `json:"invalid"`
}

// Result is the overall validation outcome. IsValid is false when any
// required group is not configured; CanStart additionally requires
// every group listed in the schema's RequiredGroups to be configured.
type Result struct {
	Groups   []GroupResult `json:"groups"`
	Missing  []string      `json:"missing"`
	Invalid  []string      `json:"invalid"`
	IsValid  bool          `json:"isValid"`
	CanStart bool          `json:"canStart"`
}

// ConfiguredVariable reports one variable AutoConfigure generated.
// Values of sensitive variables are masked.
type ConfiguredVariable struct {
	Group string `json:"group"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Step is one human-readable setup instruction.
type Step struct {
	Title   string   `json:"title"`
	Details []string `json:"details,omitempty"`
}
