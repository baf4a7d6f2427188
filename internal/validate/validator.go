package validate

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/BuildAppolis/env-manager-sub001/internal/crypto"
	"github.com/BuildAppolis/env-manager-sub001/internal/models"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
)

// maskedValue replaces sensitive generated values in reports.
const maskedValue = "***"

// defaultGeneratedLength is used when a crypto-generated spec carries
// no minimum length.
const defaultGeneratedLength = 32

// Validator checks one store against one requirement schema.
type Validator struct {
	logger *slog.Logger
	db     *store.EnvDatabase
	schema Schema
}

// New creates a validator bound to a store and schema.
func New(db *store.EnvDatabase, schema Schema, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		logger: logger.With(slog.String("component", "validate")),
		db:     db,
		schema: schema,
	}
}

// Validate classifies every spec'd variable as configured, missing
// (absent or empty) or invalid (pattern or minimum-length failure).
func (v *Validator) Validate() (*Result, error) {
	result := &Result{
		Missing: []string{},
		Invalid: []string{},
	}

	configured := map[string]bool{}
	for _, group := range v.schema.Groups {
		gr := GroupResult{
			Name:     group.Name,
			Required: group.Required,
			Missing:  []string{},
			Invalid:  []string{},
		}

		for _, spec := range group.Variables {
			value, present, err := v.lookup(spec.Name)
			if err != nil {
				return nil, err
			}

			switch {
			case !present, value == "":
				gr.Missing = append(gr.Missing, spec.Name)
				result.Missing = append(result.Missing, spec.Name)
			default:
				ok, err := specSatisfied(spec, value)
				if err != nil {
					return nil, err
				}
				if !ok {
					gr.Invalid = append(gr.Invalid, spec.Name)
					result.Invalid = append(result.Invalid, spec.Name)
				}
			}
		}

		gr.Configured = len(gr.Missing) == 0 && len(gr.Invalid) == 0
		configured[group.Name] = gr.Configured
		result.Groups = append(result.Groups, gr)
	}

	result.IsValid = true
	for _, gr := range result.Groups {
		if gr.Required && !gr.Configured {
			result.IsValid = false
			break
		}
	}

	result.CanStart = true
	for _, name := range v.schema.RequiredGroups {
		if !configured[name] {
			result.CanStart = false
			break
		}
	}

	v.logger.Debug("validation finished",
		slog.Bool("valid", result.IsValid),
		slog.Bool("can_start", result.CanStart),
		slog.Int("missing", len(result.Missing)),
		slog.Int("invalid", len(result.Invalid)))
	return result, nil
}

// lookup finds a variable by name, branch-unaware.
func (v *Validator) lookup(name string) (value string, present bool, err error) {
	variable, err := v.db.GetVariable(name)
	if err != nil {
		if errors.Is(err, store.ErrVariableNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return variable.Value, true, nil
}

func specSatisfied(spec VariableSpec, value string) (bool, error) {
	if spec.MinLength > 0 && len(value) < spec.MinLength {
		return false, nil
	}
	if spec.Validation != "" {
		re, err := regexp.Compile(spec.Validation)
		if err != nil {
			return false, fmt.Errorf("invalid validation pattern for %s: %w", spec.Name, err)
		}
		if !re.MatchString(value) {
			return false, nil
		}
	}
	return true, nil
}

// AutoConfigure generates a value for every missing variable that
// either carries a literal default or the crypto generate strategy, and
// persists it through the store. The report masks sensitive values.
// Missing variables with neither stay missing.
func (v *Validator) AutoConfigure() ([]ConfiguredVariable, error) {
	result, err := v.Validate()
	if err != nil {
		return nil, err
	}

	var report []ConfiguredVariable
	for _, gr := range result.Groups {
		group := v.group(gr.Name)
		for _, name := range gr.Missing {
			spec, ok := v.schema.findSpec(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
			}

			var value string
			switch {
			case spec.Default != "":
				value = spec.Default
			case spec.Generate == GenerateCrypto:
				length := spec.MinLength
				if length <= 0 {
					length = defaultGeneratedLength
				}
				value, err = crypto.GenerateToken(length)
				if err != nil {
					return nil, err
				}
			default:
				continue
			}

			_, err := v.db.SetVariable(name, value, models.Metadata{
				Category:    group.Name,
				Description: spec.Description,
				Sensitive:   spec.Sensitive,
			})
			if err != nil {
				return nil, err
			}

			reported := value
			if spec.Sensitive {
				reported = maskedValue
			}
			report = append(report, ConfiguredVariable{
				Group: gr.Name,
				Name:  name,
				Value: reported,
			})
			v.logger.Info("auto-configured variable",
				slog.String("name", name), slog.String("group", gr.Name))
		}
	}
	return report, nil
}

func (v *Validator) group(name string) Group {
	for _, g := range v.schema.Groups {
		if g.Name == name {
			return g
		}
	}
	return Group{Name: name}
}

// SetupInstructions projects validation results into an ordered list of
// human-readable steps: a single success step when the project can
// start, otherwise one step per unconfigured required group enumerating
// its missing and invalid variables with spec metadata.
func (v *Validator) SetupInstructions(result *Result) ([]Step, error) {
	if result.CanStart {
		return []Step{{Title: "All required variables are configured. Ready to start."}}, nil
	}

	var steps []Step
	for _, gr := range result.Groups {
		if !gr.Required || gr.Configured {
			continue
		}

		group := v.group(gr.Name)
		step := Step{Title: fmt.Sprintf("Configure the %q group", gr.Name)}
		if group.Description != "" {
			step.Details = append(step.Details, group.Description)
		}

		for _, name := range gr.Missing {
			line, err := v.describe(name, "missing")
			if err != nil {
				return nil, err
			}
			step.Details = append(step.Details, line)
		}
		for _, name := range gr.Invalid {
			line, err := v.describe(name, "invalid")
			if err != nil {
				return nil, err
			}
			step.Details = append(step.Details, line)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (v *Validator) describe(name, problem string) (string, error) {
	spec, ok := v.schema.findSpec(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", name, problem)
	if spec.Description != "" {
		fmt.Fprintf(&b, ": %s", spec.Description)
	}
	if spec.Type != "" {
		fmt.Fprintf(&b, " [type: %s]", spec.Type)
	}
	if spec.Example != "" {
		fmt.Fprintf(&b, " (e.g. %s)", spec.Example)
	}
	if spec.Sensitive {
		b.WriteString(" [sensitive]")
	}
	return b.String(), nil
}
