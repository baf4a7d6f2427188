package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BuildAppolis/env-manager-sub001/internal/models"
)

const (
	// defaultCategory groups variables written without a category
	defaultCategory = "general"

	sensitivePlaceholder = "your-secret-here"
	emptyPlaceholder     = "your-value-here"
)

// GenerateEnvFile renders all default-branch resolved variables as a
// .env document: one KEY=VALUE line per variable, preceded by its
// description comment, grouped under a # CATEGORY header per category.
func (db *EnvDatabase) GenerateEnvFile() (string, error) {
	return db.renderEnv(false)
}

// GenerateEnvExample renders the .env.example variant: sensitive values
// are replaced with a masking placeholder and empty values with a
// generic one, so the file is safe to commit.
func (db *EnvDatabase) GenerateEnvExample() (string, error) {
	return db.renderEnv(true)
}

func (db *EnvDatabase) renderEnv(example bool) (string, error) {
	variables, err := db.GetAllVariables(models.DefaultBranch)
	if err != nil {
		return "", err
	}

	groups := map[string][]models.Variable{}
	for _, v := range variables {
		cat := v.Category
		if cat == "" {
			cat = defaultCategory
		}
		groups[cat] = append(groups[cat], v)
	}

	categories := make([]string, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	for i, cat := range categories {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "# %s\n", strings.ToUpper(cat))

		vars := groups[cat]
		sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
		for _, v := range vars {
			if v.Description != "" {
				fmt.Fprintf(&b, "# %s\n", v.Description)
			}
			value := v.Value
			if example {
				switch {
				case v.Sensitive:
					value = sensitivePlaceholder
				case value == "":
					value = emptyPlaceholder
				}
			}
			fmt.Fprintf(&b, "%s=%s\n", v.Name, value)
		}
	}
	return b.String(), nil
}

// WriteEnvFiles regenerates .env and .env.example in dir.
func (db *EnvDatabase) WriteEnvFiles(dir string) error {
	envFile, err := db.GenerateEnvFile()
	if err != nil {
		return err
	}
	example, err := db.GenerateEnvExample()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envFile), 0o600); err != nil {
		return fmt.Errorf("failed to write .env: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env.example"), []byte(example), 0o644); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}
	return nil
}
