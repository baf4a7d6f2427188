package validation

import (
	"fmt"
	"regexp"
)

// NamePattern defines the accepted variable name format: the portable
// shell identifier rules (uppercase letters, digits, underscores, not
// starting with a digit).
var NamePattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// MaxNameLen bounds variable names; longer names break .env tooling
const MaxNameLen = 128

// ValidateVariableName checks that name is a portable environment
// variable identifier.
func ValidateVariableName(name string) error {
	if name == "" {
		return fmt.Errorf("variable name cannot be empty")
	}

	if len(name) > MaxNameLen {
		return fmt.Errorf("variable name must not exceed %d characters", MaxNameLen)
	}

	if !NamePattern.MatchString(name) {
		return fmt.Errorf("variable name must contain only uppercase letters, digits and underscores, and must not start with a digit")
	}

	return nil
}

// BranchPattern matches git-style branch names: path segments of word
// characters, dots and dashes separated by slashes.
var BranchPattern = regexp.MustCompile(`^[\w.-]+(/[\w.-]+)*$`)

// ValidateBranchName checks that branch is usable as a scoping tag.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}

	if !BranchPattern.MatchString(branch) {
		return fmt.Errorf("branch name contains invalid characters")
	}

	return nil
}

// ValidatePassword enforces the minimum master password requirements.
func ValidatePassword(password string) error {
	const minPasswordLen = 8

	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLen)
	}

	return nil
}
