package models

import "time"

// DefaultBranch is the implicit branch assigned to variables created
// without an explicit branch tag. Branch resolution falls back to it.
const DefaultBranch = "main"

// DecryptionFailedSentinel is substituted for a sensitive value whose
// ciphertext could not be decrypted (e.g. key rotated out from under it).
// It keeps one corrupted variable from making the whole listing unusable.
const DecryptionFailedSentinel = "[DECRYPTION_FAILED]"

// Variable is the atomic unit of configuration.
// At most one live Variable exists per (Name, Branch) pair.
type Variable struct {
	Name        string    `json:"name"`
	Value       string    `json:"value"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Sensitive   bool      `json:"sensitive"`
	Encrypted   bool      `json:"encrypted"`
	Branch      string    `json:"branch,omitempty"`
	Environment string    `json:"environment,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EffectiveBranch returns the branch the variable lives on,
// treating an empty tag as the default branch.
func (v Variable) EffectiveBranch() string {
	if v.Branch == "" {
		return DefaultBranch
	}
	return v.Branch
}

// Metadata carries the caller-supplied attributes of a variable write.
// Zero values mean "plain variable on the default branch".
type Metadata struct {
	Category    string
	Description string
	Sensitive   bool
	Branch      string
	Environment string
}
