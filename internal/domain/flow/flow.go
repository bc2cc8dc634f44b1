package flow

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUnknownLoanType     = errors.New("unknown loan type")
	ErrRejectionNotAllowed = errors.New("rejection not allowed for loan type")
)

// Config maps a loan type to its ordered approval stages. It is built once at
// startup and never mutated afterwards.
type Config map[string][]string

// Default returns the built-in flow configuration.
func Default() Config {
	return Config{
		"standard":    {"FT", "HOP", "ZONAL_HEAD", "ED"},
		"multi_stage": {"FT", "HOP", "BRANCH", "ZONAL_HEAD", "ED"},
		"flex_review": {"FT", "HOP", "FIN_INT_CTRL", "MD"},
	}
}

// Stages returns a copy of the stage list for loanType.
func (c Config) Stages(loanType string) ([]string, error) {
	stages, ok := c[loanType]
	if !ok {
		return nil, ErrUnknownLoanType
	}
	out := make([]string, len(stages))
	copy(out, stages)
	return out, nil
}

// RejectionAllowed reports whether loanType permits REJECT decisions.
// Every participant in a multi_stage flow must approve; a rejected
// multi_stage request simply stalls.
func (c Config) RejectionAllowed(loanType string) bool {
	return loanType != "multi_stage"
}

// Roles returns the distinct stage names across all flows, sorted
// case-insensitively. Used to seed the local role directory.
func (c Config) Roles() []string {
	seen := make(map[string]struct{})
	var roles []string
	for _, stages := range c {
		for _, s := range stages {
			key := strings.ToUpper(s)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			roles = append(roles, s)
		}
	}
	sort.Slice(roles, func(i, j int) bool {
		return strings.ToLower(roles[i]) < strings.ToLower(roles[j])
	})
	return roles
}
