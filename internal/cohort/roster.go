// Package cohort assigns subjects to study cohorts from an injected roster.
package cohort

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"grouper/domain/trial"
	"grouper/internal/errors"
)

//go:embed default_roster.yaml
var defaultRosterYAML []byte

// Roster maps subject ids to cohorts.
type Roster struct {
	// PostTreatmentAfterBlock splits treatment subjects in face-learning
	// tasks: blocks up to and including it are pre-treatment.
	PostTreatmentAfterBlock int                   `yaml:"post_treatment_after_block"`
	Cohorts                 map[trial.Group][]int `yaml:"cohorts"`
}

// DefaultRoster returns the embedded roster.
func DefaultRoster() (*Roster, error) {
	return ParseRoster(defaultRosterYAML)
}

// LoadRoster reads a YAML roster file. An empty path loads the default.
func LoadRoster(path string) (*Roster, error) {
	if path == "" {
		return DefaultRoster()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to read roster %s", path), err)
	}
	r, err := ParseRoster(data)
	if err != nil {
		return nil, errors.Wrapf(err, "roster %s", path)
	}
	return r, nil
}

// ParseRoster decodes and validates a YAML roster.
func ParseRoster(data []byte) (*Roster, error) {
	r := &Roster{PostTreatmentAfterBlock: 5}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("invalid roster yaml: %v", err))
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks that only the three base cohorts are listed and that they
// are disjoint.
func (r *Roster) Validate() error {
	seen := make(map[int]trial.Group)
	for group, subjects := range r.Cohorts {
		switch group {
		case trial.GroupControl, trial.GroupSham, trial.GroupTreatment:
		default:
			return errors.ConfigInvalid(fmt.Sprintf("unknown cohort %q in roster", group))
		}
		for _, s := range subjects {
			if prev, ok := seen[s]; ok && prev != group {
				return errors.ConfigInvalid(fmt.Sprintf("subject %d listed in both %s and %s", s, prev, group))
			}
			seen[s] = group
		}
	}
	return nil
}

// Size returns the number of subjects on the roster.
func (r *Roster) Size() int {
	n := 0
	for _, subjects := range r.Cohorts {
		n += len(subjects)
	}
	return n
}

// Groups returns the cohorts in a stable order.
func (r *Roster) Groups() []trial.Group {
	groups := make([]trial.Group, 0, len(r.Cohorts))
	for g := range r.Cohorts {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}
