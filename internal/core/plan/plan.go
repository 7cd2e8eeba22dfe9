// Package plan defines the test plan domain types and the trial randomizer.
package plan

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidPlan is returned when a test plan cannot be used to start a session.
var ErrInvalidPlan = errors.New("invalid test plan")

// StimulusVariant is an opaque reference to a playable media item, usually
// a file path or URI.
type StimulusVariant string

// Label returns the base name of the stimulus for display.
func (v StimulusVariant) Label() string {
	s := strings.TrimRight(string(v), "/")
	if s == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(s, "\\", "/"))
}

func (v StimulusVariant) String() string { return string(v) }

// Scene is an ordered set of variants of the same content. Index 0 holds the
// A role (reference), index 1 the B role.
type Scene []StimulusVariant

// TestPlan is the ordered list of scenes a session is built from.
type TestPlan []Scene

// Trial is one presentation unit: the pair of variants shown for a scene.
type Trial struct {
	A StimulusVariant `json:"a"`
	B StimulusVariant `json:"b"`
}

// TrialOrder is the randomized sequence of trials for one session.
type TrialOrder []Trial

// SceneLen returns the common scene length, or 0 for an empty plan.
func (p TestPlan) SceneLen() int {
	if len(p) == 0 {
		return 0
	}
	return len(p[0])
}

// Validate checks that the plan can be randomized with the given fixed
// prefix: at least one scene, every scene holds two or more variants, all
// scenes share one length and fixedPrefix is below that length.
func (p TestPlan) Validate(fixedPrefix int) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: plan has no scenes", ErrInvalidPlan)
	}

	if fixedPrefix < 0 {
		return fmt.Errorf("%w: fixed prefix must not be negative, got %d", ErrInvalidPlan, fixedPrefix)
	}

	want := p.SceneLen()
	for i, scene := range p {
		if len(scene) < 2 {
			return fmt.Errorf("%w: scene %d has %d variants, need at least 2", ErrInvalidPlan, i, len(scene))
		}
		if len(scene) != want {
			return fmt.Errorf("%w: scene %d has %d variants, expected %d", ErrInvalidPlan, i, len(scene), want)
		}
		for j, v := range scene {
			if strings.TrimSpace(string(v)) == "" {
				return fmt.Errorf("%w: scene %d variant %d is empty", ErrInvalidPlan, i, j)
			}
		}
	}

	if fixedPrefix >= want {
		return fmt.Errorf("%w: fixed prefix %d must be less than scene length %d", ErrInvalidPlan, fixedPrefix, want)
	}

	return nil
}

// Clone returns a deep copy of the plan.
func (p TestPlan) Clone() TestPlan {
	out := make(TestPlan, len(p))
	for i, scene := range p {
		out[i] = append(Scene(nil), scene...)
	}
	return out
}
