package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// File is the on-disk representation of a test plan.
//
//	fixed_prefix: 0
//	gap: clips/black_3s.yuv
//	scenes:
//	  - variants: [ref/a.yuv, proc/a_q1.yuv]
//	  - reference: ref/b.yuv
//	    glob: "proc/b_*.yuv"
type File struct {
	FixedPrefix int         `yaml:"fixed_prefix"`
	Gap         string      `yaml:"gap"`
	Scenes      []SceneSpec `yaml:"scenes"`
}

// SceneSpec describes one scene either as an explicit variant list or as a
// glob pattern. When Reference is set it is pinned to index 0 and excluded
// from the glob matches.
type SceneSpec struct {
	Name      string   `yaml:"name"`
	Reference string   `yaml:"reference"`
	Variants  []string `yaml:"variants"`
	Glob      string   `yaml:"glob"`
}

// Definition is a loaded plan with all paths resolved.
type Definition struct {
	Path        string
	Plan        TestPlan
	FixedPrefix int
	Gap         StimulusVariant
}

// Load reads and resolves a plan file. Relative paths are resolved against
// the directory that contains the file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	def, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	def.Path = path
	return def, nil
}

// Parse decodes plan YAML and resolves it against baseDir.
func Parse(data []byte, baseDir string) (*Definition, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plan file: %w", err)
	}

	if strings.TrimSpace(f.Gap) == "" {
		return nil, fmt.Errorf("%w: gap stimulus is required", ErrInvalidPlan)
	}

	def := &Definition{
		FixedPrefix: f.FixedPrefix,
		Gap:         StimulusVariant(resolve(baseDir, f.Gap)),
		Plan:        make(TestPlan, 0, len(f.Scenes)),
	}

	for i, spec := range f.Scenes {
		scene, err := spec.expand(baseDir)
		if err != nil {
			name := spec.Name
			if name == "" {
				name = fmt.Sprintf("scenes[%d]", i)
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		def.Plan = append(def.Plan, scene)
	}

	return def, nil
}

func (s SceneSpec) expand(baseDir string) (Scene, error) {
	if s.Glob != "" && len(s.Variants) > 0 {
		return nil, fmt.Errorf("%w: variants and glob are mutually exclusive", ErrInvalidPlan)
	}

	var scene Scene
	ref := ""
	if s.Reference != "" {
		ref = resolve(baseDir, s.Reference)
		scene = append(scene, StimulusVariant(ref))
	}

	if s.Glob == "" {
		for _, v := range s.Variants {
			scene = append(scene, StimulusVariant(resolve(baseDir, v)))
		}
		return scene, nil
	}

	matches, err := doublestar.FilepathGlob(resolve(baseDir, s.Glob))
	if err != nil {
		return nil, fmt.Errorf("expand glob %q: %w", s.Glob, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: glob %q matched no files", ErrInvalidPlan, s.Glob)
	}

	slices.Sort(matches)
	for _, m := range matches {
		if m == ref {
			continue
		}
		scene = append(scene, StimulusVariant(m))
	}

	return scene, nil
}

func resolve(baseDir, p string) string {
	if p == "" || baseDir == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(baseDir, p)
}
