// Package manifest is the declarative front-end: operations and their
// specializations are described in YAML and bound to Go bodies, predicates
// and errors through a Registry.
//
// A manifest looks like:
//
//	operations:
//	  - name: add
//	    specializations:
//	      - name: doAdd
//	        signature: [Int, Int]
//	        body: addInts
//	        rewrite_on: [overflow]
//	      - name: addGeneric
//	        kind: generic
//	        signature: [Any, Any]
//	        body: addBoxed
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/specnode/internal/config"
)

// Manifest is the top-level manifest document.
type Manifest struct {
	// Operations lists the operations to build, in order.
	Operations []Operation `yaml:"operations"`
}

// Operation declares one operation.
type Operation struct {
	// Name identifies the operation in diagnostics and on the command line.
	Name string `yaml:"name"`

	// Specializations are the implementation variants. Their order in the
	// file is the declaration order used to break ties.
	Specializations []Specialization `yaml:"specializations"`
}

// Specialization declares one guarded implementation variant.
type Specialization struct {
	// Name is the declared name; the synthesized id is derived from it.
	Name string `yaml:"name"`

	// Kind is "specialized" (default) or "generic".
	Kind string `yaml:"kind,omitempty"`

	// Order is an explicit priority. Lower runs first; 0 keeps the
	// position the type lattice and declaration order give.
	Order int `yaml:"order,omitempty"`

	// Signature lists the argument types, e.g. [Int, Double].
	// Host types may be qualified: [geo.Point].
	Signature []string `yaml:"signature"`

	// Guards are predicate references: "name", "name(0, 1)" to pass
	// selected arguments, "!name" for the negation.
	Guards []string `yaml:"guards,omitempty"`

	// Assumptions name registry assumptions the specialization depends on.
	Assumptions []string `yaml:"assumptions,omitempty"`

	// RewriteOn names registry errors that make the runtime move on to the
	// next specialization.
	RewriteOn []string `yaml:"rewrite_on,omitempty"`

	// Body names the registry body implementing the specialization.
	Body string `yaml:"body"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return ParseManifest(data, path)
}

// ParseManifest parses manifest content from bytes.
// The path argument is used only for error messages.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := m.validate(path); err != nil {
		return nil, err
	}
	return &m, nil
}

// FindManifest searches for specnode.yaml starting from dir and walking up
// to parent directories. It returns an empty path when none is found.
func FindManifest(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, ext := range config.ManifestFileExtensions {
			candidate := filepath.Join(dir, "specnode"+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the manifest for structural errors. Semantic problems
// (ordering, reachability, unknown types) are left to the resolver.
func (m *Manifest) validate(path string) error {
	if len(m.Operations) == 0 {
		return fmt.Errorf("%s: no operations defined", path)
	}

	seen := make(map[string]bool)
	for i, op := range m.Operations {
		if op.Name == "" {
			return fmt.Errorf("%s: operations[%d]: name is required", path, i)
		}
		if seen[op.Name] {
			return fmt.Errorf("%s: operations[%d]: duplicate operation %q", path, i, op.Name)
		}
		seen[op.Name] = true

		if len(op.Specializations) == 0 {
			return fmt.Errorf("%s: operations[%d] (%s): no specializations defined", path, i, op.Name)
		}
		for j, s := range op.Specializations {
			if s.Name == "" {
				return fmt.Errorf("%s: operations[%d].specializations[%d] (%s): name is required", path, i, j, op.Name)
			}
			if s.Body == "" {
				return fmt.Errorf("%s: operations[%d].specializations[%d] (%s.%s): body is required", path, i, j, op.Name, s.Name)
			}
			switch strings.ToLower(s.Kind) {
			case "", "specialized", "generic", "uninitialized", "polymorphic":
			default:
				return fmt.Errorf("%s: operations[%d].specializations[%d] (%s.%s): unknown kind %q",
					path, i, j, op.Name, s.Name, s.Kind)
			}
		}
	}
	return nil
}
