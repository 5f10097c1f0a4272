package pom

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// listFile is the on-disk shape of a test jar list file.
type listFile struct {
	TestJars []Artifact `yaml:"testJars"`
}

// readListFile loads the artifacts declared in a YAML test jar list file.
func readListFile(path string) ([]Artifact, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- list file path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("reading test jar list %s: %w", path, err)
	}
	var lf listFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing test jar list %s: %w", path, err)
	}
	return lf.TestJars, nil
}

// Discover merges the inline artifacts with those declared in the given
// list files, preserving first-seen order and dropping duplicate
// coordinates. One generated module is produced per returned artifact.
func Discover(inline []Artifact, listFiles []string) ([]Artifact, error) {
	var all []Artifact
	all = append(all, inline...)
	for _, path := range listFiles {
		fromFile, err := readListFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, fromFile...)
	}

	seen := make(map[string]struct{}, len(all))
	result := make([]Artifact, 0, len(all))
	for _, a := range all {
		key := a.GAV()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, a)
	}
	return result, nil
}
