// Package pom models Maven descriptor identities and the test jar
// artifacts the generator consumes. Only the identity triple is ever
// needed, so descriptors are read with targeted regexes rather than a
// full XML parser.
package pom

import (
	"fmt"
	"os"
	"regexp"
)

// Artifact identifies a Maven artifact. It doubles as the identity of a
// descriptor file and as a discovered test jar.
type Artifact struct {
	GroupID    string `yaml:"groupId" mapstructure:"group_id"`
	ArtifactID string `yaml:"artifactId" mapstructure:"artifact_id"`
	Version    string `yaml:"version" mapstructure:"version"`
}

var (
	parentBlockPattern = regexp.MustCompile(`(?s)<parent>.*?</parent>`)
	groupIDPattern     = regexp.MustCompile(`<groupId>\s*([^<\s]+)\s*</groupId>`)
	artifactIDPattern  = regexp.MustCompile(`<artifactId>\s*([^<\s]+)\s*</artifactId>`)
	versionPattern     = regexp.MustCompile(`<version>\s*([^<\s]+)\s*</version>`)
)

// Read extracts the identity of the project described by the pom.xml at
// path. The project's own artifactId is the first one outside the
// <parent> block; groupId and version fall back to the parent's when the
// project does not declare its own.
func Read(path string) (Artifact, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- descriptor path comes from configuration
	if err != nil {
		return Artifact{}, fmt.Errorf("reading descriptor %s: %w", path, err)
	}
	source := string(data)
	own := parentBlockPattern.ReplaceAllString(source, "")

	artifact := Artifact{
		GroupID:    firstGroup(groupIDPattern, own),
		ArtifactID: firstGroup(artifactIDPattern, own),
		Version:    firstGroup(versionPattern, own),
	}
	// Inherited coordinates live in the <parent> block.
	if artifact.GroupID == "" {
		artifact.GroupID = firstGroup(groupIDPattern, source)
	}
	if artifact.Version == "" {
		artifact.Version = firstGroup(versionPattern, source)
	}

	if artifact.ArtifactID == "" {
		return Artifact{}, fmt.Errorf("descriptor %s: no artifactId found", path)
	}
	return artifact, nil
}

func firstGroup(pattern *regexp.Regexp, source string) string {
	if m := pattern.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return ""
}

// WithArtifactID returns a copy of the artifact with the artifactId
// swapped out, keeping groupId and version.
func (a Artifact) WithArtifactID(artifactID string) Artifact {
	a.ArtifactID = artifactID
	return a
}

// GAV returns the groupId:artifactId:version coordinate string.
func (a Artifact) GAV() string {
	return a.GroupID + ":" + a.ArtifactID + ":" + a.Version
}
