package templates

import (
	"embed"
	"io/fs"
)

// defaultTemplates embeds the bundled descriptor templates:
//   - create-test-modules-templates/run-tests-module-pom.xml
//   - create-test-modules-templates/rpkg-module-pom.xml
//
// Custom template locations fall back to these per template.
//
//go:embed create-test-modules-templates
var defaultTemplates embed.FS

// DefaultFS returns the embedded filesystem containing the bundled
// descriptor templates.
func DefaultFS() fs.FS {
	return defaultTemplates
}
