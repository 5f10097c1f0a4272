package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/l2x6/rpkgtests/internal/pom"
)

func params() TemplateParams {
	testJar := pom.Artifact{GroupID: "org.example", ArtifactID: "example-tests", Version: "1.0"}
	runTests := pom.Artifact{GroupID: "org.example", ArtifactID: "run-example-tests", Version: "2.0"}
	rpkg := pom.Artifact{GroupID: "org.example", ArtifactID: "example-rpkg", Version: "2.0"}
	return TemplateParams{
		Parent:             pom.Artifact{GroupID: "org.example", ArtifactID: "tests-parent", Version: "2.0"},
		ParentRelativePath: "../pom.xml",
		RunTestsModule:     &runTests,
		RpkgModule:         &rpkg,
		TestJar:            &testJar,
		TestJars:           []pom.Artifact{testJar},
		PluginVersion:      "0.4.0",
	}
}

func TestRender_BundledRunTestsModule(t *testing.T) {
	r, err := New(t.TempDir(), DefaultTemplatesURIBase)
	require.NoError(t, err)

	out, err := r.Render("run-tests-module-pom.xml", params())
	require.NoError(t, err)
	require.Contains(t, string(out), "<artifactId>run-example-tests</artifactId>")
	require.Contains(t, string(out), "<relativePath>../pom.xml</relativePath>")
	require.Contains(t, string(out), "<classifier>example-tests</classifier>")
}

func TestRender_BundledRpkgModule(t *testing.T) {
	r, err := New(t.TempDir(), "")
	require.NoError(t, err)

	out, err := r.Render("rpkg-module-pom.xml", params())
	require.NoError(t, err)
	require.Contains(t, string(out), "<artifactId>example-rpkg</artifactId>")
	require.Contains(t, string(out), "<version>0.4.0</version>")
	require.Contains(t, string(out), "<artifactId>example-tests</artifactId>")
}

func TestRender_NilRpkgModuleOmitsDependency(t *testing.T) {
	r, err := New(t.TempDir(), DefaultTemplatesURIBase)
	require.NoError(t, err)

	p := params()
	p.RpkgModule = nil
	out, err := r.Render("run-tests-module-pom.xml", p)
	require.NoError(t, err)
	require.NotContains(t, string(out), "<classifier>")
}

func TestRender_FileOverrideWithFallback(t *testing.T) {
	baseDir := t.TempDir()
	overrideDir := filepath.Join(baseDir, "my-templates")
	require.NoError(t, os.MkdirAll(overrideDir, 0o750))
	custom := "custom template for {{ .TestJar.ArtifactID }}\n"
	require.NoError(t, os.WriteFile(filepath.Join(overrideDir, "run-tests-module-pom.xml"), []byte(custom), 0o600))

	r, err := New(baseDir, "file:my-templates")
	require.NoError(t, err)

	// The overridden template wins.
	out, err := r.Render("run-tests-module-pom.xml", params())
	require.NoError(t, err)
	require.Equal(t, "custom template for example-tests\n", string(out))

	// The template missing from the override falls back to the bundled set.
	out, err = r.Render("rpkg-module-pom.xml", params())
	require.NoError(t, err)
	require.Contains(t, string(out), "rpkgtests-maven-plugin")
}

func TestRender_UnsupportedScheme(t *testing.T) {
	_, err := New(t.TempDir(), "http://example.com/templates")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := New(t.TempDir(), DefaultTemplatesURIBase)
	require.NoError(t, err)

	_, err = r.Render("no-such-template.xml", params())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRender_CachesParsedTemplates(t *testing.T) {
	baseDir := t.TempDir()
	overrideDir := filepath.Join(baseDir, "tpl")
	require.NoError(t, os.MkdirAll(overrideDir, 0o750))
	path := filepath.Join(overrideDir, "run-tests-module-pom.xml")
	require.NoError(t, os.WriteFile(path, []byte("v1\n"), 0o600))

	r, err := New(baseDir, "file:tpl")
	require.NoError(t, err)

	out, err := r.Render("run-tests-module-pom.xml", params())
	require.NoError(t, err)
	require.Equal(t, "v1\n", string(out))

	// Rewriting the file does not change the output; the parsed template
	// is served from the cache.
	require.NoError(t, os.WriteFile(path, []byte("v2\n"), 0o600))
	out, err = r.Render("run-tests-module-pom.xml", params())
	require.NoError(t, err)
	require.Equal(t, "v1\n", string(out))
}

func TestRenderToFile_CreatesParentDirs(t *testing.T) {
	r, err := New(t.TempDir(), DefaultTemplatesURIBase)
	require.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "module-a", "pom.xml")
	require.NoError(t, r.RenderToFile("run-tests-module-pom.xml", params(), outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "<artifactId>run-example-tests</artifactId>")
}
