package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasCreateTestModules(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	require.Contains(t, names, "create-test-modules")
}

func TestCreateTestModulesFlags(t *testing.T) {
	require.NotNil(t, createTestModulesCmd.Flags().Lookup("dry-run"))
	require.NotNil(t, createTestModulesCmd.Flags().Lookup("watch"))
	require.NotNil(t, createTestModulesCmd.Flags().Lookup("debug-log"))
	require.NotNil(t, createTestModulesCmd.Flags().Lookup("parent-dir"))
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestRenderDiff_UnchangedTextPassesThrough(t *testing.T) {
	text := "<project>\n    <modules>\n    </modules>\n</project>\n"
	out := renderDiff(text, text)
	require.Equal(t, text, out, "identical inputs should come back verbatim")
}

func TestRenderDiff_ContainsInsertedText(t *testing.T) {
	before := "<modules>\n</modules>\n"
	after := "<modules>\n    <module>foo</module>\n</modules>\n"
	out := renderDiff(before, after)
	require.Contains(t, out, "<module>foo</module>", "inserted text should appear in the diff")
	require.Contains(t, out, "<modules>", "unchanged text should be kept")
}

func TestWatchPaths(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg.TestModulesParentDir = "tests"
	cfg.TestJarFiles = []string{"test-jars.yaml", "/abs/more-jars.yaml"}
	cfg.RpkgModulePomPath = "rpkg/pom.xml"

	paths := watchPaths("/base")
	require.Len(t, paths, 4)
	require.Equal(t, "/base/tests/pom.xml", paths[0])
	require.Equal(t, "/base/test-jars.yaml", paths[1])
	require.Equal(t, "/abs/more-jars.yaml", paths[2], "absolute paths stay as they are")
	require.True(t, strings.HasSuffix(paths[3], "rpkg/pom.xml"))
}
