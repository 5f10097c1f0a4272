package modsync

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const pomHeader = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
    <modelVersion>4.0.0</modelVersion>
    <groupId>org.example</groupId>
    <artifactId>tests-parent</artifactId>
    <version>1.2.3</version>
    <packaging>pom</packaging>
`

func TestSyncModules_SynthesizesContainer(t *testing.T) {
	source := pomHeader + "</project>\n"

	got, err := SyncModules(source, "pom.xml", []string{"m1", "m2"})
	require.NoError(t, err)

	want := pomHeader +
		"    <modules>\n" +
		"        " + StartMarker + "\n" +
		"        <module>m1</module>\n" +
		"        <module>m2</module>\n" +
		"        " + EndMarker + "\n" +
		"    </modules>\n" +
		"</project>\n"
	require.Equal(t, want, got)
}

func TestSyncModules_ExistingContainerKeepsHandWrittenEntries(t *testing.T) {
	source := pomHeader +
		"    <modules>\n" +
		"        <module>hand-written</module>\n" +
		"    </modules>\n" +
		"</project>\n"

	got, err := SyncModules(source, "pom.xml", []string{"m1"})
	require.NoError(t, err)

	// Markers land right after <modules>, not interleaved with the
	// hand-written entry, and the entry survives.
	want := pomHeader +
		"    <modules>\n" +
		"        " + StartMarker + "\n" +
		"        <module>m1</module>\n" +
		"        " + EndMarker + "\n" +
		"        <module>hand-written</module>\n" +
		"    </modules>\n" +
		"</project>\n"
	require.Equal(t, want, got)
}

func TestSyncModules_ReplacesStaleEntries(t *testing.T) {
	source := pomHeader +
		"    <modules>\n" +
		"        " + StartMarker + "\n" +
		"        <module>old-a</module>\n" +
		"        <module>old-b</module>\n" +
		"        " + EndMarker + "\n" +
		"    </modules>\n" +
		"</project>\n"

	got, err := SyncModules(source, "pom.xml", []string{"fresh"})
	require.NoError(t, err)
	require.NotContains(t, got, "old-a")
	require.NotContains(t, got, "old-b")
	require.Contains(t, got, "        <module>fresh</module>\n")
}

func TestSyncModules_Idempotent(t *testing.T) {
	source := pomHeader + "</project>\n"
	modules := []string{"m1", "m2", "m3"}

	first, err := SyncModules(source, "pom.xml", modules)
	require.NoError(t, err)
	second, err := SyncModules(first, "pom.xml", modules)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSyncModules_EmptyList(t *testing.T) {
	source := pomHeader + "</project>\n"

	got, err := SyncModules(source, "pom.xml", nil)
	require.NoError(t, err)
	require.Contains(t, got,
		"        "+StartMarker+"\n"+
			"        "+EndMarker+"\n")
}

func TestSyncModules_PreservesCRLF(t *testing.T) {
	source := strings.ReplaceAll(pomHeader+"</project>\n", "\n", "\r\n")

	got, err := SyncModules(source, "pom.xml", []string{"m1"})
	require.NoError(t, err)
	require.Contains(t, got, "\r\n        <module>m1</module>\r\n")
	// No bare LF anywhere.
	require.NotContains(t, strings.ReplaceAll(got, "\r\n", ""), "\n")
}

func TestSyncModules_PreservesTabIndent(t *testing.T) {
	source := "<project>\n\t<artifactId>p</artifactId>\n</project>\n"

	got, err := SyncModules(source, "pom.xml", []string{"m1"})
	require.NoError(t, err)
	require.Contains(t, got, "\t<modules>\n")
	require.Contains(t, got, "\t\t<module>m1</module>\n")
}

func TestSyncModules_DefaultIndentWithoutChildren(t *testing.T) {
	source := "<project>\n</project>\n"

	got, err := SyncModules(source, "pom.xml", []string{"m1"})
	require.NoError(t, err)
	require.Contains(t, got, "    <modules>\n")
	require.Contains(t, got, "        <module>m1</module>\n")
}

func TestSyncModules_NoProjectCloseTag(t *testing.T) {
	_, err := SyncModules("<project>\n", "broken/pom.xml", []string{"m1"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAnchorNotFound)
	require.Contains(t, err.Error(), "broken/pom.xml")
}

func TestSyncModules_StartWithoutEndMarker(t *testing.T) {
	source := pomHeader +
		"    <modules>\n" +
		"        " + StartMarker + "\n" +
		"    </modules>\n" +
		"</project>\n"

	_, err := SyncModules(source, "pom.xml", []string{"m1"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEndMarkerMissing)
}

func TestSniffStyle(t *testing.T) {
	st := sniffStyle("<project>\r\n  <x/>\r\n</project>\r\n")
	assert.Equal(t, "\r\n", st.eol)
	assert.Equal(t, "  ", st.indent)

	st = sniffStyle("no project element at all")
	assert.Equal(t, "\n", st.eol)
	assert.Equal(t, defaultIndent, st.indent)
}

// moduleName draws plausible module directory names.
func moduleName(rt *rapid.T, label string) string {
	return rapid.StringMatching(`[a-z][a-z0-9-]{0,20}`).Draw(rt, label)
}

func TestProperty_Idempotence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(rt, "n")
		modules := make([]string, n)
		for i := range modules {
			modules[i] = moduleName(rt, fmt.Sprintf("module%d", i))
		}
		source := pomHeader + "</project>\n"

		first, err := SyncModules(source, "pom.xml", modules)
		require.NoError(t, err)
		second, err := SyncModules(first, "pom.xml", modules)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}

func TestProperty_OrderPreserved(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		modules := make([]string, n)
		for i := range modules {
			// Unique names so positions are unambiguous.
			modules[i] = fmt.Sprintf("%s-%d", moduleName(rt, fmt.Sprintf("module%d", i)), i)
		}
		source := pomHeader + "</project>\n"

		got, err := SyncModules(source, "pom.xml", modules)
		require.NoError(t, err)

		prev := -1
		for _, module := range modules {
			pos := strings.Index(got, "<module>"+module+"</module>")
			require.Greater(t, pos, prev, "module %s out of order", module)
			prev = pos
		}
	})
}

func TestProperty_RegionIsolation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 5).Draw(rt, "n")
		modules := make([]string, n)
		for i := range modules {
			modules[i] = moduleName(rt, fmt.Sprintf("module%d", i))
		}
		source := pomHeader +
			"    <modules>\n" +
			"        " + StartMarker + "\n" +
			"        <module>stale</module>\n" +
			"        " + EndMarker + "\n" +
			"        <module>keep-me</module>\n" +
			"    </modules>\n" +
			"</project>\n"

		got, err := SyncModules(source, "pom.xml", modules)
		require.NoError(t, err)

		// Everything before the start marker and after the end marker is
		// byte-identical to the input.
		wantPrefix := source[:strings.Index(source, StartMarker)+len(StartMarker)]
		require.True(t, strings.HasPrefix(got, wantPrefix))
		wantSuffix := source[strings.Index(source, EndMarker):]
		require.True(t, strings.HasSuffix(got, wantSuffix))
	})
}
