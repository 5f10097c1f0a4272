package replacer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Empty(t *testing.T) {
	chain, err := Parse("")
	require.NoError(t, err)
	require.Equal(t, 0, chain.Len())
	require.Equal(t, "unchanged", chain.Apply("unchanged"))
}

func TestParse_Blank(t *testing.T) {
	chain, err := Parse("  \t ")
	require.NoError(t, err)
	require.Equal(t, 0, chain.Len())
}

func TestApply_SingleRule(t *testing.T) {
	chain, err := Parse("/a/b/")
	require.NoError(t, err)
	require.Equal(t, "bbb", chain.Apply("aaa"))
}

func TestApply_ChainedRules(t *testing.T) {
	chain, err := Parse("/a/b/,/b/c/")
	require.NoError(t, err)
	require.Equal(t, 2, chain.Len())
	// First rule rewrites a->b, second rewrites the result b->c.
	require.Equal(t, "c", chain.Apply("a"))
}

func TestParse_WhitespaceSeparated(t *testing.T) {
	chain, err := Parse("/foo/bar/ /bar/baz/")
	require.NoError(t, err)
	require.Equal(t, "baz", chain.Apply("foo"))
}

func TestApply_GroupReferences(t *testing.T) {
	chain, err := Parse("/^(.*)-tests$/$1-rpkg/")
	require.NoError(t, err)
	require.Equal(t, "camel-quarkus-rpkg", chain.Apply("camel-quarkus-tests"))
}

func TestApply_EmptyMatchSinglePass(t *testing.T) {
	// A pattern matching the empty string must not loop; ReplaceAll is a
	// single left-to-right pass.
	chain, err := Parse("/x*/y/")
	require.NoError(t, err)
	require.Equal(t, "y", chain.Apply(""))
}

func TestParse_NoLeadingSlash(t *testing.T) {
	_, err := Parse("abc")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedRule)
	require.Contains(t, err.Error(), "start with a slash")
}

func TestParse_NoTrailingSlash(t *testing.T) {
	_, err := Parse("/a/b")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedRule)
	require.Contains(t, err.Error(), "end with a slash")
}

func TestParse_MissingSeparator(t *testing.T) {
	_, err := Parse("/ab/")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedRule)
	require.Contains(t, err.Error(), "three slashes")
}

func TestParse_InvalidPattern(t *testing.T) {
	_, err := Parse("/(/x/")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedRule)
}

func TestParse_SecondTokenMalformed(t *testing.T) {
	_, err := Parse("/a/b/,oops")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedRule)
	require.Contains(t, err.Error(), "oops")
}
