// Package modsync maintains the managed block of <module> entries in a
// parent pom.xml. The block is delimited by marker comments and is fully
// regenerated on every run, so the tool can be re-run without
// accumulating duplicate entries. Content outside the markers, including
// hand-written <module> entries, is never touched.
package modsync

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Marker literals delimiting the managed block.
const (
	StartMarker = "<!-- START: modules generated by rpkgtests-maven-plugin -->"
	EndMarker   = "<!-- END: modules generated by rpkgtests-maven-plugin -->"
)

const (
	modulesOpenTag  = "<modules>"
	modulesCloseTag = "</modules>"
	projectCloseTag = "</project>"

	defaultIndent = "    "
)

// ErrAnchorNotFound reports a document with no markers, no <modules>
// container and no </project> tag to anchor a new container on.
var ErrAnchorNotFound = errors.New("no anchor for managed modules block")

// ErrEndMarkerMissing reports a document that contains the start marker
// but not the end marker.
var ErrEndMarkerMissing = errors.New("managed modules end marker not found")

// indentPattern captures the whitespace run preceding the first child of
// the <project> element. Best effort; mixed-style documents may sniff an
// indent that differs from the rest of the file.
var indentPattern = regexp.MustCompile(`<project[^>]*>[\r\n]*([ \t]*)<`)

// anchorState classifies how far the document already is from having a
// managed block.
type anchorState int

const (
	// markersPresent means the managed block already exists.
	markersPresent anchorState = iota
	// containerPresent means a <modules> element exists but holds no markers.
	containerPresent
	// rootOnly means neither markers nor <modules> exist; a container has
	// to be synthesized before </project>.
	rootOnly
)

// style holds the formatting conventions sniffed from a document.
type style struct {
	eol    string
	indent string
}

// sniffStyle derives the line-ending convention and indentation unit
// from the document text.
func sniffStyle(source string) style {
	s := style{eol: "\n", indent: defaultIndent}
	if strings.Contains(source, "\r") {
		s.eol = "\r\n"
	}
	if m := indentPattern.FindStringSubmatch(source); m != nil {
		s.indent = m[1]
	}
	return s
}

// classify determines the anchor state of the document.
func classify(source string) anchorState {
	switch {
	case strings.Contains(source, StartMarker):
		return markersPresent
	case strings.Contains(source, modulesOpenTag):
		return containerPresent
	default:
		return rootOnly
	}
}

// SyncModules returns source with the managed block containing exactly
// the given module directory names, in order. Missing markers, and a
// missing <modules> container, are created on the fly. The path is used
// in error messages only.
func SyncModules(source, path string, modules []string) (string, error) {
	st := sniffStyle(source)

	var err error
	switch classify(source) {
	case markersPresent:
		// Nothing to create.
	case containerPresent:
		source = insertMarkersIntoContainer(source, st)
	case rootOnly:
		source, err = insertContainer(source, path, st)
		if err != nil {
			return "", err
		}
	}

	insertPos := strings.Index(source, StartMarker) + len(StartMarker)
	endOffset := strings.Index(source[insertPos:], EndMarker)
	if endOffset < 0 {
		return "", fmt.Errorf("%w in %s", ErrEndMarkerMissing, path)
	}
	delPos := insertPos + endOffset

	inner := renderBlock(modules, st)
	return source[:insertPos] + inner + source[delPos:], nil
}

// renderBlock builds the text between the markers: one line per module
// plus the indented line the end marker sits on.
func renderBlock(modules []string, st style) string {
	var b strings.Builder
	for _, module := range modules {
		b.WriteString(st.eol)
		b.WriteString(st.indent)
		b.WriteString(st.indent)
		b.WriteString("<module>")
		b.WriteString(module)
		b.WriteString("</module>")
	}
	b.WriteString(st.eol)
	b.WriteString(st.indent)
	b.WriteString(st.indent)
	return b.String()
}

// insertMarkersIntoContainer places an empty managed block right after
// the <modules> opening tag, before any hand-written entries.
func insertMarkersIntoContainer(source string, st style) string {
	pos := strings.Index(source, modulesOpenTag) + len(modulesOpenTag)
	pos = consumeEol(source, pos)
	block := st.indent + st.indent + StartMarker + st.eol +
		st.indent + st.indent + EndMarker + st.eol
	return source[:pos] + block + source[pos:]
}

// insertContainer synthesizes a whole <modules> element holding an empty
// managed block immediately before the closing </project> tag.
func insertContainer(source, path string, st style) (string, error) {
	pos := strings.LastIndex(source, projectCloseTag)
	if pos < 0 {
		return "", fmt.Errorf("%w: could not find %s in %s", ErrAnchorNotFound, projectCloseTag, path)
	}
	block := st.indent + modulesOpenTag + st.eol +
		st.indent + st.indent + StartMarker + st.eol +
		st.indent + st.indent + EndMarker + st.eol +
		st.indent + modulesCloseTag + st.eol
	return source[:pos] + block + source[pos:], nil
}

// consumeEol advances pos past any line-break characters.
func consumeEol(source string, pos int) int {
	for pos < len(source) && (source[pos] == '\r' || source[pos] == '\n') {
		pos++
	}
	return pos
}
