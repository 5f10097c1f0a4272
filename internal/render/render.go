// Package render is the template service behind module generation. It
// resolves template names against an optional caller-supplied location
// with per-template fallback to the bundled set, and renders descriptor
// files with text/template.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	gocache "github.com/patrickmn/go-cache"

	"github.com/l2x6/rpkgtests/internal/pom"
	"github.com/l2x6/rpkgtests/internal/templates"
)

// DefaultTemplatesURIBase is the bundled template location.
const DefaultTemplatesURIBase = "classpath:/create-test-modules-templates"

const (
	classpathPrefix = "classpath:"
	filePrefix      = "file:"
)

// Renderer errors.
var (
	ErrUnsupportedScheme = errors.New("unsupported templates URI base")
	ErrTemplateNotFound  = errors.New("template not found")
)

// TemplateParams is the data model handed to descriptor templates.
// TestJar and RunTestsModule are nil for the aggregating rpkg-module
// render, which is not tied to a single test jar.
type TemplateParams struct {
	Parent             pom.Artifact
	ParentRelativePath string
	RunTestsModule     *pom.Artifact
	RpkgModule         *pom.Artifact
	TestJar            *pom.Artifact
	TestJars           []pom.Artifact
	PluginVersion      string
}

// Renderer loads templates from an ordered list of sources and renders
// them to descriptor files. Parsed templates are cached so watch-mode
// reruns do not reparse.
type Renderer struct {
	sources []fs.FS
	cache   *gocache.Cache
}

// New builds a Renderer for the given templates URI base. Two schemes
// are recognized: "classpath:" resolves inside the bundled template
// filesystem and "file:" resolves relative to baseDir. Any non-default
// base is searched first, with per-template fallback to the bundled set.
func New(baseDir, templatesURIBase string) (*Renderer, error) {
	bundled, err := fs.Sub(templates.DefaultFS(), strings.TrimPrefix(DefaultTemplatesURIBase, classpathPrefix+"/"))
	if err != nil {
		return nil, fmt.Errorf("resolving bundled templates: %w", err)
	}

	r := &Renderer{cache: gocache.New(gocache.NoExpiration, 0)}
	switch {
	case templatesURIBase == "" || templatesURIBase == DefaultTemplatesURIBase:
		r.sources = []fs.FS{bundled}
	case strings.HasPrefix(templatesURIBase, classpathPrefix):
		sub, err := fs.Sub(templates.DefaultFS(), strings.Trim(strings.TrimPrefix(templatesURIBase, classpathPrefix), "/"))
		if err != nil {
			return nil, fmt.Errorf("resolving templates URI base %q: %w", templatesURIBase, err)
		}
		r.sources = []fs.FS{sub, bundled}
	case strings.HasPrefix(templatesURIBase, filePrefix):
		dir := filepath.Join(baseDir, strings.TrimPrefix(templatesURIBase, filePrefix))
		r.sources = []fs.FS{os.DirFS(dir), bundled}
	default:
		return nil, fmt.Errorf("%w %q: only %q and %q schemes are supported",
			ErrUnsupportedScheme, templatesURIBase, classpathPrefix, filePrefix)
	}
	return r, nil
}

// lookup parses the named template, consulting the cache first and the
// sources in precedence order otherwise.
func (r *Renderer) lookup(name string) (*template.Template, error) {
	if cached, ok := r.cache.Get(name); ok {
		return cached.(*template.Template), nil
	}
	for _, source := range r.sources {
		content, err := fs.ReadFile(source, name)
		if err != nil {
			continue
		}
		tmpl, err := template.New(name).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.cache.Set(name, tmpl, gocache.NoExpiration)
		return tmpl, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

// Render evaluates the named template against the model and returns the
// produced descriptor text.
func (r *Renderer) Render(name string, model TemplateParams) ([]byte, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// RenderToFile renders the named template and writes the result to
// outPath, creating parent directories as needed.
func (r *Renderer) RenderToFile(name string, model TemplateParams, outPath string) error {
	content, err := r.Render(name, model)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(outPath), err)
	}
	if err := os.WriteFile(outPath, content, 0o644); err != nil { //nolint:gosec // G306: descriptors are world-readable build files
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}
