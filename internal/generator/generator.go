// Package generator drives one create-test-modules run: it discovers the
// test jars, renders one module descriptor per jar, renders the
// aggregating rpkg descriptor and keeps the parent descriptor's managed
// <modules> block in sync.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/l2x6/rpkgtests/internal/config"
	"github.com/l2x6/rpkgtests/internal/log"
	"github.com/l2x6/rpkgtests/internal/modsync"
	"github.com/l2x6/rpkgtests/internal/pom"
	"github.com/l2x6/rpkgtests/internal/render"
	"github.com/l2x6/rpkgtests/internal/replacer"
)

// Template names resolved through the renderer.
const (
	runTestsModuleTemplate = "run-tests-module-pom.xml"
	rpkgModuleTemplate     = "rpkg-module-pom.xml"
)

// parentRelativePath is the generated modules' path back to the parent
// descriptor; generated modules always sit directly under the parent.
const parentRelativePath = "../pom.xml"

// Generator holds everything one run needs. Construct with New.
type Generator struct {
	cfg      config.Config
	baseDir  string
	renderer *render.Renderer
	tracer   trace.Tracer
	dryRun   bool
}

// Result reports what a run produced. In dry-run mode the descriptor
// texts are computed but nothing is written.
type Result struct {
	// Modules are the generated module directory names, in order.
	Modules []string
	// ParentPomPath is the synchronized parent descriptor.
	ParentPomPath string
	// ParentBefore and ParentAfter are the parent descriptor's text
	// before and after synchronization.
	ParentBefore string
	ParentAfter  string
}

// New creates a Generator. baseDir anchors relative configuration paths.
func New(cfg config.Config, baseDir string, renderer *render.Renderer, tracer trace.Tracer) *Generator {
	return &Generator{cfg: cfg, baseDir: baseDir, renderer: renderer, tracer: tracer}
}

// SetDryRun makes Run compute everything without touching the file system.
func (g *Generator) SetDryRun(dryRun bool) {
	g.dryRun = dryRun
}

// resolve anchors a relative path at the generator's base directory.
func (g *Generator) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(g.baseDir, path)
}

// Run executes one generation run. Any failure aborts the run; the
// operation is idempotent and safe to re-run once the cause is fixed.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	ctx, span := g.tracer.Start(ctx, "generate", trace.WithAttributes(
		attribute.String("run.id", uuid.NewString()),
	))
	defer span.End()

	result, err := g.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("modules.count", len(result.Modules)))
	return result, nil
}

func (g *Generator) run(ctx context.Context) (*Result, error) {
	testJars, err := pom.Discover(g.cfg.TestJars, g.resolveAll(g.cfg.TestJarFiles))
	if err != nil {
		return nil, err
	}
	if len(testJars) == 0 {
		return nil, fmt.Errorf("no test jars discovered")
	}
	log.Info(log.CatDiscovery, "Discovered test jars", "count", len(testJars))

	parentDir := g.resolve(g.cfg.TestModulesParentDir)
	parentPomPath := filepath.Join(parentDir, "pom.xml")
	parent, err := pom.Read(parentPomPath)
	if err != nil {
		return nil, err
	}

	// Both chains must parse before any file is touched.
	artifactIDChain, err := replacer.Parse(g.cfg.ArtifactIDReplacers)
	if err != nil {
		return nil, fmt.Errorf("artifact_id_replacers: %w", err)
	}
	dirChain, err := replacer.Parse(g.cfg.DirReplacers)
	if err != nil {
		return nil, fmt.Errorf("dir_replacers: %w", err)
	}

	var rpkg *pom.Artifact
	if g.cfg.RpkgModulePomPath != "" {
		a, err := pom.Read(g.resolve(g.cfg.RpkgModulePomPath))
		if err != nil {
			return nil, err
		}
		rpkg = &a
	}

	if g.cfg.Clean && !g.dryRun {
		if err := g.clean(ctx, parentDir); err != nil {
			return nil, err
		}
	}

	modules := make([]string, 0, len(testJars))
	for i := range testJars {
		testJar := testJars[i]
		dir, err := g.generateModule(ctx, parent, rpkg, testJar, testJars, parentDir, artifactIDChain, dirChain)
		if err != nil {
			return nil, err
		}
		modules = append(modules, dir)
	}

	if rpkg != nil {
		if err := g.generateRpkgModule(ctx, parent, rpkg, testJars); err != nil {
			return nil, err
		}
	}

	result := &Result{Modules: modules, ParentPomPath: parentPomPath}
	if err := g.syncParent(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Generator) resolveAll(paths []string) []string {
	resolved := make([]string, len(paths))
	for i, p := range paths {
		resolved[i] = g.resolve(p)
	}
	return resolved
}

// clean deletes every subdirectory of parentDir containing its own
// pom.xml. Destructive; only previously generated modules and modules
// that look like them live directly under the parent.
func (g *Generator) clean(ctx context.Context, parentDir string) error {
	_, span := g.tracer.Start(ctx, "clean")
	defer span.End()

	entries, err := os.ReadDir(parentDir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", parentDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		moduleDir := filepath.Join(parentDir, entry.Name())
		if _, err := os.Stat(filepath.Join(moduleDir, "pom.xml")); err != nil {
			continue
		}
		log.Debug(log.CatClean, "Removing generated module", "dir", moduleDir)
		if err := os.RemoveAll(moduleDir); err != nil {
			return fmt.Errorf("deleting %s: %w", moduleDir, err)
		}
	}
	return nil
}

// generateModule renders one run-tests module descriptor and returns the
// module directory name derived from the test jar's artifactId.
func (g *Generator) generateModule(ctx context.Context, parent pom.Artifact, rpkg *pom.Artifact,
	testJar pom.Artifact, testJars []pom.Artifact, parentDir string,
	artifactIDChain, dirChain replacer.Chain) (string, error) {

	_, span := g.tracer.Start(ctx, "render-module", trace.WithAttributes(
		attribute.String("test_jar", testJar.ArtifactID),
	))
	defer span.End()

	artifactID := artifactIDChain.Apply(testJar.ArtifactID)
	dir := dirChain.Apply(testJar.ArtifactID)
	runTestsModule := parent.WithArtifactID(artifactID)

	model := render.TemplateParams{
		Parent:             parent,
		ParentRelativePath: parentRelativePath,
		RunTestsModule:     &runTestsModule,
		RpkgModule:         rpkg,
		TestJar:            &testJar,
		TestJars:           testJars,
		PluginVersion:      g.cfg.PluginVersion,
	}

	outPath := filepath.Join(parentDir, dir, "pom.xml")
	log.Debug(log.CatRender, "Rendering module descriptor", "module", dir, "out", outPath)
	if g.dryRun {
		_, err := g.renderer.Render(runTestsModuleTemplate, model)
		return dir, err
	}
	return dir, g.renderer.RenderToFile(runTestsModuleTemplate, model, outPath)
}

// generateRpkgModule renders the aggregating descriptor of the module
// producing the repackaged artifacts. Its data model has no per-jar
// fields.
func (g *Generator) generateRpkgModule(ctx context.Context, parent pom.Artifact, rpkg *pom.Artifact, testJars []pom.Artifact) error {
	_, span := g.tracer.Start(ctx, "render-rpkg-module")
	defer span.End()

	model := render.TemplateParams{
		Parent:             parent,
		ParentRelativePath: parentRelativePath,
		RpkgModule:         rpkg,
		TestJars:           testJars,
		PluginVersion:      g.cfg.PluginVersion,
	}

	outPath := g.resolve(g.cfg.RpkgModulePomPath)
	log.Debug(log.CatRender, "Rendering rpkg module descriptor", "out", outPath)
	if g.dryRun {
		_, err := g.renderer.Render(rpkgModuleTemplate, model)
		return err
	}
	return g.renderer.RenderToFile(rpkgModuleTemplate, model, outPath)
}

// syncParent rewrites the managed block of the parent descriptor with
// the generated module list.
func (g *Generator) syncParent(ctx context.Context, result *Result) error {
	_, span := g.tracer.Start(ctx, "sync-modules", trace.WithAttributes(
		attribute.Int("modules.count", len(result.Modules)),
	))
	defer span.End()

	data, err := os.ReadFile(result.ParentPomPath) // #nosec G304 -- descriptor path comes from configuration
	if err != nil {
		return fmt.Errorf("reading %s: %w", result.ParentPomPath, err)
	}
	result.ParentBefore = string(data)

	updated, err := modsync.SyncModules(result.ParentBefore, result.ParentPomPath, result.Modules)
	if err != nil {
		return err
	}
	result.ParentAfter = updated

	if g.dryRun || updated == result.ParentBefore {
		return nil
	}
	log.Info(log.CatSync, "Updating managed modules block", "path", result.ParentPomPath, "modules", len(result.Modules))
	if err := os.WriteFile(result.ParentPomPath, []byte(updated), 0o644); err != nil { //nolint:gosec // G306: descriptors are world-readable build files
		return fmt.Errorf("writing %s: %w", result.ParentPomPath, err)
	}
	return nil
}
