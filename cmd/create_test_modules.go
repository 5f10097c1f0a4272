package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/l2x6/rpkgtests/internal/config"
	"github.com/l2x6/rpkgtests/internal/generator"
	"github.com/l2x6/rpkgtests/internal/log"
	"github.com/l2x6/rpkgtests/internal/render"
	"github.com/l2x6/rpkgtests/internal/tracing"
	"github.com/l2x6/rpkgtests/internal/watcher"
)

var (
	dryRun       bool
	watchMode    bool
	debugLogPath string
)

var createTestModulesCmd = &cobra.Command{
	Use:   "create-test-modules",
	Short: "Generate the test modules and sync the parent <modules> block",
	Long: `Reads the configured test jars, renders one module per jar under the
test modules parent directory, renders the repackaging module's pom.xml
and rewrites the managed <modules> block of the parent pom.xml so that
it lists exactly the generated modules.`,
	RunE: runCreateTestModules,
}

func init() {
	createTestModulesCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false,
		"compute everything and show the parent pom.xml diff without writing")
	createTestModulesCmd.Flags().BoolVarP(&watchMode, "watch", "w", false,
		"keep running and regenerate when an input file changes")
	createTestModulesCmd.Flags().StringVar(&debugLogPath, "debug-log", "",
		"write a debug log to the given file")
	createTestModulesCmd.Flags().StringP("parent-dir", "p", "",
		"directory whose pom.xml lists the generated modules")

	_ = viper.BindPFlag("test_modules_parent_dir", createTestModulesCmd.Flags().Lookup("parent-dir"))

	rootCmd.AddCommand(createTestModulesCmd)
}

func runCreateTestModules(cmd *cobra.Command, args []string) error {
	if debugLogPath != "" {
		cleanup, err := log.Init(debugLogPath)
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer cleanup()
	} else if os.Getenv("RPKGTESTS_DEBUG") != "" {
		log.InitWithWriter(os.Stderr)
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Exporter == "file" && cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = config.DefaultTracesFilePath()
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	renderer, err := render.New(baseDir, cfg.TemplatesURIBase)
	if err != nil {
		return err
	}

	gen := generator.New(cfg, baseDir, renderer, provider.Tracer())
	gen.SetDryRun(dryRun)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	if err := runOnce(ctx, cmd, gen); err != nil {
		return err
	}
	if !watchMode {
		return nil
	}
	return watchLoop(ctx, cmd, gen, baseDir)
}

func runOnce(ctx context.Context, cmd *cobra.Command, gen *generator.Generator) error {
	result, err := gen.Run(ctx)
	if err != nil {
		return err
	}
	if dryRun {
		cmd.Printf("dry run: %d module(s) would be generated: %s\n",
			len(result.Modules), strings.Join(result.Modules, ", "))
		if result.ParentBefore == result.ParentAfter {
			cmd.Printf("%s is already up to date\n", result.ParentPomPath)
			return nil
		}
		cmd.Printf("%s would change:\n%s", result.ParentPomPath, renderDiff(result.ParentBefore, result.ParentAfter))
		return nil
	}
	cmd.Printf("generated %d module(s): %s\n", len(result.Modules), strings.Join(result.Modules, ", "))
	return nil
}

// watchLoop re-runs the generation whenever one of the input files
// changes, until the context is canceled.
func watchLoop(ctx context.Context, cmd *cobra.Command, gen *generator.Generator, baseDir string) error {
	paths := watchPaths(baseDir)
	w, err := watcher.New(watcher.DefaultConfig(paths))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	onChange, err := w.Start()
	if err != nil {
		return err
	}
	log.Info(log.CatWatcher, "Watching inputs", "paths", len(paths))
	cmd.Println("watching for changes, press Ctrl-C to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-onChange:
			// A failed rerun keeps the watch alive; the next edit may fix it.
			if err := runOnce(ctx, cmd, gen); err != nil {
				log.ErrorErr(log.CatWatcher, "Regeneration failed", err)
				cmd.PrintErrf("regeneration failed: %v\n", err)
			}
		}
	}
}

// watchPaths lists the input files whose edits trigger a rerun: the
// parent descriptor, the test jar list files and the rpkg descriptor.
func watchPaths(baseDir string) []string {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	paths := []string{filepath.Join(resolve(cfg.TestModulesParentDir), "pom.xml")}
	for _, f := range cfg.TestJarFiles {
		paths = append(paths, resolve(f))
	}
	if cfg.RpkgModulePomPath != "" {
		paths = append(paths, resolve(cfg.RpkgModulePomPath))
	}
	return paths
}

var (
	diffInsertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	diffDeleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Strikethrough(true)
)

// renderDiff returns the after text with insertions and deletions
// highlighted, for the dry-run report.
func renderDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString(diffInsertStyle.Render(d.Text))
		case diffmatchpatch.DiffDelete:
			b.WriteString(diffDeleteStyle.Render(d.Text))
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
