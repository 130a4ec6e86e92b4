package cli

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/pipeline"
	"github.com/matzehuels/beetree/pkg/store"
)

// buildFlags holds the flags of the build command.
type buildFlags struct {
	output  string
	sqlite  string
	refresh bool
	strict  bool
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Merge the configured extractions and write the dataset",
		Long: `Merge the extraction records of every mod in the project file and write
the dataset files (bees, mutations, combs, branches) to the output directory.

Unresolved references, id collisions and other data-quality problems are
reported as diagnostics and do not fail the build unless --strict is set.`,
		Example: `  beetree build
  beetree build -c modpack.toml -o site/data
  beetree build --sqlite bees.db --refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory (overrides output_dir)")
	cmd.Flags().StringVar(&flags.sqlite, "sqlite", "", "also export the dataset and hierarchy to this SQLite file")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail when any diagnostic is recorded")

	return cmd
}

func (c *CLI) runBuild(cmd *cobra.Command, flags buildFlags) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if flags.output != "" {
		cfg.OutputDir = flags.output
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipeline.FromConfig(cfg)
	opts.Refresh = flags.refresh

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Merging %d mods...", len(opts.Inputs)))
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	if err := res.Dataset.Write(cfg.OutputDir); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	prog.done(fmt.Sprintf("Built %d species", len(res.Dataset.Bees)))

	printSuccess("Dataset written to %s", StyleHighlight.Render(cfg.OutputDir))
	printStats(res.Stats, res.CacheHit)
	for _, name := range []string{dataset.BeesFile, dataset.MutationsFile, dataset.CombsFile, dataset.BranchesFile} {
		printFile(filepath.Join(cfg.OutputDir, name))
	}

	if flags.sqlite != "" {
		if err := store.Export(ctx, flags.sqlite, res.Dataset, res.Hierarchy); err != nil {
			return fmt.Errorf("export sqlite: %w", err)
		}
		printFile(flags.sqlite)
	}

	printNewline()
	printDiagnostics(res.Report, c.Logger.GetLevel() <= log.DebugLevel)
	if flags.strict && !res.Report.Empty() {
		return fmt.Errorf("build recorded diagnostics: %s", res.Report.Summary())
	}

	printNewline()
	printNextStep("Explore a lineage", appName+" lineage <species>")
	return nil
}
