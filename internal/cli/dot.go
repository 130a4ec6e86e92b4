package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/beetree/pkg/dag/transform"
	"github.com/matzehuels/beetree/pkg/render/dot"
)

// dotFlags holds the flags of the dot command.
type dotFlags struct {
	output      string
	svg         bool
	detailed    bool
	descendants bool
	rebuild     bool
}

// dotCommand creates the dot command.
func (c *CLI) dotCommand() *cobra.Command {
	var flags dotFlags

	cmd := &cobra.Command{
		Use:   "dot [species]",
		Short: "Render the breeding hierarchy as Graphviz DOT or SVG",
		Long: `Render the breeding hierarchy with one rank per generation. Given a
species, only that species and its ancestors (or with --descendants, its
descendants) are drawn.

Nodes are filled with the species' primary color. Species whose generation
could not be settled by relaxation are drawn dashed.`,
		Example: `  beetree dot -o tree.dot
  beetree dot Forestry:Imperial --svg -o imperial.svg
  beetree dot Forestry:Forest --descendants --detailed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDot(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&flags.svg, "svg", false, "render SVG instead of DOT source")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "add mod and generation to node labels")
	cmd.Flags().BoolVarP(&flags.descendants, "descendants", "d", false, "with a species, draw descendants instead of ancestors")
	cmd.Flags().BoolVar(&flags.rebuild, "rebuild", false, "rebuild the dataset instead of reading the output directory")

	return cmd
}

func (c *CLI) runDot(cmd *cobra.Command, args []string, flags dotFlags) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	snap, err := c.loadSnapshot(ctx, cfg, flags.rebuild)
	if err != nil {
		return err
	}

	g := snap.Hierarchy.Graph()
	if len(args) == 1 {
		id, err := lookupSpecies(snap.Dataset, args[0])
		if err != nil {
			return err
		}
		ids, err := lineage(snap, id, flags.descendants)
		if err != nil {
			return err
		}
		g = transform.Induced(g, append(ids, id))
	}

	src := dot.ToDOT(g, dot.Options{Detailed: flags.detailed, Colors: dot.ColorsFrom(snap.Dataset)})
	data := []byte(src)
	if flags.svg {
		spinner := newSpinnerWithContext(ctx, "Rendering SVG...")
		spinner.Start()
		data, err = dot.RenderSVG(ctx, src)
		spinner.Stop()
		if err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
	}

	if flags.output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(flags.output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(flags.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", flags.output, err)
	}
	printSuccess("Rendered %d species", g.NodeCount())
	printFile(flags.output)
	return nil
}
