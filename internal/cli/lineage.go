package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/errors"
	"github.com/matzehuels/beetree/pkg/server"
)

// lineageFlags holds the flags of the lineage command.
type lineageFlags struct {
	descendants bool
	hideSecret  bool
	rebuild     bool
}

// lineageCommand creates the lineage command.
func (c *CLI) lineageCommand() *cobra.Command {
	var flags lineageFlags

	cmd := &cobra.Command{
		Use:   "lineage [species]",
		Short: "Print the ancestors or descendants of a species by generation",
		Long: `Print every species needed to breed the given species (its ancestors), or
with --descendants every species it leads to, grouped by generation.

The species may be given as a full id (Forestry:Common) or, when only one mod
defines it, by name. Without an argument an interactive picker is shown.

The dataset is read from the output directory, and built first when the
directory is empty or --rebuild is set.`,
		Example: `  beetree lineage Forestry:Imperial
  beetree lineage common --descendants
  beetree lineage`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLineage(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.descendants, "descendants", "d", false, "list descendants instead of ancestors")
	cmd.Flags().BoolVar(&flags.hideSecret, "hide-secret", false, "omit secret species")
	cmd.Flags().BoolVar(&flags.rebuild, "rebuild", false, "rebuild the dataset instead of reading the output directory")

	return cmd
}

func (c *CLI) runLineage(cmd *cobra.Command, args []string, flags lineageFlags) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	snap, err := c.loadSnapshot(ctx, cfg, flags.rebuild)
	if err != nil {
		return err
	}

	var id string
	if len(args) == 1 {
		if id, err = lookupSpecies(snap.Dataset, args[0]); err != nil {
			return err
		}
	} else {
		if !isInteractive() {
			return errors.New(errors.ErrCodeInvalidInput, "a species argument is required when not running in a terminal")
		}
		p := tea.NewProgram(NewSpeciesListModel(snap.Hierarchy.Nodes))
		final, err := p.Run()
		if err != nil {
			return err
		}
		fm, ok := final.(SpeciesListModel)
		if !ok || fm.Selected == nil {
			printDetail("No selection made")
			return nil
		}
		id = fm.Selected.ID
	}

	ids, err := lineage(snap, id, flags.descendants)
	if err != nil {
		return err
	}
	if flags.hideSecret {
		ids = withoutSecret(snap.Dataset, ids)
	}

	printLineage(snap, id, ids, flags.descendants)
	return nil
}

func lineage(snap *server.Snapshot, id string, descendants bool) ([]string, error) {
	if descendants {
		return snap.Hierarchy.Descendants(id)
	}
	return snap.Hierarchy.Ancestors(id)
}

func withoutSecret(d *dataset.Dataset, ids []string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(id string) bool {
		return d.Bees[id].IsSecret
	})
}

func printLineage(snap *server.Snapshot, id string, ids []string, descendants bool) {
	node, _ := snap.Hierarchy.Node(id)
	relation := "ancestors"
	if descendants {
		relation = "descendants"
	}
	fmt.Println(StyleTitle.Render(id) + StyleDim.Render(fmt.Sprintf("  generation %d · %d %s", node.Generation, len(ids), relation)))

	if len(ids) == 0 {
		printDetail("none")
		return
	}

	gens := snap.Hierarchy.Generations(ids)
	levels := make([]int, 0, len(gens))
	for g := range gens {
		levels = append(levels, g)
	}
	slices.Sort(levels)

	for _, g := range levels {
		names := make([]string, len(gens[g]))
		for i, other := range gens[g] {
			names[i] = speciesLabel(snap.Dataset, other)
		}
		fmt.Printf("  %s %s\n", StyleNumber.Render(fmt.Sprintf("%3d", g)), strings.Join(names, StyleDim.Render(", ")))
	}
}

func speciesLabel(d *dataset.Dataset, id string) string {
	if d.Bees[id].IsSecret {
		return StyleSecret.Render(id)
	}
	return StyleValue.Render(id)
}

// isInteractive reports whether stdin and stdout are both terminals.
func isInteractive() bool {
	for _, f := range []*os.File{os.Stdin, os.Stdout} {
		fi, err := f.Stat()
		if err != nil || fi.Mode()&os.ModeCharDevice == 0 {
			return false
		}
	}
	return true
}
