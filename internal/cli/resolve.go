package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/beetree/pkg/errors"
	"github.com/matzehuels/beetree/pkg/pipeline"
)

// resolveCommand creates the resolve command, a debugging aid for the
// reference conventions used by mutation records.
func (c *CLI) resolveCommand() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "resolve <reference>",
		Short: "Show how a mutation reference resolves",
		Long: `Resolve a species reference the way mutation records are resolved during a
build, and print the matched species with the rule that matched it. When
nothing matches, the closest known ids are suggested.

--scope names the mod whose sources contain the reference; it selects the
symbolic names (e.g. FOREST) the reference may use.`,
		Example: `  beetree resolve Forestry:Common
  beetree resolve extrabees:ancient_stone
  beetree resolve COMMON --scope Forestry`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(nil, nil, c.Logger)
			ix, merged, err := runner.Index(cmd.Context(), pipeline.FromConfig(cfg))
			if err != nil {
				return err
			}

			ref := args[0]
			res, ok := ix.Resolve(ref, scope)
			if !ok {
				printError("%s does not resolve", StyleHighlight.Render(ref))
				for _, s := range ix.Suggest(ref, pipeline.DefaultMaxSuggestions) {
					printDetail("did you mean %s?", s)
				}
				return errors.New(errors.ErrCodeUnresolvedReference, "unresolved reference %q", ref)
			}

			printSuccess("%s", StyleHighlight.Render(merged.PublicID(res.ID)))
			printKeyValue("id", res.ID)
			printKeyValue("mod", merged.Owner[res.ID])
			printKeyValue("rule", res.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "mod whose symbolic names the reference may use")
	return cmd
}
