package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/beetree/pkg/config"
	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/diag"
	"github.com/matzehuels/beetree/pkg/errors"
	"github.com/matzehuels/beetree/pkg/hierarchy"
	"github.com/matzehuels/beetree/pkg/pipeline"
	"github.com/matzehuels/beetree/pkg/server"
)

// loadSnapshot returns the dataset in cfg.OutputDir together with its
// hierarchy. The pipeline runs instead when the directory holds no dataset
// or rebuild is set; its result is not written back.
func (c *CLI) loadSnapshot(ctx context.Context, cfg *config.Config, rebuild bool) (*server.Snapshot, error) {
	logger := loggerFromContext(ctx)

	if !rebuild && hasDataset(cfg.OutputDir) {
		d, err := dataset.Read(cfg.OutputDir)
		if err != nil {
			return nil, err
		}
		report := &diag.Report{}
		h := hierarchy.FromDataset(d, hierarchy.Options{Cap: cfg.RelaxationCap}, report)
		logger.Debug("loaded dataset", "dir", cfg.OutputDir, "species", len(d.Bees), "groups", len(d.Mutations))
		return &server.Snapshot{Dataset: d, Hierarchy: h, Report: report}, nil
	}

	logger.Info("building dataset", "mods", len(cfg.Mods))
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	res, err := runner.Execute(ctx, pipeline.FromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return &server.Snapshot{Dataset: res.Dataset, Hierarchy: res.Hierarchy, Report: res.Report}, nil
}

func hasDataset(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, dataset.BeesFile))
	return err == nil
}

// lookupSpecies maps a command-line argument to a species id. Besides exact
// ids it accepts a bare species name when exactly one mod defines it,
// compared case-insensitively.
func lookupSpecies(d *dataset.Dataset, arg string) (string, error) {
	if _, ok := d.Bees[arg]; ok {
		return arg, nil
	}
	var matches []string
	for _, id := range d.BeeIDs() {
		if strings.EqualFold(id, arg) || strings.EqualFold(d.Bees[id].Name, arg) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", errors.New(errors.ErrCodeSpeciesNotFound, "species %q not found", arg)
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "species %q is ambiguous: %s", arg, strings.Join(matches, ", "))
	}
}
