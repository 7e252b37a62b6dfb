package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineageview/pkg/lineage"
	"github.com/matzehuels/lineageview/pkg/pipeline"
)

// layoutCommand creates the layout command for computing scenes.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		refresh bool
		lf      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [dataset.json | URL]",
		Short: "Compute the scene of a lineage dataset",
		Long: `Compute the scene of a lineage dataset.

The layout command positions every entity of the dataset and routes the
parent → child edges between them. The output is a scene.json file (same
format as 'render -f json') that 'render' draws without laying out again.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Logger: c.Logger, Engine: c.Engine, Refresh: refresh}
			setCLIDefaults(&opts, c.config)
			lf.apply(cmd, &opts.Layout)
			return c.runLayout(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.scene.json)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if the scene is cached")
	lf.register(cmd)

	return cmd
}

// runLayout loads the dataset, computes its scene and writes it out.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string) error {
	if err := opts.ValidateForLayout(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	data, err := c.readInput(ctx, runner, input, opts.Refresh)
	if err != nil {
		return err
	}
	ds, err := lineage.UnmarshalDataset(data)
	if err != nil {
		return fmt.Errorf("load dataset %s: %w", input, err)
	}

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %d entities...", ds.Len()))
	spinner.Start()

	s, cacheHit, err := runner.ComputeSceneWithCacheInfo(ctx, ds, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	prog.done("Laid out " + input)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", outputName(input)) + ".scene.json"
	}
	out, err := pipeline.MarshalScene(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(s, cacheHit)
	if missing := ds.Dangling(); len(missing) > 0 {
		printWarning("%d parents are not in the dataset, their edges were dropped", len(missing))
	}
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}
