package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/lineage"
	"github.com/matzehuels/lineageview/pkg/pipeline"
)

// renderCommand creates the render command. It accepts a dataset, which is
// laid out first, or a scene written by 'layout'.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		refresh    bool
		lf         layoutFlags
		vf         viewFlags
	)

	cmd := &cobra.Command{
		Use:   "render [dataset.json | scene.json | URL]",
		Short: "Render a lineage graph to SVG, HTML, PNG, PDF, JSON or DOT",
		Long: `Render a lineage graph.

The input is either a dataset, which is laid out first, or a scene.json file
written by 'layout'. Datasets can also be fetched from an http(s) URL; the
[remote] config section sets request headers and how long bodies are cached.

Interactive SVG and HTML output pan with the mouse and zoom with the wheel;
use --static for a plain document. PNG and PDF need rsvg-convert (librsvg)
on PATH.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Logger: c.Logger, Engine: c.Engine, Refresh: refresh}
			setCLIDefaults(&opts, c.config)
			lf.apply(cmd, &opts.Layout)
			vf.apply(cmd, &opts)
			opts.Formats = parseFormats(formatsStr)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), html, json, dot, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if cached")
	vf.register(cmd)
	lf.register(cmd)

	return cmd
}

// runRender loads the input, lays it out unless it is a scene, and writes
// one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	data, err := c.readInput(ctx, runner, input, opts.Refresh)
	if err != nil {
		return err
	}

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	var (
		s         *layout.Scene
		artifacts map[string][]byte
		cached    bool
	)
	if isSceneFile(data) {
		s, err = pipeline.UnmarshalScene(data)
		if err == nil {
			artifacts, cached, err = runner.RenderWithCacheInfo(ctx, s, opts)
		}
	} else {
		var ds *lineage.Dataset
		ds, err = lineage.UnmarshalDataset(data)
		if err == nil {
			var res *pipeline.Result
			res, err = runner.Execute(ctx, ds, opts)
			if err == nil {
				s, artifacts = res.Scene, res.Artifacts
				cached = res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit
			}
		}
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render %s: %w", input, err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d formats", len(artifacts)))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(opts.Formats, output, outputName(input))
	for _, format := range opts.Formats {
		if err := os.WriteFile(paths[format], artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", paths[format], err)
		}
	}

	printSuccess("Rendered %s", input)
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	printStats(s, cached)
	return nil
}

// outputPaths maps each format to its output file. A single format with an
// explicit output is written there verbatim; otherwise files share a base
// path and differ in extension.
func outputPaths(formats []string, output, input string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + extension(f)
	}
	return paths
}

// extension returns the file extension for format. Scene JSON gets its own
// suffix so it never overwrites the dataset it came from.
func extension(format string) string {
	if format == pipeline.FormatJSON {
		return ".scene.json"
	}
	return "." + format
}
