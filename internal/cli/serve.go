package cli

import (
	"context"
	"net"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineageview/internal/server"
	"github.com/matzehuels/lineageview/pkg/config"
	"github.com/matzehuels/lineageview/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		data  string
		watch bool
		lf    layoutFlags
		vf    viewFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lineage datasets over HTTP",
		Long: `Serve lineage datasets over HTTP.

Datasets are read from a JSON file or every *.json file of a directory and
served at /lineage/{key}. With --watch, changed files are reloaded and the
next request lays the dataset out again. Open / for an index.

Rendered scenes are cached with the configured cache backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config.Server
			fs := cmd.Flags()
			if fs.Changed("addr") || cfg.Addr == "" {
				cfg.Addr = addr
			}
			if fs.Changed("data") {
				cfg.Data = data
			}
			if fs.Changed("watch") {
				cfg.Watch = watch
			}
			if cfg.Data == "" {
				cfg.Data = "."
			}

			opts := pipeline.Options{Logger: c.Logger, Engine: c.Engine}
			setCLIDefaults(&opts, c.config)
			lf.apply(cmd, &opts.Layout)
			vf.apply(cmd, &opts)
			if err := opts.ValidateForRender(); err != nil {
				return err
			}

			return c.runServe(cmd.Context(), server.Config{
				Addr:    cfg.Addr,
				Data:    cfg.Data,
				Watch:   cfg.Watch,
				Options: opts,
				Logger:  c.Logger,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().StringVarP(&data, "data", "d", "", "dataset file or directory (default: current directory)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload datasets when files change")
	vf.register(cmd)
	lf.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg server.Config) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()
	cfg.Runner = runner

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	printSuccess("Serving %d datasets from %s", srv.Store().Len(), cfg.Data)
	printNextStep("Open", "http://localhost"+displayAddr(cfg.Addr))
	printNewline()

	return srv.Serve(ctx)
}

// displayAddr turns a listen address into the part of a URL after the host.
func displayAddr(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	return ":" + port
}
