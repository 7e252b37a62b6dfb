package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineageview/pkg/config"
	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/pipeline"
)

func parsedCommand(t *testing.T, args ...string) (*cobra.Command, *layoutFlags, *viewFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	lf, vf := &layoutFlags{}, &viewFlags{}
	lf.register(cmd)
	vf.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd, lf, vf
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[layout]
node_width = 300
direction = "RL"

[view]
width = 500
height = 400
fit = true
`))
	if err != nil {
		t.Fatal(err)
	}

	cmd, lf, vf := parsedCommand(t, "--width", "700", "--direction", "TB", "--select", "a,b", "--select", "c")

	var opts pipeline.Options
	setCLIDefaults(&opts, cfg)
	lf.apply(cmd, &opts.Layout)
	vf.apply(cmd, &opts)

	if opts.Width != 700 {
		t.Errorf("Width = %v, want flag value 700", opts.Width)
	}
	if opts.Height != 400 {
		t.Errorf("Height = %v, want config value 400", opts.Height)
	}
	if !opts.Fit {
		t.Error("Fit from config should survive unset flag")
	}
	if opts.Layout.Direction != layout.DirectionTB {
		t.Errorf("Direction = %v, want TB", opts.Layout.Direction)
	}
	if opts.Layout.NodeWidth != 300 {
		t.Errorf("NodeWidth = %v, want config value 300", opts.Layout.NodeWidth)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(opts.Selected, want) {
		t.Errorf("Selected = %v, want %v", opts.Selected, want)
	}
	if opts.PNGScale != pipeline.DefaultPNGScale {
		t.Errorf("PNGScale = %v, want default", opts.PNGScale)
	}
}

func TestFlagDefaultsDoNotOverrideConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Layout.NodeSep = 80
	cfg.View.Scale = 1.5

	cmd, lf, vf := parsedCommand(t)
	var opts pipeline.Options
	setCLIDefaults(&opts, cfg)
	lf.apply(cmd, &opts.Layout)
	vf.apply(cmd, &opts)

	if opts.Layout.NodeSep != 80 {
		t.Errorf("NodeSep = %v, want 80", opts.Layout.NodeSep)
	}
	if opts.Scale != 1.5 {
		t.Errorf("Scale = %v, want 1.5", opts.Scale)
	}
}

func TestSetCLIDefaultsIcons(t *testing.T) {
	cfg := config.Default()
	cfg.Icons.Table = map[string]string{"snowflake": "icon-snowflake"}

	var opts pipeline.Options
	setCLIDefaults(&opts, cfg)
	if len(opts.Icons) != 1 {
		t.Fatalf("Icons = %v, want one resource type", opts.Icons)
	}
	if opts.Logger == nil {
		t.Error("defaults should set a logger")
	}
}

func TestConfigCommand(t *testing.T) {
	c, _ := testCLI(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\naddr = \":9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	run(t, c, "--config", path, "config", "show")
	if c.config.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", c.config.Server.Addr)
	}
	if !strings.Contains(c.config.String(), `addr = ":9090"`) {
		t.Error("config show should print the loaded values")
	}
}

func TestCompletionCommand(t *testing.T) {
	c, _ := testCLI(t)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), appName) {
		t.Error("bash completion should mention the command name")
	}
}

func TestCacheClearCommand(t *testing.T) {
	c, _ := testCLI(t)
	input := writeDataset(t)
	run(t, c, "render", input, "-f", "svg")

	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) == 0 {
		t.Fatal("render should populate the cache directory")
	}

	run(t, c, "--no-cache", "cache", "clear")
	var files int
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files++
		}
		return nil
	})
	if files != 0 {
		t.Errorf("%d cache files left after clear", files)
	}
}

func TestDisplayAddr(t *testing.T) {
	tests := map[string]string{
		":8080":          ":8080",
		"127.0.0.1:9000": ":9000",
		"[::1]:7000":     ":7000",
		"nonsense":       "",
	}
	for addr, want := range tests {
		if got := displayAddr(addr); got != want {
			t.Errorf("displayAddr(%q) = %q, want %q", addr, got, want)
		}
	}
}
