// Package cli implements the feedtree command line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mwantia/feedtree/config"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	Namespace  string
	PrettyJSON bool

	// HTTPClient overrides the feed transport client.
	HTTPClient *http.Client
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "feedtree",
		Short:        "Browse a remote video feed as a read-only item tree",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Write a starter configuration
  feedtree config init ./feedtree.toml

  # List the synthesized children of an owner's folder
  feedtree --config ./feedtree.toml children --owner someone

  # Serve the preview page
  feedtree --config ./feedtree.toml serve --listen :8080 --owner someone
`),
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to the configuration file (default: ./feedtree.toml)")
	cmd.PersistentFlags().StringVar(&app.Namespace, "namespace", "", "Provider namespace (default: first configured provider)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newChildrenCmd(app))
	cmd.AddCommand(newFieldsCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

func (app *App) runtime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return nil, err
	}

	return newRuntime(ctx, cfg, app.HTTPClient)
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
