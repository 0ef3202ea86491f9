package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mwantia/feedtree/config"
	"github.com/mwantia/feedtree/log"
	"github.com/mwantia/feedtree/preview"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string
	var owners []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the preview page for the folders of the given owners",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := app.runtime(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close(context.Background())

			p, err := rt.selectProvider(app.Namespace)
			if err != nil {
				return writeErr(cmd, err)
			}
			for _, owner := range owners {
				folder := rt.folder(p, owner)
				rt.log.Info("Exposing feed of '%s' as folder %s", owner, folder)
			}

			if app.ConfigPath != "" {
				w, err := config.Watch(app.ConfigPath, func(cfg *config.Config) {
					// Only the log level applies live
					if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
						rt.log.SetLevel(level)
					}
					rt.log.Info("Configuration changed (%d providers); restart to apply", len(cfg.Providers))
				}, func(err error) {
					rt.log.Warn("Ignoring invalid configuration: %v", err)
				})
				if err != nil {
					rt.log.Warn("Unable to watch configuration: %v", err)
				} else {
					defer w.Close()
				}
			}

			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return writeErr(cmd, err)
			}

			server := &http.Server{
				Handler:           preview.NewHandler(rt.registry, rt.log.Named("preview")),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Serve(ln)
			}()
			rt.log.Info("Serving preview on %s", ln.Addr())
			fmt.Fprintf(cmd.OutOrStdout(), "Serving preview on %s\n", ln.Addr())

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return writeErr(cmd, err)
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8080", "Listen address")
	cmd.Flags().StringArrayVar(&owners, "owner", nil, "Feed author to expose (repeatable)")
	return cmd
}
