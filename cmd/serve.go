package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-faulttree/cmd/config"
	"github.com/mattsolo1/grove-faulttree/internal/server"
	"github.com/mattsolo1/grove-faulttree/pkg/navigator"
)

var serveUlog = grovelogging.NewUnifiedLogger("grove-faulttree.cmd.serve")

func NewServeCmd(nav **navigator.Navigator, settings **config.Settings) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dataset over HTTP",
		Long: `Serve collections under /data/ (readable by another ft with --data http://host/data),
node lookup under /api/node and search of loaded nodes under /api/search.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := *settings
			n := *nav
			if err := initNavigator(ctx, n); err != nil {
				return err
			}
			if listen == "" {
				listen = s.Listen
			}
			logger, err := s.NewLogger()
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              listen,
				Handler:           server.New(n, logger.WithField("component", "server")),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			serveUlog.Success("Serving").
				Field("listen", listen).
				Pretty(fmt.Sprintf("Listening on %s", listen)).
				PrettyOnly().
				Emit()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from config)")

	return cmd
}
