package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ipo-sim/internal/api"
	"github.com/sells-group/ipo-sim/internal/content"
	"github.com/sells-group/ipo-sim/internal/resolver"
	"github.com/sells-group/ipo-sim/internal/session"
	"github.com/sells-group/ipo-sim/pkg/geocode"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the firm dataset API for the map client",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mode, err := content.ParseMode(cfg.Content.Source)
		if err != nil {
			return err
		}

		st, cache, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		contentStore := content.NewStore(initLoader(), mode)
		unsubscribe := contentStore.Subscribe(func(ds *content.Dataset) {
			zap.L().Info("dataset loaded",
				zap.String("source", string(ds.Mode)),
				zap.Int("firms", len(ds.Firms)),
				zap.Int("dropped", len(ds.Dropped)),
			)
		})
		defer unsubscribe()
		contentStore.Reload(ctx)

		sess := session.New()
		provider := initInteractiveProvider()
		res := resolver.New(provider, cache, sess.Overrides,
			resolver.WithLimiter(rate.NewLimiter(rate.Every(cfg.Geocode.Delay()), 1)),
		)

		handler := api.New(api.Deps{
			Content:  contentStore,
			Session:  sess,
			Resolver: res,
			Cache:    cache,
			Searcher: geocode.NewSearcher(provider),
		}, api.WithCORSOrigins(cfg.Server.CORSOrigins)).Handler()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
