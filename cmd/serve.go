package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/devscout/internal/metrics"
	"github.com/spigell/devscout/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the devscout HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "listen address (default from server.listen)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.New(metrics.WithProcessCollectors())

	l := newLogger()
	l.Info("starting the devscout server", zap.String("version", version))

	rt := bootstrap(ctx, l, rec)
	defer rt.close()

	srv := server.New(rt.service, rt.logger,
		server.WithRecorder(rec),
		server.WithMetricsHandler(rec.Handler()),
	)

	if err := srv.Run(ctx, rt.config.Server.Listen); err != nil {
		rt.logger.Fatal("serving", zap.Error(err))
	}
}
