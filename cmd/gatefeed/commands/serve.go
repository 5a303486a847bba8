package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gatefeed/gatefeed/internal/extract"
	"github.com/gatefeed/gatefeed/internal/pipeline"
	"github.com/gatefeed/gatefeed/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve site feeds over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		coord := buildCoordinator(ctx)
		backend := buildBackend()
		cfg := pipelineConfig()

		factory := func(profile extract.Profile) *pipeline.Pipeline {
			return pipeline.New(backend, profile, coord, cfg)
		}

		addr := viper.GetString("server.addr")
		if addr == "" {
			addr = ":8080"
		}
		return server.New(factory).Start(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("remote-url", "", "remote rendering service URL")
	serveCmd.Flags().Bool("browser", false, "use a local browser session")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("remote.url", serveCmd.Flags().Lookup("remote-url"))
	_ = viper.BindPFlag("browser.enabled", serveCmd.Flags().Lookup("browser"))

	rootCmd.AddCommand(serveCmd)
}
