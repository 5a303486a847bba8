package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gatefeed/gatefeed/internal/extract"
	"github.com/gatefeed/gatefeed/internal/pipeline"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <site> [listing-url]",
	Short: "Run one extraction and print records as JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		site := args[0]
		profile, ok := extract.Lookup(site)
		if !ok {
			return fmt.Errorf("unknown site %q (known: %v)", site, extract.Names())
		}

		listingURL := profile.BaseURL
		if len(args) == 2 {
			listingURL = args[1]
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		p := pipeline.New(buildBackend(), profile, buildCoordinator(ctx), pipelineConfig())
		articles, err := p.Run(ctx, listingURL)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	},
}

func init() {
	fetchCmd.Flags().String("remote-url", "", "remote rendering service URL")
	fetchCmd.Flags().Bool("browser", false, "use a local browser session")
	fetchCmd.Flags().String("exec-path", "", "browser executable path")

	_ = viper.BindPFlag("remote.url", fetchCmd.Flags().Lookup("remote-url"))
	_ = viper.BindPFlag("browser.enabled", fetchCmd.Flags().Lookup("browser"))
	_ = viper.BindPFlag("browser.exec_path", fetchCmd.Flags().Lookup("exec-path"))

	rootCmd.AddCommand(fetchCmd)
}
