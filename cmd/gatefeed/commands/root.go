// Package commands implements the CLI commands for gatefeed.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gatefeed/gatefeed/internal/extract"
	"github.com/gatefeed/gatefeed/internal/logger"
	"github.com/gatefeed/gatefeed/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "gatefeed",
	Short: "Feed generator for challenge-protected news sites",
	Long: `Gatefeed renders pages that sit behind automated-traffic challenges,
extracts article records with per-site selector profiles, and serves
them as RSS/Atom/JSON feeds.

Examples:
  # Serve feeds over HTTP
  gatefeed serve --addr :8080

  # One-shot fetch, records as JSON on stdout
  gatefeed fetch wordpress https://example.com/news

  # Use a remote rendering service instead of a local browser
  gatefeed fetch generic https://example.com/news \
      --remote-url http://renderer.internal/render`,
	Version: version.String(),
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.gatefeed.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".gatefeed")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GATEFEED")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})

	loadProfiles()
}

// profileConfig mirrors extract.Profile for config-file site definitions.
type profileConfig struct {
	Name                string        `mapstructure:"name"`
	BaseURL             string        `mapstructure:"base_url"`
	ReadySelector       string        `mapstructure:"ready_selector"`
	DetailReadySelector string        `mapstructure:"detail_ready_selector"`
	ListingSelectors    []string      `mapstructure:"listing_selectors"`
	Title               fieldConfig   `mapstructure:"title"`
	Link                fieldConfig   `mapstructure:"link"`
	Summary             fieldConfig   `mapstructure:"summary"`
	Date                fieldConfig   `mapstructure:"date"`
	Category            fieldConfig   `mapstructure:"category"`
	Image               fieldConfig   `mapstructure:"image"`
	DetailContent       string        `mapstructure:"detail_content"`
	DetailRemove        []string      `mapstructure:"detail_remove"`
	DetailRemoveLinks   []string      `mapstructure:"detail_remove_links"`
	DetailDate          fieldConfig   `mapstructure:"detail_date"`
	DetailAuthor        fieldConfig   `mapstructure:"detail_author"`
	DetailCategory      fieldConfig   `mapstructure:"detail_category"`
}

type fieldConfig struct {
	Selector string `mapstructure:"selector"`
	Attr     string `mapstructure:"attr"`
}

func (f fieldConfig) field() extract.Field {
	return extract.Field{Selector: f.Selector, Attr: f.Attr}
}

// loadProfiles registers site profiles from the "sites" config section.
func loadProfiles() {
	var configs []profileConfig
	if err := viper.UnmarshalKey("sites", &configs); err != nil {
		logger.Warn("invalid sites config, using built-in profiles only", "error", err)
		return
	}

	for _, c := range configs {
		if c.Name == "" || c.BaseURL == "" {
			logger.Warn("skipping site profile without name/base_url")
			continue
		}
		extract.Register(extract.Profile{
			Name:                       c.Name,
			BaseURL:                    c.BaseURL,
			ReadySelector:              c.ReadySelector,
			DetailReadySelector:        c.DetailReadySelector,
			ListingSelectors:           c.ListingSelectors,
			Title:                      c.Title.field(),
			Link:                       c.Link.field(),
			Summary:                    c.Summary.field(),
			Date:                       c.Date.field(),
			Category:                   c.Category.field(),
			Image:                      c.Image.field(),
			DetailContent:              c.DetailContent,
			DetailRemove:               c.DetailRemove,
			DetailRemoveLinkSubstrings: c.DetailRemoveLinks,
			DetailDate:                 c.DetailDate.field(),
			DetailAuthor:               c.DetailAuthor.field(),
			DetailCategory:             c.DetailCategory.field(),
		})
		logger.Debug("site profile registered", "site", c.Name)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
