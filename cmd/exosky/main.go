package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cosmossdk.io/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oxygene76/exosky/pkg/analysis"
	"github.com/oxygene76/exosky/pkg/astronomy/sky"
	"github.com/oxygene76/exosky/pkg/catalog"
	"github.com/oxygene76/exosky/pkg/utils"
)

const (
	// Application constants
	appName = "exosky"
	version = "v1.0.0"
)

var (
	// Configuration
	cfgFile string
	verbose bool

	config *utils.Config
	logger log.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Explore the night sky seen from exoplanets",
	Long: `Exosky shows how the night sky would look from an exoplanet. It filters
a star catalog down to the stars above the planet's horizon and brighter than
a magnitude limit, summarizes their brightness and renders star charts.

Charts are available as an interactive HTML page, a high resolution PNG and
through the built-in web server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" || cmd.Name() == "help" {
			return nil
		}
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or $HOME/.exosky/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(planetsCmd)
	rootCmd.AddCommand(skyCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(constellationCmd)
	rootCmd.AddCommand(serveCmd)

	constellationCmd.AddCommand(constellationSaveCmd)

	planetsCmd.Flags().String("search", "", "only list planets whose name contains this text")

	skyCmd.Flags().Float64("limit", 0, "magnitude limit, exclusive (default from config)")
	skyCmd.Flags().String("format", "summary", "output format (summary|json|csv)")
	skyCmd.Flags().String("output", "", "write to this file instead of stdout")

	renderCmd.Flags().Float64("limit", 0, "magnitude limit, exclusive (default from config)")
	renderCmd.Flags().String("output", "night_sky.html", "HTML file to write")

	exportCmd.Flags().Float64("limit", 0, "magnitude limit, exclusive (default from config)")

	constellationSaveCmd.Flags().String("planet", "", "check that every star is visible from this planet")

	serveCmd.Flags().String("addr", "", "listen address (default from config)")
}

// initCmd writes the default configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to the file given by --config, or to
$HOME/.exosky/config.yaml. An existing file is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			p, err := utils.GetConfigPath()
			if err != nil {
				return fmt.Errorf("failed to resolve config path: %w", err)
			}
			path = p
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Configuration already exists at %s\n", path)
			return nil
		}

		if err := utils.SaveConfig(utils.DefaultConfig(), path); err != nil {
			return fmt.Errorf("failed to write configuration: %w", err)
		}

		fmt.Printf("✅ Configuration written to %s\n", path)
		return nil
	},
}

func initConfig() error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	cfg, err := utils.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	l, err := utils.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	config = cfg
	logger = l
	return nil
}

// loadDotEnv loads EXOSKY_* overrides from the given files, or from .env in
// the working directory. Missing files are ignored, malformed ones are not.
func loadDotEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load .env: %w", err)
}

// loadManager loads the catalog and builds the analysis manager. An explicit
// --limit flag on cmd overrides the configured magnitude limit.
func loadManager(cmd *cobra.Command) (*analysis.Manager, error) {
	cat, err := catalog.Load(config.Data, logger)
	if err != nil {
		return nil, err
	}

	filter := sky.Filter{
		MagnitudeLimit: config.Sky.MagnitudeLimit,
		Radius:         config.Sky.Radius,
	}
	if f := cmd.Flags().Lookup("limit"); f != nil && f.Changed {
		limit, err := cmd.Flags().GetFloat64("limit")
		if err != nil {
			return nil, err
		}
		filter.MagnitudeLimit = limit
	}

	return analysis.NewManager(cat, filter, config.Sky.HistogramBins, logger), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
