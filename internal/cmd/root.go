package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/devstrap/internal/bootstrap"
	"github.com/Iron-Ham/devstrap/internal/config"
	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "devstrap",
	Short: "Scaffold, install and run the WhatsApp AI Integration dev environment",
	Long: `devstrap creates the WhatsApp AI Integration project in the current
directory, installs its npm dependencies, starts the backend and frontend
dev servers, and keeps them running until you press Ctrl+C.

Running it again recreates the project directory from scratch.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBootstrap,
}

// configReadErr holds a config file error that should fail the run.
var configReadErr error

// Execute runs the root command. Pipeline failures have already been
// reported by the bootstrapper; anything else is printed here.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var perr *bootstrap.PipelineError
		if !errors.As(err, &perr) {
			console.New(os.Stderr).Error("%v", err)
		}
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/devstrap/devstrap.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "debug log level: DEBUG, INFO, WARN or ERROR")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.Flags().String("project-name", "", "directory name of the generated project")
	rootCmd.Flags().String("variant", "", "payload variant: basic or extended")
	rootCmd.Flags().Bool("no-browser", false, "do not open a browser once the servers are up")
	_ = viper.BindPFlag("project.name", rootCmd.Flags().Lookup("project-name"))
	_ = viper.BindPFlag("project.variant", rootCmd.Flags().Lookup("variant"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	cfgFile := viper.GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("devstrap")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/devstrap")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("DEVSTRAP")
	// DEVSTRAP_BROWSER_ENABLED for browser.enabled
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configReadErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configReadErr = fmt.Errorf("failed to read config: %w", err)
		}
	}
}
