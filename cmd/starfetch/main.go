package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/brizzai/starfetch/internal/auth"
	"github.com/brizzai/starfetch/internal/config"
	"github.com/brizzai/starfetch/internal/logger"
	"github.com/brizzai/starfetch/internal/server"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "starfetch",
	Short: "Sign in with GitHub and list your starred repositories",
	Long: `starfetch runs a small web server. Opening /login redirects to GitHub,
and the callback answers with every repository the signed-in user starred.

The OAuth application credentials are read from ID and SECRET, in the
environment or in a .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	rootCmd.AddCommand(serveCmd, configCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting starfetch",
		zap.String("version", config.GetVersionInfo()),
		zap.String("login_url", cfg.Server.BaseURL+"/login"),
	)

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.GetLogger().Named("fx")}
		}),
		fx.Supply(cfg),
		auth.Module,
		server.Module,
	)
	app.Run()

	return app.Err()
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	data := append([][]string{{"Key", "Value"}}, cfg.Summary()...)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
