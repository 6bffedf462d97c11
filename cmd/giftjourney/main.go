package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	giftjourney "github.com/unowned-ai/giftjourney/pkg"
	"github.com/unowned-ai/giftjourney/pkg/config"
	pkgdb "github.com/unowned-ai/giftjourney/pkg/db"
	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/utils"
)

var (
	cfgFile      string
	apiURLFlag   string
	shareURLFlag string
	dbPath       string
	walMode      bool
	syncMode     string
	formatFlag   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "giftjourney",
	Short:   "Build, pay for and reveal gift journeys from your terminal.",
	Long:    ``,
	Version: fmt.Sprintf("v%s", giftjourney.Version),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for giftjourney.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(giftjourney completion bash)

  Bash (persist):
    $ giftjourney completion bash > /etc/bash_completion.d/giftjourney

  Zsh:
    $ giftjourney completion zsh > "${fpath[1]}/_giftjourney"

  Fish:
    $ giftjourney completion fish | source
    $ giftjourney completion fish > ~/.config/fish/completions/giftjourney.fish

  PowerShell:
    PS> giftjourney completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	PersistentPreRunE:     func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version number of giftjourney",
	Long:              `All software has versions. This is giftjourney's`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(giftjourney.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the local journey registry",
	Long:  `Provides commands for managing the SQLite database that remembers your journeys and checkouts.`,
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the registry schema to the latest version for the journeysdb component",
	Long: `Connects to the SQLite database (the --db flag, db.path setting or the system default) and
applies any necessary schema migrations to bring the journeysdb component up to the current
application schema version. If the database does not exist or is uninitialized for this
component, it will be created and initialized with the latest schema.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := utils.ResolveAndEnsureDBPath(cfg.DB.Path)
		if err != nil {
			return err
		}

		fmt.Printf("Attempting to upgrade journeysdb component in database at: %s (WAL: %t, Sync: %s)\n", path, cfg.DB.WAL, cfg.DB.Sync)

		dbConn, err := pkgdb.OpenDBConnection(path, cfg.DB.WAL, cfg.DB.Sync)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		return pkgdb.UpgradeDB(dbConn, path, pkgdb.TargetSchemaVersion)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect giftjourney settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Prints the settings after merging defaults, the config file, .env,
GIFTJOURNEY_* environment variables and command-line flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

// loadSettings merges .env, the config file and environment, then applies
// explicitly set flags on top.
func loadSettings(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		loaded.API.BaseURL = apiURLFlag
	}
	if flags.Changed("share-url") {
		loaded.Share.BaseURL = shareURLFlag
	}
	if flags.Changed("db") {
		loaded.DB.Path = dbPath
	}
	if flags.Changed("wal") {
		loaded.DB.WAL = walMode
	}
	if flags.Changed("sync") {
		loaded.DB.Sync = syncMode
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	switch formatFlag {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format %q (use text, json or yaml)", formatFlag)
	}

	cfg = loaded
	return nil
}

// newClient builds an API client from the effective settings.
func newClient() *journeys.Client {
	return journeys.NewClient(cfg.API.BaseURL,
		journeys.WithTimeout(cfg.API.Timeout),
		journeys.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
	)
}

// openDB opens the local registry, creating and upgrading it when needed.
func openDB() (*sql.DB, error) {
	path, err := utils.ResolveAndEnsureDBPath(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	dbConn, err := pkgdb.OpenDBConnection(path, cfg.DB.WAL, cfg.DB.Sync)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pkgdb.UpgradeDB(dbConn, path, pkgdb.TargetSchemaVersion); err != nil {
		dbConn.Close()
		return nil, err
	}
	return dbConn, nil
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML config file (default ~/.config/giftjourney/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Base URL of the journeys API (overrides api.base_url)")
	rootCmd.PersistentFlags().StringVar(&shareURLFlag, "share-url", "", "Web origin used in reveal links (overrides share.base_url)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the registry database file (uses a system-specific default if not provided)")
	rootCmd.PersistentFlags().BoolVar(&walMode, "wal", true, "Enable SQLite WAL (Write-Ahead Logging) mode")
	rootCmd.PersistentFlags().StringVar(&syncMode, "sync", "NORMAL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "o", "text", "Output format: text, json or yaml")

	dbCmd.AddCommand(dbUpgradeCmd)
	configCmd.AddCommand(configShowCmd)

	initJourneysCmd()
	initStopsCmd()
	initPaymentCmds()
	initRevealCmd()
	initExploreCmd()

	rootCmd.AddCommand(
		completionCmd,
		versionCmd,
		dbCmd,
		configCmd,
		journeysCmd,
		stopsCmd,
		checkoutCmd,
		paymentCmd,
		revealCmd,
		exploreCmd,
		mcpCmd,
	)
}

func main() {
	initCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
