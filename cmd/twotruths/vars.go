package cli

import (
	"github.com/spf13/cobra"

	"github.com/poorehouse/twotruths/internal/config"
)

// Shared CLI flags (used across multiple command files)
var (
	cfgFile string
	verbose bool
)

// ServerConfig holds the loaded server configuration (set by main)
var ServerConfig *config.Config

// EmbeddedConfig holds the raw default config YAML. It is seeded into
// the platform data directory on first run so operators can edit it.
var EmbeddedConfig []byte

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config, embedded []byte) *cobra.Command {
	ServerConfig = c
	EmbeddedConfig = embedded

	rootCmd := &cobra.Command{
		Use:   "twotruths",
		Short: "Two Truths & AI - a trivia game server",
		Long: `Two Truths & AI serves rounds of the classic party game with an LLM
as the game master. Each round has three statements; exactly one is a lie.

Just type 'twotruths' to start the server. Players connect over the
web UI, SSE stream, or websocket.`,
		Run: func(cmd *cobra.Command, args []string) {
			RunServer()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: platform data directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add commands
	rootCmd.AddCommand(VersionCmd())

	return rootCmd
}
