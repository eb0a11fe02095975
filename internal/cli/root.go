// Package cli implements the agent-recall CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kyleliao/agent-recall/internal/store"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-recall",
	Short: "Persistent observation memory for AI agents",
	Long: "A persistent store for structured agent observations with full-text search,\n" +
		"bounded retention, and time-windowed context views. SQLite-backed, single binary.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	RootCmd.PersistentFlags().StringP("db", "d", "", "Database path (default: $AGENT_RECALL_DB or ~/.agent-recall/memories.db)")
	RootCmd.PersistentFlags().Int("max-memories", store.DefaultMaxMemories, "Retention limit for memories")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	viper.BindPFlag("db", RootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("max_memories", RootCmd.PersistentFlags().Lookup("max-memories"))
	viper.BindPFlag("verbose", RootCmd.PersistentFlags().Lookup("verbose"))

	viper.SetEnvPrefix("AGENT_RECALL")
	viper.AutomaticEnv()

	// Optional config file: ~/.agent-recall/config.yaml
	if home, err := os.UserHomeDir(); err == nil {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(filepath.Join(home, ".agent-recall"))
		viper.ReadInConfig()
	}
}

// getDBPath resolves the database path once: flag > env > config file >
// default under the home directory.
func getDBPath() string {
	if p := viper.GetString("db"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".agent-recall", "memories.db")
}

func openStore() (*store.SQLiteStore, error) {
	return store.New(store.Options{
		Path:        getDBPath(),
		MaxMemories: viper.GetInt("max_memories"),
		Logger:      slog.Default(),
	})
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
