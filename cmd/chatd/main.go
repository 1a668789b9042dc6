// Chatd is an HTTP daemon exposing LLM chat workflows: plain chat,
// structured-output extraction, tool-using agents, retrieval-augmented
// generation, and document ingestion.
//
// Configuration is loaded from a YAML file with environment overrides. See
// internal/config for details.
//
// Usage:
//
//	# Start the server with defaults
//	chatd serve
//
//	# Configure via environment
//	SERVER_PORT=9090 OPENAI_API_KEY=sk-... chatd serve
//
//	# Ingest documents offline
//	chatd ingest notes.txt handbook.md
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file location.
	configPath string

	// Version information (set via ldflags during build)
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chatd",
	Short: "LLM chat workflow server",
	Long: `chatd serves chat, structured-output, agent, and retrieval-augmented
generation workflows over HTTP, backed by hosted model APIs and a pluggable
vector store.`,
	Version: version,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chatd\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/chatd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(versionCmd)
}
