package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/research-orchestrator/pkg/agents"
	"github.com/mikeboe/research-orchestrator/pkg/config"
	"github.com/mikeboe/research-orchestrator/pkg/report"
	"github.com/mikeboe/research-orchestrator/pkg/research"
)

var query string

func main() {
	handler := slog.NewTextHandler(os.Stdout, nil)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// It's okay if .env doesn't exist, as long as env vars are set
	_ = godotenv.Load()

	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "research-orchestrator",
		Short: "A terminal-based research pipeline",
		Long:  `research-orchestrator runs an autonomous research pipeline: it plans web searches for a query, analyzes the results and writes a markdown report.`,
		Run: func(cmd *cobra.Command, args []string) {
			if !cmd.Flags().Changed("query") {
				// Interactive mode
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Enter research query: ")
				input, _ := reader.ReadString('\n')
				query = strings.TrimSpace(input)
			}
			if query == "" {
				slog.Error("Query cannot be empty")
				os.Exit(1)
			}

			ctx := context.Background()
			slog.Info("Starting research", "query", query)

			// No database for the CLI: indexed content stays in memory.
			collaborators, err := agents.BuildCollaborators(ctx, cfg, nil, logger)
			if err != nil {
				slog.Error("Failed to build pipeline", "error", err)
				os.Exit(1)
			}

			orch, err := research.New(collaborators, logger)
			if err != nil {
				slog.Error("Failed to init orchestrator", "error", err)
				os.Exit(1)
			}

			state := orch.Run(ctx, query)
			if state.Status == research.StatusError {
				slog.Error("Research failed", "error", state.Error)
				os.Exit(1)
			}

			path := filepath.Join(cfg.OutputDir, report.SanitizeFilename(query)+".md")
			fmt.Printf("\nResearch completed. Report written to %s\n", path)
		},
	}

	rootCmd.Flags().StringVarP(&query, "query", "q", "", "The research query")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
