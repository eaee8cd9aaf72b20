package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mikeboe/research-agent/pkg/clients"
	"github.com/mikeboe/research-agent/pkg/config"
	"github.com/mikeboe/research-agent/pkg/reddit"
	"github.com/mikeboe/research-agent/pkg/research"
	"github.com/mikeboe/research-agent/pkg/websearch"
)

var question string

func main() {
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, as long as env vars are set
	}
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "research-agent",
		Short: "Ask a question across web search and discussion threads",
		Long:  `research-agent collects evidence from two web search engines and discussion threads, summarizes each source with an LLM, and synthesizes one grounded answer.`,
		Run: func(cmd *cobra.Command, args []string) {
			if !cmd.Flags().Changed("question") {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Enter question: ")
				input, _ := reader.ReadString('\n')
				question = strings.TrimSpace(input)
			}
			if question == "" {
				slog.Error("question cannot be empty")
				os.Exit(1)
			}

			pipeline, err := buildPipeline(cfg)
			if err != nil {
				slog.Error("failed to build pipeline", "error", err)
				os.Exit(1)
			}

			state, err := pipeline.Run(context.Background(), question)
			if err != nil {
				slog.Error("research failed", "error", err)
				printState(state)
				os.Exit(1)
			}
			printState(state)
		},
	}

	rootCmd.Flags().StringVarP(&question, "question", "q", "", "Question to research")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildPipeline(cfg *config.Config) (*research.Pipeline, error) {
	llm, err := clients.GoogleAI(cfg.ReasoningModel)
	if err != nil {
		return nil, fmt.Errorf("failed to init LLM: %w", err)
	}

	fetchTimeout := time.Duration(cfg.FetchTimeoutSec) * time.Second

	primary, err := websearch.New(cfg.PrimaryEngine, cfg.ApiKeyFor(cfg.PrimaryEngine), fetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to init primary search engine: %w", err)
	}
	secondary, err := websearch.New(cfg.SecondaryEngine, cfg.ApiKeyFor(cfg.SecondaryEngine), fetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to init secondary search engine: %w", err)
	}

	return &research.Pipeline{
		Primary:       primary,
		PrimaryName:   cfg.PrimaryEngine,
		Secondary:     secondary,
		SecondaryName: cfg.SecondaryEngine,
		Discussion:    reddit.NewClient(fetchTimeout),
		Analyzer:      &research.Analyzer{LLM: llm},
		Synthesizer:   &research.Synthesizer{LLM: llm},
		Opts: research.Options{
			WebResultLimit:  cfg.WebResultLimit,
			DiscussionLimit: cfg.DiscussionLimit,
			MaxThreads:      cfg.MaxThreads,
			MaxComments:     cfg.MaxComments,
			EvidenceTopK:    cfg.EvidenceTopK,
			Timeout:         time.Duration(cfg.PipelineTimeoutSec) * time.Second,
		},
	}, nil
}

func printState(state *research.ResearchState) {
	if state == nil {
		return
	}

	fmt.Println("\n=== Answer ===")
	if state.FinalAnswer != nil {
		fmt.Println(*state.FinalAnswer)
	} else {
		fmt.Println("No final answer was generated.")
	}

	printSection := func(title string, analysis *string) {
		fmt.Printf("\n--- %s ---\n", title)
		if analysis != nil {
			fmt.Println(*analysis)
		} else {
			fmt.Println("(not available)")
		}
	}
	printSection("Web summary", state.WebAnalysis)
	printSection("Secondary web summary", state.AltWebAnalysis)
	printSection("Discussion summary", state.DiscussionAnalysis)

	if len(state.SelectedThreadURLs) > 0 {
		fmt.Println("\n--- Discussion threads ---")
		for _, u := range state.SelectedThreadURLs {
			fmt.Println("-", u)
		}
	}
}
