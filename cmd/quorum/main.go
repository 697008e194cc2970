package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/zen-systems/quorum/pkg/agent"
	"github.com/zen-systems/quorum/pkg/config"
	"github.com/zen-systems/quorum/pkg/council"
	"github.com/zen-systems/quorum/pkg/history"
	"github.com/zen-systems/quorum/pkg/logx"
	"github.com/zen-systems/quorum/pkg/reasoner"
	"github.com/zen-systems/quorum/pkg/schema"
)

var (
	councilFile string
	debugFlag   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quorum",
		Short: "Multi-model research council with consensus aggregation",
		Long: `Quorum dispatches a research query to several independent LLM agents in
	parallel, waits for all of them to settle, and merges their answers into
	one verdict reporting agreement, disagreement, gaps, and confidence.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logx.Init(logx.Config{Debug: debugFlag, Pretty: true})
		},
	}

	rootCmd.PersistentFlags().StringVar(&councilFile, "config", "", "path to council config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(researchCmd())
	rootCmd.AddCommand(agentsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func researchCmd() *cobra.Command {
	var domainFlag string
	var maxTokens int
	var jsonFlag bool
	var heuristicFlag bool
	var noSaveFlag bool

	cmd := &cobra.Command{
		Use:   "research [query]",
		Short: "Run a query through the full council",
		Long: `Dispatches the query to every configured agent in parallel, then merges
	the answers. The synthesizer strategy is used when an OpenAI key is
	available; --heuristic forces the deterministic rule-based aggregation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			domain := schema.ParseDomain(domainFlag)

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			agents, err := createAgents(cfg)
			if err != nil {
				return err
			}

			var sink council.EventSink
			if !jsonFlag {
				sink = printProgress
			}

			c, err := buildCouncil(cfg, agents, heuristicFlag, sink)
			if err != nil {
				return err
			}

			if maxTokens <= 0 {
				maxTokens = cfg.Council.MaxTokens
			}

			result, err := c.Research(cmd.Context(), query, domain, maxTokens)
			if err != nil {
				var allFailed *council.AllFailedError
				if errors.As(err, &allFailed) {
					return fmt.Errorf("research failed: %w", err)
				}
				return err
			}

			if jsonFlag {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			} else {
				printResult(result)
			}

			if !noSaveFlag && cfg.Council.History.DSN != "" {
				saveResult(cmd.Context(), cfg.Council.History.DSN, result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&domainFlag, "domain", "general", "research domain (sports, finance, shopping, healthcare, general)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max tokens per agent response")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "print the merged result as JSON")
	cmd.Flags().BoolVar(&heuristicFlag, "heuristic", false, "force heuristic aggregation")
	cmd.Flags().BoolVar(&noSaveFlag, "no-save", false, "skip saving to the history store")
	return cmd
}

func agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List configured agents and their models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "AGENT\tMODEL\tKEY")
			for _, spec := range cfg.Council.Agents {
				status := "missing"
				if cfg.HasAgent(spec.ID) {
					status = "configured"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", spec.ID, spec.Model, status)
			}
			return w.Flush()
		},
	}
}

func historyCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past research sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit, offset)
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tDOMAIN\tAGENTS\tCOST\tQUERY")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t$%.4f\t%s\n",
					rec.ID[:8],
					rec.Timestamp.Format(time.DateTime),
					rec.Domain,
					rec.SuccessfulAgents, rec.TotalAgents,
					rec.TotalCostUSD,
					truncate(rec.Query, 60))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max sessions to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "sessions to skip")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}

			fmt.Printf("Sessions:     %d\n", stats.Sessions)
			fmt.Printf("Total tokens: %d\n", stats.TotalTokens)
			fmt.Printf("Total cost:   $%.4f\n", stats.TotalCostUSD)
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the council configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}
			if err := cfg.Council.Validate(); err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}

			configured := 0
			for _, spec := range cfg.Council.Agents {
				if cfg.HasAgent(spec.ID) {
					configured++
				}
			}
			fmt.Printf("Config OK: %d agents declared, %d with credentials\n",
				len(cfg.Council.Agents), configured)
			if configured == 0 {
				fmt.Println("Warning: no agent has credentials; research will fail with no agents available")
			}
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	if councilFile != "" {
		return config.LoadWithCouncilFile(councilFile)
	}
	return config.Load()
}

// createAgents builds an agent per configured seat that has credentials,
// skipping seats whose keys are missing.
func createAgents(cfg *config.Config) ([]agent.Agent, error) {
	var agents []agent.Agent
	for _, spec := range cfg.Council.Agents {
		if !cfg.HasAgent(spec.ID) {
			log.Debug().Str("agent", spec.ID).Msg("skipping agent without credentials")
			continue
		}

		var (
			ag  agent.Agent
			err error
		)
		switch spec.ID {
		case "openai":
			ag, err = agent.NewOpenAIAgent(cfg.Keys.OpenAI, spec.Model)
		case "google":
			ag, err = agent.NewGoogleAgent(cfg.Keys.Google, spec.Model)
		case "anthropic":
			ag, err = agent.NewAnthropicAgent(cfg.Keys.Anthropic, spec.Model)
		case "deepseek":
			ag, err = agent.NewDeepSeekAgent(cfg.Keys.DeepSeek, spec.Model)
		default:
			return nil, fmt.Errorf("unknown agent id %q", spec.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s agent: %w", spec.ID, err)
		}
		agents = append(agents, ag)
	}
	return agents, nil
}

func buildCouncil(cfg *config.Config, agents []agent.Agent, forceHeuristic bool, sink council.EventSink) (*council.Council, error) {
	dispatcher := council.NewDispatcher(
		council.WithPerAgentTimeout(cfg.Council.PerAgentTimeout()),
		council.WithMaxInFlight(cfg.Council.MaxInFlight),
		council.WithEventSink(sink),
	)

	opts := []council.Option{
		council.WithDispatcher(dispatcher),
		council.WithPricing(cfg.Council.Pricing),
	}

	if !forceHeuristic && cfg.Council.SynthesizerEnabled() && cfg.Keys.OpenAI != "" {
		r, err := reasoner.NewOpenAIReasoner(cfg.Keys.OpenAI, cfg.Council.Synthesizer.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create synthesizer: %w", err)
		}
		opts = append(opts, council.WithSynthesizer(
			council.NewSynthesizer(r, council.WithSynthesisTimeout(cfg.Council.SynthesisTimeout())),
		))
	}

	return council.New(agents, opts...), nil
}

func printProgress(ev council.Event) {
	switch ev.Kind {
	case council.EventStarted:
		fmt.Fprintf(os.Stderr, "… %s started\n", ev.AgentID)
	case council.EventSettled:
		if ev.Outcome != nil && ev.Outcome.Succeeded() {
			fmt.Fprintf(os.Stderr, "✓ %s completed\n", ev.AgentID)
		} else if ev.Outcome != nil {
			fmt.Fprintf(os.Stderr, "✗ %s failed: %s\n", ev.AgentID, ev.Outcome.Failure.Message)
		}
	}
}

func printResult(res *schema.MergedResult) {
	fmt.Printf("\nQuery:  %s\n", res.Query)
	fmt.Printf("Domain: %s\n", res.Domain)
	fmt.Printf("Agents: %d/%d succeeded", res.SuccessfulAgents, res.TotalAgents)
	if len(res.FailedAgents) > 0 {
		fmt.Printf(" (failed: %s)", strings.Join(res.FailedAgents, ", "))
	}
	fmt.Println()

	strategy := string(res.Strategy)
	if res.HeuristicFallback {
		strategy += " (synthesizer unavailable)"
	}
	if res.SynthesisDegraded {
		strategy += " (degraded parse)"
	}
	fmt.Printf("Strategy: %s\n", strategy)

	if len(res.Consensus) > 0 {
		fmt.Println("\nConsensus:")
		for _, point := range res.Consensus {
			fmt.Printf("  • %s\n", point)
		}
	}
	if len(res.Disagreements) > 0 {
		fmt.Println("\nDisagreements:")
		for _, point := range res.Disagreements {
			fmt.Printf("  • %s\n", point)
		}
	}
	if len(res.KnowledgeGaps) > 0 {
		fmt.Println("\nKnowledge gaps:")
		for _, gap := range res.KnowledgeGaps {
			fmt.Printf("  • %s\n", gap)
		}
	}
	if res.SynthesizedAnswer != "" {
		fmt.Printf("\nAnswer:\n%s\n", res.SynthesizedAnswer)
	}

	fmt.Printf("\nConfidence: %s", res.Confidence)
	if res.ConfidenceReasoning != "" {
		fmt.Printf(" — %s", res.ConfidenceReasoning)
	}
	fmt.Println()
	fmt.Printf("Tokens: %d  Cost: $%.4f\n", res.Usage.TotalTokens, res.CostUSD)
}

func saveResult(ctx context.Context, dsn string, res *schema.MergedResult) {
	store := history.Open(dsn)
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("history store unavailable, result not saved")
		return
	}
	rec, err := history.NewRecord(res)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode history record")
		return
	}
	if err := store.Save(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("failed to save history record")
		return
	}
	log.Info().Str("id", res.ID).Msg("saved research session")
}

func openStore() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Council.History.DSN == "" {
		return nil, fmt.Errorf("no history store configured (set history.dsn in council.yaml)")
	}
	store := history.Open(cfg.Council.History.DSN)
	if err := store.Init(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("history store unavailable: %w", err)
	}
	return store, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
