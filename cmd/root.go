package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bazlabs/baz/internal/agent"
	"github.com/bazlabs/baz/internal/config"
	"github.com/bazlabs/baz/internal/llm"
	"github.com/bazlabs/baz/internal/persona"
	"github.com/bazlabs/baz/internal/tools"
	"github.com/bazlabs/baz/internal/tui"
)

var (
	providerFlag string
	modelFlag    string
	personaFlag  string
	plainFlag    bool
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "baz",
	Short: "A conversational agent with tool calling",
	Long: `Baz is a small conversational agent. It talks to a language model,
lets the model call locally registered tools, and feeds the results back
until the model produces a final answer.

Supported providers:
  openai     - OpenAI Responses API (requires BAZ_OPENAI_API_KEY or OPENAI_API_KEY)
  openrouter - OpenRouter Chat Completions (requires OPENROUTER_API_KEY)`,
	RunE: runChat,
}

// defaultModels per provider, used when neither flag, persona, nor config name one
var defaultModels = map[string]string{
	"openai":     "gpt-5-nano",
	"openrouter": "openai/gpt-4o-mini",
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	p, err := persona.DefaultLoader().Resolve(resolvePersonaName(cfg))
	if err != nil {
		return err
	}

	selectedProvider := firstNonEmpty(providerFlag, p.Provider, cfg.DefaultProvider, "openai")
	selectedProvider = strings.ToLower(selectedProvider)

	selectedModel := firstNonEmpty(modelFlag, p.Model, cfg.DefaultModel, defaultModels[selectedProvider])

	var provider llm.Provider
	switch selectedProvider {
	case "openai":
		provider = llm.NewOpenAI(selectedModel)
	case "openrouter":
		provider = llm.NewOpenRouter(selectedModel)
	default:
		return fmt.Errorf("unknown provider: %s (supported: openai, openrouter)", selectedProvider)
	}

	ag, err := agent.New(provider, tools.DefaultRegistry(), p.SystemPrompt)
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, TimeFormat: "15:04:05"})
	switch {
	case verboseFlag:
		logger.SetLevel(log.DebugLevel)
	case plainFlag:
		logger.SetLevel(log.InfoLevel)
	default:
		// Keep the TUI clean.
		logger.SetLevel(log.ErrorLevel)
	}
	ag.SetLogger(logger)

	if plainFlag {
		return runPlain(ag, p.Name)
	}

	prog := tea.NewProgram(
		tui.New(ag, p.Name, selectedModel),
		tea.WithAltScreen(),
	)
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// runPlain is the line-oriented loop: read a line, run the turn, print the
// reply, repeat until EOF or interrupt.
func runPlain(ag *agent.Agent, name string) error {
	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Printf("\n>>> You: ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			return nil
		}

		result, err := ag.Chat(ctx, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("\n>>> %s: %s\n", titleCase(name), result.Response)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func resolvePersonaName(cfg *config.Config) string {
	if personaFlag != "" {
		return personaFlag
	}
	return cfg.DefaultPersona
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&providerFlag, "provider", "p", "", "LLM provider (openai, openrouter)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model to use (provider-specific)")
	rootCmd.Flags().StringVar(&personaFlag, "persona", "", "Persona to load (default: baz)")
	rootCmd.Flags().BoolVar(&plainFlag, "plain", false, "Run a plain line-oriented loop instead of the TUI")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}
