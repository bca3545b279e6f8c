package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"oddsy/internal/agent"
	"oddsy/internal/cli"
	"oddsy/internal/config"
	"oddsy/internal/hook"
	"oddsy/internal/hook/handlers"
	"oddsy/internal/llm"
	"oddsy/internal/llm/gemini"
	"oddsy/internal/llm/openai"
	"oddsy/internal/logger"
	"oddsy/internal/mcp"
	"oddsy/internal/server"
	"oddsy/internal/service"
	"oddsy/internal/tools"
	"oddsy/internal/upstream"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath  string
	provider    string
	model       string
	temperature float32
	maxSteps    int
	verbose     bool
	noColor     bool
	jsonOutput  bool
	addr        string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "oddsy",
		Short:        "Oddsy sports betting analyst",
		Long:         "A tool-calling agent that shops moneyline odds, researches the matchup and makes one pick.",
		Version:      version,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default: search ./oddsy.yaml, ./configs, ~/.config/oddsy, /etc/oddsy)")
	pf.StringVar(&provider, "provider", "", "Model provider: openai or gemini")
	pf.StringVar(&model, "model", "", "Model to use")
	pf.Float32Var(&temperature, "temperature", 0, "Sampling temperature")
	pf.IntVar(&maxSteps, "max-steps", 0, "Step budget per run")
	pf.BoolVar(&verbose, "verbose", false, "Enable verbose output (debug mode)")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")

	chatCmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask Oddsy for a pick",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runChat,
	}
	chatCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw JSON response")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /api/chat, /healthz and /metrics",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the run_agent tool over MCP stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}

	rootCmd.AddCommand(chatCmd, serveCmd, mcpCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadWithDefaults()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.LLM.Provider = strings.ToLower(provider)
	}
	if flags.Changed("model") {
		cfg.LLM.Model = model
	}
	if flags.Changed("temperature") {
		cfg.LLM.Temperature = temperature
	}
	if flags.Changed("max-steps") {
		cfg.Agent.MaxSteps = maxSteps
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *logger.Logger {
	level := logger.ParseLevel(cfg.Log.Level)
	if cfg.Log.JSON {
		return logger.NewJSONLogger(w, level)
	}
	log := logger.NewLogger(w, level)
	if noColor {
		log.SetColorMode(false)
	}
	return log
}

func newModelClient(ctx context.Context, cfg *config.Config, creds config.Credentials) (llm.Client, error) {
	key, err := creds.ModelKey(cfg.LLM.Provider)
	if err != nil {
		return nil, err
	}
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		c, err := gemini.NewClient(ctx, key, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return openai.NewClient(key, cfg.LLM.Model, creds.OpenAIBaseURL), nil
	}
}

// newService wires the model client, credentials and hooks into a runner.
func newService(ctx context.Context, cfg *config.Config, log *logger.Logger, hooks *hook.Manager) (*service.Service, error) {
	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}
	log.Debug("credentials: %s", creds)

	client, err := newModelClient(ctx, cfg, creds)
	if err != nil {
		return nil, err
	}
	log.Debug("model client: %s/%s", client.Provider(), client.Model())

	hooks.Register(handlers.NewMetricsHandler())
	log.Debug("hooks: %v", hooks.Names())

	agentCfg := agent.Config{
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
		MaxSteps:     cfg.Agent.MaxSteps,
		SystemPrompt: agent.DefaultSystemPrompt,
	}
	if cfg.Agent.SystemPrompt != "" {
		agentCfg.SystemPrompt = cfg.Agent.SystemPrompt
	}

	return service.New(client, creds,
		service.WithAgentConfig(agentCfg),
		service.WithToolOptions(tools.Options{
			Upstream: upstream.Config{
				Attempts:  cfg.Upstream.Attempts,
				BaseDelay: cfg.Upstream.BaseDelay,
				Timeout:   cfg.Upstream.Timeout,
			},
			ListLimit: cfg.Upstream.ListLimit,
		}),
		service.WithHookManager(hooks),
		service.WithLogger(log),
	), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	log := newLogger(cfg, os.Stderr)

	hooks := hook.NewManager()
	if len(cfg.Hooks.ToolConfirm) > 0 {
		hooks.Register(handlers.NewToolConfirmHandler(cfg.Hooks.ToolConfirm...))
		log.Debug("tool confirmation enabled for: %v", cfg.Hooks.ToolConfirm)
	}
	if !verbose && !jsonOutput {
		hooks.Register(cli.NewProgressHandler(os.Stderr, !noColor))
	}

	svc, err := newService(ctx, cfg, log, hooks)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	resp, runErr := svc.Run(ctx, []llm.Message{{Role: llm.RoleUser, Content: question}})

	r := cli.NewRenderer(os.Stdout)
	r.SetColorMode(!noColor)
	if jsonOutput {
		if err := r.JSON(resp); err != nil {
			return err
		}
	} else {
		r.Render(resp)
	}
	return runErr
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	log := newLogger(cfg, os.Stdout)
	hooks := hook.NewManager()
	if len(cfg.Hooks.ToolConfirm) > 0 {
		log.Warn("hooks.tool_confirm needs a terminal; ignored in serve mode")
	}

	svc, err := newService(ctx, cfg, log, hooks)
	if err != nil {
		return err
	}

	log.Info("oddsy %s starting (provider=%s model=%s)", version, cfg.LLM.Provider, cfg.LLM.Model)
	return server.New(cfg.Server.Addr, svc, cfg.Server.ShutdownTimeout, log).Run(ctx)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	// stdout carries the protocol
	log := newLogger(cfg, os.Stderr)
	log.SetColorMode(false)
	hooks := hook.NewManager()
	if len(cfg.Hooks.ToolConfirm) > 0 {
		log.Warn("hooks.tool_confirm needs a terminal; ignored in mcp mode")
	}

	svc, err := newService(ctx, cfg, log, hooks)
	if err != nil {
		return err
	}
	return mcp.NewServer(svc, version, log).Run(ctx)
}
