package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taskweave/taskweave"
	"github.com/taskweave/taskweave/agent"
	"github.com/taskweave/taskweave/backend"
	"github.com/taskweave/taskweave/backend/anthropic"
	"github.com/taskweave/taskweave/backend/openai"
	"github.com/taskweave/taskweave/config"
	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/logging"
	"github.com/taskweave/taskweave/memory"
	"github.com/taskweave/taskweave/tools"
)

const orchestratorRole = "orchestrator"

func newChatCmd() *cobra.Command {
	var (
		role      string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			tw, cleanup, err := buildRuntime(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			return chatLoop(cmd.Context(), tw, role, sessionID)
		},
	}
	cmd.Flags().StringVar(&role, "role", orchestratorRole, "role to converse with")
	cmd.Flags().StringVar(&sessionID, "session", "default", "session id for conversation history")
	return cmd
}

func newRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List the configured roles",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			tw, cleanup, err := buildRuntime(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			for _, role := range tw.Factory().Roles() {
				fmt.Println(role)
			}
			return nil
		},
	}
}

// buildRuntime assembles the backend, stores, tools and roles from config.
// The returned cleanup closes any opened databases.
func buildRuntime(cfg *config.Config) (*taskweave.TaskWeave, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := logging.New(os.Stderr, level)

	llm, err := buildBackend(cfg)
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	cleanup := func() {
		for _, fn := range closers {
			fn()
		}
	}

	var store core.MemoryStore = memory.NewInMemoryStore()
	if cfg.MemoryPath != "" {
		sqliteStore, err := memory.NewSQLiteStore(cfg.MemoryPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open memory store: %w", err)
		}
		closers = append(closers, func() { sqliteStore.Close() })
		store = sqliteStore
	}

	tw := taskweave.New(func(o *taskweave.Options) {
		o.Backend = llm
		o.Memory = store
		o.Logger = logger
	})

	if err := registerTools(cfg, tw, &closers); err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := registerRoles(cfg, tw); err != nil {
		cleanup()
		return nil, nil, err
	}
	return tw, cleanup, nil
}

func buildBackend(cfg *config.Config) (backend.Backend, error) {
	switch cfg.Backend {
	case "openai":
		return openai.New(func(o *openai.Options) {
			if cfg.OpenAI.Model != "" {
				o.Model = cfg.OpenAI.Model
			}
			o.Temperature = cfg.OpenAI.Temperature
			o.MaxCompletionTokens = cfg.OpenAI.MaxTokens
			o.APIKey = cfg.OpenAI.APIKey
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.Anthropic.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Anthropic.Model)
			}
			o.Temperature = cfg.Anthropic.Temperature
			o.MaxTokens = cfg.Anthropic.MaxTokens
			o.APIKey = cfg.Anthropic.APIKey
		}), nil
	case "echo":
		return backend.Echo{}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want openai, anthropic or echo)", cfg.Backend)
	}
}

// registerTools wires the builtin tools. Database-backed tools are only
// registered when their database is configured.
func registerTools(cfg *config.Config, tw *taskweave.TaskWeave, closers *[]func()) error {
	if err := tw.RegisterTool(tools.NewCalculator()); err != nil {
		return err
	}
	if err := tw.RegisterTool(tools.NewWebSearch()); err != nil {
		return err
	}
	if err := tw.RegisterTool(tools.NewBrowse()); err != nil {
		return err
	}

	if cfg.CompanyDBPath != "" {
		sqlTool, err := tools.NewSQLQueryFromPath(cfg.CompanyDBPath)
		if err != nil {
			return err
		}
		if err := tw.RegisterTool(sqlTool); err != nil {
			return err
		}
	}

	if cfg.KnowledgePath != "" && cfg.Backend == "openai" {
		db, err := sql.Open("sqlite3", cfg.KnowledgePath)
		if err != nil {
			return fmt.Errorf("open knowledge base: %w", err)
		}
		*closers = append(*closers, func() { db.Close() })
		embedder := openai.NewEmbedder()
		if err := tw.RegisterTool(tools.NewKnowledgeSearch(db, embedder)); err != nil {
			return err
		}
	}

	return tw.EnableDelegation()
}

// registerRoles configures the orchestrator and the specialist roles it can
// delegate to. Specialists only get roles whose tools were registered.
func registerRoles(cfg *config.Config, tw *taskweave.TaskWeave) error {
	registry := tw.Registry()

	orchestratorTools := []string{agent.DelegateToolName, "calculator"}
	orchestrator := agent.Config{
		Role: orchestratorRole,
		Instructions: cfg.SystemPrompt + "\n\n" +
			"You coordinate a team of specialists. Use delegate_task to hand a " +
			"task to a specialist role when it matches their expertise; answer " +
			"directly otherwise.",
		Tools:            orchestratorTools,
		MaxIterations:    cfg.Loop.MaxIterations,
		MaxRetries:       cfg.Loop.MaxRetries,
		BackendTimeout:   cfg.Loop.BackendTimeout,
		ToolTimeout:      cfg.Loop.ToolTimeout,
		MaxParallelTools: cfg.Loop.MaxParallelTools,
		HistoryWindow:    cfg.Loop.HistoryWindow,
	}
	if err := tw.RegisterRole(orchestrator); err != nil {
		return err
	}

	specialists := []agent.Config{
		{
			Role: "researcher",
			Instructions: "You are a research specialist. Use web_search to find " +
				"sources and browse_webpage to read them, then summarize your findings " +
				"with source URLs.",
			Tools: []string{"web_search", "browse_webpage"},
		},
	}
	if registry.Has("sql_query") {
		specialists = append(specialists, agent.Config{
			Role: "database_analyst",
			Instructions: "You are a database analyst. Inspect the schema before " +
				"querying, then answer using sql_query results only.",
			Tools: []string{"sql_query"},
		})
	}
	if registry.Has("knowledge_search") {
		specialists = append(specialists, agent.Config{
			Role: "knowledge_expert",
			Instructions: "You answer questions about LLMs and agentic AI using " +
				"knowledge_search. Cite the sources returned with each chunk.",
			Tools: []string{"knowledge_search"},
		})
	}

	for _, spec := range specialists {
		spec.MaxIterations = cfg.Loop.MaxIterations
		spec.MaxRetries = cfg.Loop.MaxRetries
		spec.BackendTimeout = cfg.Loop.BackendTimeout
		spec.ToolTimeout = cfg.Loop.ToolTimeout
		spec.MaxParallelTools = cfg.Loop.MaxParallelTools
		spec.HistoryWindow = cfg.Loop.HistoryWindow
		if err := tw.RegisterRole(spec); err != nil {
			return err
		}
	}
	return nil
}

// chatLoop reads user lines until exit/quit and prints each outcome.
func chatLoop(ctx context.Context, tw *taskweave.TaskWeave, role, sessionID string) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Printf("Chatting with %q (session %q). Type exit or quit to finish.\n", role, sessionID)
	for {
		fmt.Print("User> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			fmt.Println("Bye!")
			return nil
		}

		outcome, err := tw.Run(ctx, role, sessionID, line)
		if err != nil {
			return err
		}
		switch outcome.Kind {
		case core.OutcomeDone:
			fmt.Printf("Assistant> %s\n", outcome.Answer)
		default:
			fmt.Printf("Assistant> [%s] %s\n", outcome.Kind, outcome.Reason)
		}
	}
}
