package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bazel-mcp/internal/adapter/mcpserver"
	"bazel-mcp/internal/adapter/tool"
	"bazel-mcp/internal/infra/config"
	"bazel-mcp/internal/infra/logger"
	"bazel-mcp/internal/infra/tracer"
	"bazel-mcp/internal/usecase/bazel"
	"bazel-mcp/internal/usecase/inventory"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		case "--version":
			fmt.Println("bazel-mcp", Version)
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`bazel-mcp - MCP server exposing Bazel to AI tool-calling clients

USAGE:
    bazel-mcp [FLAGS]

The server speaks the Model Context Protocol on stdin/stdout. All
logging goes to stderr so the protocol channel stays clean.

FLAGS:
    -h, --help           Show this help message
    --version            Print the version and exit
    --config PATH        Config file path (default: ./bazel-mcp.yaml)
    --repo PATH          Bazel workspace root (default: current directory)
    --bazel PATH         Bazel executable override
    --prefer-bazelisk    Use bazelisk when found on PATH

CONFIGURATION:
    Config file: ./bazel-mcp.yaml (optional)
    Environment: BAZELMCP_* variables override config

TOOLS:
    bazel_list_targets   List discovered targets grouped by kind
    bazel_query          Run a bazel query expression
    bazel_build          Build targets
    bazel_run            Build and run a binary target
    bazel_test           Run tests
    repo_setup           Run the repository setup scripts`)
}

// cliFlags holds command-line overrides applied on top of the config
// file and environment.
type cliFlags struct {
	ConfigPath     string
	Repo           string
	Bazel          string
	PreferBazelisk bool
}

func parseFlags() cliFlags {
	flags := cliFlags{ConfigPath: "bazel-mcp.yaml"}
	for i := 1; i < len(os.Args); i++ {
		switch {
		case os.Args[i] == "--config" && i+1 < len(os.Args):
			flags.ConfigPath = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--config="):
			flags.ConfigPath = strings.TrimPrefix(os.Args[i], "--config=")
		case os.Args[i] == "--repo" && i+1 < len(os.Args):
			flags.Repo = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--repo="):
			flags.Repo = strings.TrimPrefix(os.Args[i], "--repo=")
		case os.Args[i] == "--bazel" && i+1 < len(os.Args):
			flags.Bazel = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--bazel="):
			flags.Bazel = strings.TrimPrefix(os.Args[i], "--bazel=")
		case os.Args[i] == "--prefer-bazelisk":
			flags.PreferBazelisk = true
		}
	}
	return flags
}

func run() error {
	// 1. Config
	flags := parseFlags()

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if flags.Repo != "" {
		cfg.Workspace.Root = flags.Repo
	}
	if flags.Bazel != "" {
		cfg.Bazel.Executable = flags.Bazel
	}
	if flags.PreferBazelisk {
		cfg.Bazel.PreferBazelisk = true
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. Workspace validation. Refusing to start against a directory
	// that is not a bazel workspace beats failing on the first call.
	root, err := bazel.ValidateWorkspace(cfg.Workspace.Root, cfg.Workspace.Markers)
	if err != nil {
		return err
	}
	log.Info("workspace validated", "root", root)

	// 4. Bazel client
	executable := bazel.Locate(cfg.Bazel.Executable, cfg.Bazel.PreferBazelisk)
	log.Info("bazel executable resolved", "executable", executable)

	runner := bazel.NewRunner(bazel.RunnerConfig{
		WorkDir:   root,
		Timeout:   cfg.Bazel.CommandTimeoutDuration(),
		TailBytes: cfg.Bazel.OutputTailBytes,
	}, log)
	client := bazel.NewClient(executable, cfg.Bazel.DefaultFlags, runner, log)

	// 5. Inventory cache
	cache := inventory.New(client, root, cfg.TargetKinds(), cfg.Bazel.UniversePattern, log)

	// 6. Tools
	registry := tool.NewRegistry(log)
	registry.MustRegister(
		tool.NewTargetsTool(cache, log),
		tool.NewQueryTool(client, log),
		tool.NewBuildTool(client, log),
		tool.NewRunTool(client, log),
		tool.NewTestTool(client, cfg.Bazel.UniversePattern, log),
		tool.NewSetupTool(root, client, cache, log),
	)

	// 7. MCP server on stdio
	srv := mcpserver.New(Version, registry, cache, log)

	// 8. Graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info("shutting down")
	return nil
}
