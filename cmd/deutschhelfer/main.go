// Command deutschhelfer asks OpenAI, Anthropic or Perplexity questions about
// German words, sentences and photos, and keeps a local history of answers.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/upb/deutschhelfer/app"
	"github.com/upb/deutschhelfer/config"
	"github.com/upb/deutschhelfer/internal/observability"
	"go.uber.org/zap"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}
	switch args[0] {
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return exitOK
	case "ask", "history", "key", "settings":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return exitUsage
	}

	cfg, err := config.New(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return exitError
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitError
	}

	logger.Debug("starting",
		zap.String("command", args[0]),
		zap.String("environment", cfg.Environment),
		zap.String("database", cfg.Database.LogString()))

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		fmt.Fprintln(stderr, "Could not open the local history store. See the log for details.")
		return exitError
	}
	defer func() {
		if err := deps.Close(context.Background()); err != nil {
			logger.Warn("shutdown error", zap.Error(err))
		}
	}()

	c := &cli{svc: deps.Assistant, stdout: stdout, stderr: stderr, logger: logger}
	switch args[0] {
	case "ask":
		return c.ask(ctx, args[1:])
	case "history":
		return c.history(ctx, args[1:])
	case "key":
		return c.key(ctx, args[1:])
	default:
		return c.settings(ctx, args[1:])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: deutschhelfer <command> [arguments]

Commands:
  ask [-provider name] [-image path|url] [question...]
                              ask a question, optionally about a photo
  history [-limit n] [-offset n]
                              list past answers, newest first
  history show <id>           print one answer
  history delete <id>         delete one answer
  history clear               delete all answers
  key set <provider> <key>    store an API key
  key delete <provider>       remove a stored API key
  key list                    show which keys are configured
  settings [-provider name] [-locale tag]
                              show or change the default provider and locale

Providers: openai, anthropic, perplexity
`)
}
