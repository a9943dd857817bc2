package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hllvc/mtg-tagger/internal/app"
	"github.com/hllvc/mtg-tagger/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "mtg-tagger",
		Usage: "Trading-card tagging service with Anthropic OAuth login",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			keyCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "server--host",
				Usage: "server host",
				Value: app.DefaultConfigServerHost,
			},
			&cli.IntFlag{
				Name:  "server--port",
				Usage: "server port",
				Value: int(app.DefaultConfigServerPort),
			},
			&cli.StringFlag{
				Name:  "oauth--client-id",
				Usage: "OAuth client identifier",
			},
			&cli.StringFlag{
				Name:  "oauth--redirect-uri",
				Usage: "OAuth callback address registered for the client",
			},
			&cli.StringFlag{
				Name:  "session--backend",
				Usage: "session store backend (memory|redis)",
				Value: string(app.DefaultConfigSessionBackend),
			},
			&cli.StringFlag{
				Name:  "telemetry--exporter",
				Usage: "log exporter (none|stdout|otlp-grpc|otlp-http)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	flushLogs, err := observability.Instrument(ctx, observability.Config{
		Level:    cfg.LogLevel,
		Format:   string(cfg.LogFormat),
		Exporter: observability.Exporter(cfg.Telemetry.Exporter),
		Endpoint: cfg.Telemetry.Endpoint,
		Insecure: cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}
	defer func() {
		if err := flushLogs(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, "failed to flush logs:", err)
		}
	}()

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting")

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}

func keyCommand() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "manage the fallback Anthropic API key",
		Commands: []*cli.Command{
			{
				Name:   "set",
				Usage:  "store the fallback API key (prompts on a terminal, reads stdin otherwise)",
				Action: keySetAction,
			},
		},
	}
}

func keySetAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := cfg.Anthropic.FallbackKey.NewStore()
	if err != nil {
		return fmt.Errorf("failed to create key store: %w", err)
	}
	if store == nil {
		return errors.New("no writable key storage configured (set anthropic.fallback_key.storage to file or keyring)")
	}

	key, err := readKey()
	if err != nil {
		return err
	}
	if key == "" {
		return errors.New("empty api key")
	}

	if err := store.Write(ctx, key); err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}

	fmt.Fprintln(os.Stderr, "api key stored")
	return nil
}

// readKey reads the API key without echo when attached to a terminal, or a
// single line from stdin when piped.
func readKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "API key: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading api key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading api key from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
