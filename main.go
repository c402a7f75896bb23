package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/example/hanzi/internal/app"
	"github.com/example/hanzi/internal/config"
	"github.com/example/hanzi/internal/logger"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case sig := <-sigChan:
			fmt.Fprintf(os.Stderr, "received signal: %v\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

// run parses args, builds the App and executes one command
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stdout)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stdout)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	flags := pflag.NewFlagSet("hanzi "+cmd.name, pflag.ContinueOnError)
	flags.SetOutput(stdout)
	config.RegisterFlags(flags)
	envFile := flags.String("env-file", ".env", "optional .env file")
	if cmd.flags != nil {
		cmd.flags(flags)
	}
	if err := flags.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := config.Load(*envFile, flags)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Debug("running command", zap.String("command", cmd.name))
	return cmd.run(ctx, a, flags, &console{in: stdin, out: stdout})
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: hanzi <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-11s %s\n", name, commands[name].usage)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Configuration is read from .env, %s* variables and flags; run 'hanzi <command> --help' for flags.\n", config.EnvPrefix)
}
