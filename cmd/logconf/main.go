package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/rse-logconf/internal/application"
	"github.com/eugenenazirov/rse-logconf/internal/config"
	"github.com/eugenenazirov/rse-logconf/internal/logging"
	"github.com/eugenenazirov/rse-logconf/internal/severity"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("logconf", "RSE logging configuration - validates logging documents and emits records through them")
	configFile := kingpinApp.Flag("config", "Path to the logging document (skips the search directories)").String()
	envFile := kingpinApp.Flag("env-file", "Path to an env file to load before reading the environment").String()
	policy := kingpinApp.Flag("policy", "Behaviour when a handler target is unavailable (abort or degrade)").String()

	checkCmd := kingpinApp.Command("check", "Resolve and validate the logging document without opening any handler")

	emitCmd := kingpinApp.Command("emit", "Emit a single record")
	emitLogger := emitCmd.Flag("logger", "Logger name").Default(application.AppLogger).String()
	emitLevel := emitCmd.Flag("level", "Record severity").Default("INFO").String()
	emitMessage := emitCmd.Arg("message", "Message text").Required().Strings()

	pipeCmd := kingpinApp.Command("pipe", "Emit every line read from stdin as a record")
	pipeLogger := pipeCmd.Flag("logger", "Logger name").Default(application.AppLogger).String()
	pipeLevel := pipeCmd.Flag("level", "Record severity").Default("INFO").String()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		EnvFile:    *envFile,
	}

	if *policy != "" {
		overrides.Policy = policy
	}

	cfg, err := config.Load(overrides)
	kingpinApp.FatalIfError(err, "failed to load configuration")

	switch command {
	case checkCmd.FullCommand():
		err = runCheck(os.Stdout, cfg)
	case emitCmd.FullCommand():
		err = runEmit(cfg, *emitLogger, *emitLevel, strings.Join(*emitMessage, " "))
	case pipeCmd.FullCommand():
		err = runPipe(cfg, os.Stdin, *pipeLogger, *pipeLevel)
	}
	kingpinApp.FatalIfError(err, "%s", command)
}

func runCheck(w io.Writer, cfg config.Config) error {
	summary, err := application.Inspect(cfg)
	if err != nil {
		return err
	}

	source := summary.Source.Path
	if source == "" {
		source = "packaged defaults"
	}
	fmt.Fprintf(w, "document:   %s\n", source)
	fmt.Fprintf(w, "root level: %s\n", summary.RootLevel)
	fmt.Fprintf(w, "formatters: %s\n", joinOrNone(summary.Formatters))
	fmt.Fprintf(w, "handlers:   %s\n", joinOrNone(summary.Handlers))
	fmt.Fprintf(w, "loggers:    %s\n", joinOrNone(summary.Loggers))
	return nil
}

func runEmit(cfg config.Config, logger, level, message string, opts ...logging.Option) error {
	lvl, err := severity.Parse(level)
	if err != nil {
		return err
	}

	app, err := application.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		_ = app.Close()
	}()

	app.Emit(logger, lvl, message)
	return nil
}

func runPipe(cfg config.Config, in io.Reader, logger, level string, opts ...logging.Option) error {
	lvl, err := severity.Parse(level)
	if err != nil {
		return err
	}

	app, err := application.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		_ = app.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := app.Pipe(ctx, in, logger, lvl)
		done <- err
	}()

	return waitForPipe(done, cancel, app.Logging().Logger(application.AppLogger))
}

// waitForPipe returns when the pipe finishes or a termination signal arrives.
// A pending read on the input is abandoned on signal.
func waitForPipe(done <-chan error, cancel context.CancelFunc, logger *logging.Logger) error {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-done:
		return err
	case sig := <-quit:
		logger.Info("stopping pipe", zap.String("signal", sig.String()))
		cancel()
		return nil
	}
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
