package application

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/eugenenazirov/rse-logconf/internal/config"
	"github.com/eugenenazirov/rse-logconf/internal/logconf"
	"github.com/eugenenazirov/rse-logconf/internal/logging"
	"github.com/eugenenazirov/rse-logconf/internal/severity"
)

// AppLogger is the name the application logs its own progress under.
const AppLogger = "rse"

// App owns the logging context built from the resolved document.
type App struct {
	source  config.Source
	logging *logging.Context
	logger  *logging.Logger
}

// New resolves, validates and applies the logging document described by cfg.
// Extra options are passed to the logging context.
func New(cfg config.Config, opts ...logging.Option) (*App, error) {
	doc, src, err := cfg.ResolveDocument()
	if err != nil {
		return nil, fmt.Errorf("resolve logging document: %w", err)
	}

	ctxOpts := append([]logging.Option{logging.WithPolicy(cfg.Policy)}, opts...)
	lc := logging.NewContext(ctxOpts...)
	if err := lc.Apply(doc); err != nil {
		_ = lc.Close()
		return nil, fmt.Errorf("apply logging document: %w", err)
	}

	app := &App{
		source:  src,
		logging: lc,
		logger:  lc.Logger(AppLogger),
	}
	if src.Path == "" {
		app.logger.Warning(fmt.Sprintf("couldn't find %s anywhere, using defaults only", cfg.DocumentName))
	} else {
		app.logger.Debug(fmt.Sprintf("loaded %s from %s", cfg.DocumentName, src.Path))
	}
	return app, nil
}

// Logging returns the application's logging context.
func (a *App) Logging() *logging.Context {
	return a.logging
}

// Source reports where the override document was found.
func (a *App) Source() config.Source {
	return a.source
}

// Emit logs a single message.
func (a *App) Emit(name string, lvl severity.Level, msg string) {
	a.logging.Logger(name).Log(lvl, msg)
}

// Pipe emits every line read from r as a record and returns how many lines
// were emitted. It stops at EOF or when ctx is done.
func (a *App) Pipe(ctx context.Context, r io.Reader, name string, lvl severity.Level) (int, error) {
	logger := a.logging.Logger(name)
	scanner := bufio.NewScanner(r)
	count := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		logger.Log(lvl, scanner.Text())
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("read input: %w", err)
	}
	return count, nil
}

// Close flushes and releases every handler.
func (a *App) Close() error {
	return errors.Join(a.logging.Sync(), a.logging.Close())
}

// Summary describes a resolved and validated document.
type Summary struct {
	Source     config.Source
	RootLevel  severity.Level
	Handlers   []string
	Formatters []string
	Loggers    []string
}

// Inspect resolves and validates the document without acquiring any handler
// resource.
func Inspect(cfg config.Config) (Summary, error) {
	doc, src, err := cfg.ResolveDocument()
	if err != nil {
		return Summary{Source: src}, err
	}
	if err := logconf.Validate(doc); err != nil {
		return Summary{Source: src}, err
	}
	return Summary{
		Source:     src,
		RootLevel:  doc.RootLevel(),
		Handlers:   sortedKeys(doc.Handlers),
		Formatters: sortedKeys(doc.Formatters),
		Loggers:    sortedKeys(doc.Loggers),
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
