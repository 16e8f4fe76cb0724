package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"angelhub/pkg/api"
	"angelhub/pkg/config"
	"angelhub/pkg/library"
	"angelhub/pkg/storage"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "export":
		runExport(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "version":
		fmt.Printf("angelhub %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `angelhub - Personal writing library

Usage:
  angelhub <command> [options]

Commands:
  serve       Start the HTTP API server
  mcp-server  Start MCP server for AI tool integration
  export      Export works to markdown, docx, pdf, or a JSON backup
  import      Import works from JSON backups, DOCX, or markdown files
  version     Show version info

Run 'angelhub <command> -h' for command-specific help.`)
}

// loadConfig loads, parses, and validates the config file. An empty
// path yields the built-in defaults.
func loadConfig(path string, log *logrus.Logger) (*config.AppConfig, error) {
	if path == "" {
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	warnings, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	return cfg, nil
}

// newLogger builds a logger in the shared CLI format.
func newLogger(levelName string, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", levelName)
	}
	log.SetLevel(level)
	return log, nil
}

// openStore opens the library database and starts its GC loop.
func openStore(ctx context.Context, cfg *config.AppConfig, log *logrus.Logger) (*storage.BadgerStore, error) {
	store, err := storage.NewBadgerStore(ctx, cfg.DataDir, log.WithField("component", "storage"))
	if err != nil {
		return nil, err
	}
	go store.RunGC(ctx, cfg.GCInterval)
	return store, nil
}

// runServe handles the serve subcommand
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to YAML config file (optional)")
	listenAddr := fs.String("listen", "", "Override listen address, e.g. 127.0.0.1:8787")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: angelhub serve [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  angelhub serve -config config.yaml\n")
		fmt.Fprintf(os.Stderr, "  angelhub serve -listen :8080\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doServe(*configFile, *listenAddr, *logLevel, os.Stderr))
}

// doServe is the testable implementation of the serve subcommand.
func doServe(configPath, listenAddr, logLevel string, stderr io.Writer) int {
	log, err := newLogger(logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(configPath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Errorf("Failed to open library database: %v", err)
		return 1
	}
	defer store.Close()

	if err := library.InitTokenizer(cfg.TokenizerEncoding); err != nil {
		log.Warnf("Tokenizer unavailable, token statistics disabled: %v", err)
	}

	apiServer := api.NewServer(store, cfg, log.WithField("component", "api"))
	defer apiServer.CloseSessions()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: apiServer,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on http://%s", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received, draining connections...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Shutdown error: %v", err)
			return 1
		}
		log.Info("Server stopped.")
		return 0
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Server error: %v", err)
			return 1
		}
		return 0
	}
}
