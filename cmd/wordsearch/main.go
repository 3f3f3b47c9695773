// Package main is the wordsearch CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/wordsearch/internal/cli"
	"github.com/hyperjump/wordsearch/internal/config"
	"github.com/hyperjump/wordsearch/internal/extract"
	"github.com/hyperjump/wordsearch/internal/indexer"
	"github.com/hyperjump/wordsearch/internal/models"
	"github.com/hyperjump/wordsearch/internal/sample"
	"github.com/hyperjump/wordsearch/internal/search"
	"github.com/hyperjump/wordsearch/internal/server"
	"github.com/hyperjump/wordsearch/internal/storage"
	"github.com/hyperjump/wordsearch/internal/watcher"
	"github.com/hyperjump/wordsearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/wordsearch/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory wins, and a missing default file means built-in
// defaults. Returns the config and the path that was loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg, err := config.Default()
			if err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "shell":
		runShell()
	case "search":
		runSearch()
	case "build":
		runBuild()
	case "server":
		runServer()
	case "sample":
		runSample()
	case "extract":
		runExtract()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("wordsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config named by the --config flag, applies --debug and
// creates the logger. It exits on failure.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Debug = cfg.Debug || debug
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", cfg.Debug))
	return cfg, logger
}

// corpusDirs returns args when given, otherwise the configured directories.
func corpusDirs(args []string, cfg *config.Config) ([]string, error) {
	dirs := args
	if len(dirs) == 0 {
		dirs = cfg.Corpus.Directories
	}
	if len(dirs) == 0 {
		return nil, errors.New("no corpus directories: pass them as arguments or set corpus.directories")
	}
	return dirs, nil
}

func runShell() {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	dirs, err := corpusDirs(fs.Args(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, dirs, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := components.Engine.Rebuild(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Index build failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Index building time: %.2f seconds\n", snap.Duration.Seconds())
	printSkipped(snap)

	shell := cli.NewShell(components.Engine, os.Stdin, os.Stdout, cfg.Search.MaxLimit)
	if err := shell.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Shell failed: %v\n", err)
		os.Exit(1)
	}
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: wordsearch search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Wrap words in double quotes for an exact phrase.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  wordsearch search quick fox
  wordsearch search '"quick fox" lazy'
  wordsearch search --output compact --limit 20 lorem
  wordsearch search --server http://localhost:8080 --output json dog
`)
}

// buildSearchQuery joins all positional args with spaces.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL; empty builds the index locally")
	dirsFlag := fs.String("dirs", "", "comma-separated corpus directories (default from config)")
	limit := fs.Int("limit", 0, "number of results (default from config)")
	offset := fs.Int("offset", 0, "results to skip")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	query := &models.SearchQuery{Query: queryStr, Limit: *limit, Offset: *offset}
	ctx := context.Background()

	var searcher cli.Searcher
	if *serverURL != "" {
		searcher = cli.NewClient(*serverURL)
	} else {
		cfg, logger := setup(*configPath, false)
		defer logger.Sync()
		dirs, err := corpusDirs(splitList(*dirsFlag), cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		components, err := initializeComponents(cfg, dirs, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()
		if _, err := components.Engine.Rebuild(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Index build failed: %v\n", err)
			os.Exit(1)
		}
		searcher = components.Engine
	}

	response, err := searcher.Search(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	dirs, err := corpusDirs(fs.Args(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, dirs, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	snap, err := components.Engine.Rebuild(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Index build failed: %v\n", err)
		os.Exit(1)
	}
	st := snap.Index.Stats()
	fmt.Printf("Indexed %d documents, %d keys (%d skipped)\n", st.Documents, st.Keys, len(snap.Skipped))
	fmt.Printf("Index building time: %.2f seconds\n", snap.Duration.Seconds())
	printSkipped(snap)
}

func printSkipped(snap *search.Snapshot) {
	for _, err := range snap.Skipped {
		fmt.Fprintf(os.Stderr, "  skipped: %v\n", err)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, rebuilds, etc.)")
	watch := fs.Bool("watch", false, "rebuild when corpus files change (overrides corpus.watch)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	dirs, err := corpusDirs(fs.Args(), cfg)
	if err != nil {
		logger.Fatal("No corpus", zap.Error(err))
	}
	components, err := initializeComponents(cfg, dirs, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := components.Engine.Rebuild(ctx); err != nil {
		logger.Fatal("Initial index build failed", zap.Error(err))
	}

	if cfg.Corpus.Watch || *watch {
		w := watcher.NewWatcher(dirs,
			func(paths []string) {
				logger.Info("corpus changed, rebuilding", zap.Int("paths", len(paths)))
				if _, err := components.Engine.Rebuild(ctx); err != nil {
					logger.Warn("rebuild after change failed", zap.Error(err))
				}
			},
			watcher.WithFilter(components.Loader.Accepts),
			watcher.WithRecursive(cfg.Corpus.RecursiveOrDefault()),
			watcher.WithLogger(logger),
		)
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	opts := []server.Option{
		server.WithMetrics(components.Metrics),
		server.WithDirectories(dirs),
		server.WithVersion(version),
		server.WithLogger(logger),
	}
	if components.Storage != nil {
		opts = append(opts, server.WithStorage(components.Storage))
	}
	srv := server.NewServer(components.Engine, cfg.Server.Addr(), opts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runSample() {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	count := fs.Int("count", 0, "number of documents (default from config)")
	paragraphs := fs.Int("paragraphs", 0, "paragraphs per document (default from config)")
	seed := fs.Int64("seed", 0, "random seed; 0 uses the clock")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		fmt.Println("Usage: wordsearch sample [flags] <dir>")
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	n := cfg.Sample.Documents
	if *count > 0 {
		n = *count
	}
	opts := []sample.Option{sample.WithParagraphs(cfg.Sample.Paragraphs)}
	if *paragraphs > 0 {
		opts = append(opts, sample.WithParagraphs(*paragraphs))
	}
	if *seed != 0 {
		opts = append(opts, sample.WithSeed(*seed))
	}
	paths, err := sample.NewGenerator(opts...).Generate(fs.Arg(0), n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sample generation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d sample documents to %s\n", len(paths), fs.Arg(0))
}

// txtName maps a document id to the relative path of its extracted text.
func txtName(id string) string {
	return filepath.FromSlash(strings.TrimSuffix(id, filepath.Ext(id)) + ".txt")
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 2 {
		fmt.Println("Usage: wordsearch extract [flags] <src-dir> <dst-dir>")
		os.Exit(1)
	}
	src, dst := fs.Arg(0), fs.Arg(1)
	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	ex := extract.NewExtractor()
	loader := indexer.NewLoader(ex,
		indexer.WithExtensions(cfg.Corpus.Extensions),
		indexer.WithRecursive(cfg.Corpus.RecursiveOrDefault()),
		indexer.WithLogger(logger),
	)
	start := time.Now()
	files, err := loader.Scan([]string{src})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}
	written := 0
	for _, f := range files {
		text, err := ex.Extract(f.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error extracting text from %s: %v\n", f.Path, err)
			continue
		}
		out := filepath.Join(dst, txtName(f.ID))
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", filepath.Dir(out), err)
			continue
		}
		if err := os.WriteFile(out, []byte(text), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
			continue
		}
		written++
	}
	fmt.Printf("Extracted %d of %d files\n", written, len(files))
	fmt.Printf("Extraction time: %.2f seconds\n", time.Since(start).Seconds())
}

// localStatus describes the configuration and the extracted-text cache
// without building an index.
type localStatus struct {
	Directories     []string `json:"directories"`
	Extensions      []string `json:"extensions"`
	MaxPhraseLength int      `json:"max_phrase_length"`
	DatabasePath    string   `json:"database_path,omitempty"`
	CachedDocuments int64    `json:"cached_documents"`
	DiskUsageBytes  int64    `json:"disk_usage_bytes"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL; empty reports local configuration")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	ctx := context.Background()

	var status interface{}
	if *serverURL != "" {
		remote, err := cli.NewClient(*serverURL).Status(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = remote
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		st := localStatus{
			Directories:     cfg.Corpus.Directories,
			Extensions:      cfg.Corpus.Extensions,
			MaxPhraseLength: cfg.Index.MaxPhraseLength,
			DatabasePath:    cfg.Storage.DatabasePath,
		}
		if cfg.Storage.DatabasePath != "" {
			if _, err := os.Stat(cfg.Storage.DatabasePath); err == nil {
				store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
				if err == nil {
					st.CachedDocuments, _ = store.CountDocuments(ctx)
					_ = store.Close()
				}
				st.DiskUsageBytes, _ = storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...)
			}
		}
		if *outputFormat != "json" {
			fmt.Printf("Directories:       %s\n", strings.Join(st.Directories, ", "))
			fmt.Printf("Extensions:        %s\n", strings.Join(st.Extensions, " "))
			fmt.Printf("Max phrase length: %d\n", st.MaxPhraseLength)
			if st.DatabasePath != "" {
				fmt.Printf("Text cache:        %s (%d documents, %d bytes)\n", st.DatabasePath, st.CachedDocuments, st.DiskUsageBytes)
			}
			return
		}
		status = st
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(status)
}

func printUsage() {
	fmt.Println(`wordsearch - Small full-text search over local documents

Usage:
  wordsearch shell [flags] [dir...]          Build the index and search interactively
  wordsearch search [flags] <query>          Search once and print ranked results
  wordsearch build [flags] [dir...]          Build the index and report its size
  wordsearch server [flags] [dir...]         Start the HTTP server
  wordsearch sample [flags] <dir>            Write sample .docx documents
  wordsearch extract [flags] <src> <dst>     Write the extracted text of every document
  wordsearch status [flags]                  Show configuration or server status
  wordsearch version                         Show version
  wordsearch help                            Show this help

Directories default to corpus.directories from the config file.

Common Flags:
  --config string    Config file path (default: /usr/local/etc/wordsearch/config.yaml,
                     or ./config.yaml when present)
  --debug            Enable debug logging

Search Flags:
  --server string    Query a running server instead of building locally
  --dirs string      Comma-separated corpus directories
  --limit int        Number of results (default: search.default_limit)
  --offset int       Results to skip
  --output string    text, compact, or json (default: text)

Server Flags:
  --watch            Rebuild the index when corpus files change

Sample Flags:
  --count int        Number of documents (default: sample.documents)
  --paragraphs int   Paragraphs per document (default: sample.paragraphs)
  --seed int         Random seed

Status Flags:
  --server string    Server URL; empty reports local configuration
  --output string    text or json (default: text)

Examples:
  wordsearch sample ./docs
  wordsearch shell ./docs
  wordsearch search --dirs ./docs '"quick fox" lazy'
  wordsearch server --watch ./docs
  wordsearch search --server http://localhost:8080 --output json dog
  wordsearch status --server http://localhost:8080`)
}
