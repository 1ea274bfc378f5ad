/*
Package main implements the SQL completion server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

SQLServe suggests tables, columns, functions and keywords for the SQL being
edited, based on where the cursor sits and on the table metadata of the
active problem domain. It runs as a MessagePack IPC server for editors, or as
a CLI for testing and debugging.

# Usage

Start the server with default settings:

	sqlserve

Read schemas from a directory and start on the stream domain:

	sqlserve -schema ./schemas -domain stream -d

Read schemas from a Postgres information_schema and allow execution:

	sqlserve -dsn postgres://localhost/telemetry

Run in CLI mode for interactive testing:

	sqlserve -c -limit 10

# Configuration

Runtime configuration lives in sqlserve.toml under the user config dir:

	[server]
	max_limit = 200
	default_limit = 50

	[schema]
	dir = "schemas"
	default_domain = "pa"
	watch = true

	[editor]
	execute_key = "Ctrl+Enter"

The file is created with defaults if it doesn't exist. Broken sections fall
back to defaults while valid sections are kept.

# Schema files

Each domain is one TOML file named after it, e.g. schemas/pa.toml:

	[[tables]]
	table_name = "orders"
	columns = [
	  { column_name = "id", data_type = "integer" },
	  { column_name = "customer_id", data_type = "integer" },
	]

With watching enabled, edits to the active domain's file are picked up
without a restart.

# Command Line Flags

	-c  Run in CLI mode instead of server mode
	-d  Enable debug mode with detailed logging
	-config string
	    Path to a custom config file
	-schema string
	    Directory containing <domain>.toml schema files
	-domain string
	    Domain to activate at startup
	-dsn string
	    Postgres DSN; schemas come from information_schema
	-limit int
	    Number of suggestions to show in CLI mode
	-version
	    Show current version

Logs always go to stderr; stdout carries IPC frames only.
*/
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/sqlserve/internal/cli"
	"github.com/bastiangx/sqlserve/internal/logger"
	"github.com/bastiangx/sqlserve/internal/utils"
	"github.com/bastiangx/sqlserve/pkg/config"
	"github.com/bastiangx/sqlserve/pkg/editor"
	"github.com/bastiangx/sqlserve/pkg/runner"
	"github.com/bastiangx/sqlserve/pkg/schema"
	"github.com/bastiangx/sqlserve/pkg/server"
	"github.com/bastiangx/sqlserve/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	Version = "0.3.0-beta"
	AppName = "sqlserve"
	gh      = "https://github.com/bastiangx/sqlserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
// The returned context is cancelled just before exiting.
func sigHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		os.Exit(0)
	}()
	return ctx
}

// options carries the parsed command line flags.
type options struct {
	debug      bool
	cli        bool
	configFile string
	schemaDir  string
	domain     string
	dsn        string
	limit      int
}

// main parses flags and exits with the status run returns.
func main() {
	defaultConfig := config.DefaultConfig()
	var opts options

	showVersion := flag.Bool("version", false, "Show current version")
	flag.BoolVar(&opts.debug, "d", false, "Toggle debug mode")
	flag.BoolVar(&opts.cli, "c", false, "Run CLI -- useful for testing and debugging")
	flag.StringVar(&opts.configFile, "config", "", "Path to custom config file")
	flag.StringVar(&opts.schemaDir, "schema", "", "Directory containing <domain>.toml schema files")
	flag.StringVar(&opts.domain, "domain", "", "Domain to activate at startup")
	flag.StringVar(&opts.dsn, "dsn", "", "Postgres DSN to read schemas from and run queries against")
	flag.IntVar(&opts.limit, "limit", defaultConfig.CLI.DefaultLimit, "Number of suggestions to show in CLI mode")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	os.Exit(run(sigHandler(), opts))
}

// run wires the packages together and only manages the flow. Deferred
// cleanup runs before the returned status reaches os.Exit.
func run(ctx context.Context, opts options) int {
	logger.SetDebug(opts.debug)

	appConfig, configPath, err := config.LoadConfigWithPriority(opts.configFile)
	if err != nil {
		log.Errorf("Failed to load config: %v", err)
		return 1
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))

	if opts.dsn != "" {
		appConfig.Schema.DSN = opts.dsn
	}
	if opts.domain != "" {
		appConfig.Schema.DefaultDomain = opts.domain
	}

	var (
		provider     schema.Provider
		fileProvider *schema.FileProvider
		execute      editor.ExecuteFunc
	)

	if appConfig.Schema.DSN != "" {
		db, err := sql.Open("pgx", appConfig.Schema.DSN)
		if err != nil {
			log.Errorf("Failed to open database: %v", err)
			return 1
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Errorf("Failed to reach database: %v", err)
			return 1
		}
		provider = schema.NewDBProvider(db)
		execute = runner.NewDBRunner(db, appConfig.Runner.MaxRows, appConfig.Runner.Timeout()).Execute
		log.Debug("Using information_schema provider")
	} else {
		dir := opts.schemaDir
		if dir == "" {
			dir = appConfig.ResolveSchemaDir(configPath)
		}
		pathResolver, err := utils.NewPathResolver()
		if err != nil {
			log.Errorf("Failed to initialize path resolver: %v", err)
			return 1
		}
		resolved := pathResolver.GetSchemaDir(dir)
		fileProvider = schema.NewFileProvider(resolved)
		provider = fileProvider
		log.Debugf("Using schema dir at: %s", resolved)
	}

	ws := schema.NewWorkspace(provider, appConfig.Schema.CacheSize)
	if err := ws.SwitchDomain(ctx, appConfig.Schema.DefaultDomain); err != nil {
		log.Warnf("Starting with an empty schema: %v", err)
	}

	if fileProvider != nil && appConfig.Schema.Watch {
		watcher, err := schema.NewWatcher(ws, fileProvider)
		if err != nil {
			log.Warnf("Schema watching disabled: %v", err)
		} else {
			watcher.OnReload(func(domain string, err error) {
				if err != nil {
					log.Warnf("Reloading domain %s: %v", domain, err)
					return
				}
				log.Infof("Reloaded domain %s", domain)
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	completer := suggest.NewCompleter(ws.Store(), appConfig.Vocabulary())

	// CLI would be mainly used for testing and dbg purposes.
	if opts.cli {
		log.SetReportTimestamp(false)
		if !opts.debug {
			log.SetLevel(log.InfoLevel)
		}
		inputHandler := cli.NewInputHandler(ws, completer, opts.limit)
		if _, err := editor.Install(inputHandler, completer, execute, appConfig.Editor.ExecuteKey); err != nil {
			log.Errorf("Failed to install completion: %v", err)
			return 1
		}
		if err := inputHandler.Start(ctx); err != nil {
			log.Errorf("CLI error: %v", err)
			return 1
		}
		return 0
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(ws, appConfig, os.Stdin, os.Stdout)
	srv.SetStats(completer.Stats)
	if _, err := editor.Install(srv, completer, execute, appConfig.Editor.ExecuteKey); err != nil {
		log.Errorf("Failed to install completion: %v", err)
		return 1
	}

	showStartupInfo(ws)

	if err := srv.Start(ctx); err != nil {
		log.Errorf("Server stopped: %v", err)
		return 1
	}
	return 0
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ SQLServe ] context-aware SQL completions")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(ws *schema.Workspace) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "==========")
	fmt.Fprintln(os.Stderr, " SQLServe ")
	fmt.Fprintln(os.Stderr, "==========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("domain: ( %s ) tables: %d", ws.Domain(), ws.Store().Current().Len())
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "==========")

	log.SetLevel(currentLevel)
}
