package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/ovoloshin/blogd/config"
	"github.com/ovoloshin/blogd/parser"
)

func main() {
	configPath := flag.String("config", "blogd.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	fetchTimeout, err := cfg.Parser.ParseFetchTimeout()
	if err != nil {
		log.Error("invalid fetch timeout", "timeout", cfg.Parser.FetchTimeout, "err", err)
		os.Exit(1)
	}

	store, err := parser.NewRecordStore(cfg.Storage.ParserDSN)
	if err != nil {
		log.Error("failed to open record store", "dsn", cfg.Storage.ParserDSN, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	pipeline := parser.NewPipeline(parser.Source{
		URL:          cfg.Parser.SourceURL,
		Kind:         cfg.Parser.SourceKind,
		RowSelector:  cfg.Parser.RowSelector,
		LinkSelector: cfg.Parser.LinkSelector,
	}, store, parser.WithFetchTimeout(fetchTimeout))

	sched, err := parser.NewScheduler(pipeline, cfg.Parser.Schedule)
	if err != nil {
		log.Error("invalid schedule", "schedule", cfg.Parser.Schedule, "err", err)
		os.Exit(1)
	}

	log.Info("starting parser", "url", cfg.Parser.SourceURL, "schedule", cfg.Parser.Schedule)
	sched.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down, waiting for the running harvest to finish")
	<-sched.Stop().Done()
}
