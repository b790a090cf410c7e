package main

import (
	"flag"
	"os"

	"github.com/charmbracelet/log"

	"github.com/ovoloshin/blogd/bot"
	"github.com/ovoloshin/blogd/config"
)

func main() {
	configPath := flag.String("config", "blogd.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	b := bot.New(bot.NewClient(cfg.Bot.APIBaseURL))

	log.Info("starting chat gateway", "addr", cfg.Bot.Addr, "api", cfg.Bot.APIBaseURL)
	if err := b.Router().Run(cfg.Bot.Addr); err != nil {
		log.Error("gateway failed", "err", err)
		os.Exit(1)
	}
}
