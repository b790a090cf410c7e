package main

import (
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"

	"github.com/ovoloshin/blogd/api"
	"github.com/ovoloshin/blogd/blog"
	"github.com/ovoloshin/blogd/bot"
	"github.com/ovoloshin/blogd/config"
	"github.com/ovoloshin/blogd/user"
)

func main() {
	configPath := flag.String("config", "blogd.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Error("BLOGD_JWT_SECRET must be set")
		os.Exit(1)
	}
	tokenTTL, err := cfg.Auth.ParseTokenTTL()
	if err != nil {
		log.Error("invalid token ttl", "ttl", cfg.Auth.TokenTTL, "err", err)
		os.Exit(1)
	}

	db, err := sqlx.Open("sqlite3", cfg.Storage.BlogDSN)
	if err != nil {
		log.Error("failed to open blog database", "dsn", cfg.Storage.BlogDSN, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	articles, err := blog.NewArticleStore(db)
	if err != nil {
		log.Error("failed to initialize article store", "err", err)
		os.Exit(1)
	}
	users, err := user.NewStore(db)
	if err != nil {
		log.Error("failed to initialize user store", "err", err)
		os.Exit(1)
	}

	var notifier api.Notifier
	if cfg.Bot.OutboundURL != "" {
		notifier = bot.NewNotifier(bot.NewWebhookSender(cfg.Bot.OutboundURL))
	}

	jwt := api.NewJWTManager(cfg.Auth.JWTSecret, tokenTTL)
	server := api.NewServer(articles, users, jwt, notifier)

	log.Info("starting blog API", "addr", cfg.Server.Addr)
	if err := server.Router().Run(cfg.Server.Addr); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}
