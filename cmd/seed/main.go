package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/afnan9700/driftwood/internal/logging"
	"github.com/afnan9700/driftwood/seed"
)

func main() {
	cfg := seed.DefaultConfig()
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "base URL of the running server")
	flag.IntVar(&cfg.NumUsers, "users", cfg.NumUsers, "number of users to create")
	flag.IntVar(&cfg.NumBoards, "boards", cfg.NumBoards, "number of boards to create")
	flag.IntVar(&cfg.NumPosts, "posts", cfg.NumPosts, "number of posts to create")
	flag.IntVar(&cfg.NumComments, "comments", cfg.NumComments, "number of comments to create")
	flag.IntVar(&cfg.NumVotes, "votes", cfg.NumVotes, "number of votes to cast")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall seeding timeout")
	flag.Parse()

	logger := logging.NewLogger(false)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	seeder := seed.NewSeeder(cfg, logger)
	stats, err := seeder.Run(ctx)
	if err != nil {
		logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seeding complete",
		"users", stats.Users,
		"boards", stats.Boards,
		"posts", stats.Posts,
		"comments", stats.Comments,
		"votes", stats.Votes,
		"failures", stats.Failures,
	)
}
