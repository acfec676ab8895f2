// Command seed fills the configured database with fake users, groups and posts.
package main

import (
	"flag"
	"log"

	"github.com/yatube/internal/config"
	"github.com/yatube/internal/db"
	"github.com/yatube/internal/seed"
	"gorm.io/gorm/logger"
)

func main() {
	users := flag.Int("users", 10, "Number of users to create")
	groups := flag.Int("groups", 5, "Number of groups to create")
	posts := flag.Int("posts", 120, "Number of posts to create")
	days := flag.Int("days", 90, "Spread post dates over this many days")
	clean := flag.Bool("clean", false, "Delete existing posts, groups and users first")
	fakeSeed := flag.Int64("seed", 0, "Fixed faker seed for reproducible data")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	dsn := cfg.DatabasePath
	if cfg.DatabaseDriver == "postgres" {
		dsn = cfg.DatabaseDSN
	}
	gdb, err := db.Open(cfg.DatabaseDriver, dsn, logger.Warn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if err := db.Init(gdb); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	summary, err := seed.NewSeeder(gdb, *fakeSeed).Run(seed.Options{
		Users:   *users,
		Groups:  *groups,
		Posts:   *posts,
		MaxDays: *days,
		Clean:   *clean,
	})
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	if cfg.SuperRootUserName != "" && cfg.SuperRootPassword != "" {
		if err := db.EnsureUser(gdb, cfg.SuperRootUserName, cfg.SuperRootPassword, true); err != nil {
			log.Fatalf("failed to ensure staff account: %v", err)
		}
	}

	log.Printf("created %d users, %d groups, %d posts", summary.Users, summary.Groups, summary.Posts)
	log.Printf("every generated user has the password %q", seed.DefaultPassword)
}
