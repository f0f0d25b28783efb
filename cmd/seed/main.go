package main

import (
	"context"
	"flag"
	"time"

	"github.com/emranffl/gain-solutions/internal/config"
	"github.com/emranffl/gain-solutions/internal/database"
	"github.com/emranffl/gain-solutions/internal/seed"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

func main() {
	count := flag.Int("count", 1000, "number of rows to seed per table")
	truncate := flag.Bool("truncate", false, "truncate tables before seeding")
	flag.Parse()

	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("connect to database")
	}
	defer db.Close()

	ctx := context.Background()

	if *truncate {
		log.Info("truncating tables")
		_, err := db.ExecContext(ctx,
			`TRUNCATE order_items, orders, products, users RESTART IDENTITY CASCADE`)
		if err != nil {
			log.WithError(err).Fatal("truncate tables")
		}
	}

	// One hash for every generated account; per-row bcrypt at default
	// cost would dominate the seeding time.
	passwordHash, err := bcrypt.GenerateFromPassword([]byte("seed-password"), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Fatal("hash password")
	}

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return seed.Users(gctx, db, *count, string(passwordHash)) })
	g.Go(func() error { return seed.Products(gctx, db, *count) })
	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("seed users/products")
	}
	log.WithField("count", *count).Info("seeded users and products")

	if err := seed.Orders(ctx, db, *count); err != nil {
		log.WithError(err).Fatal("seed orders")
	}
	log.WithFields(logrus.Fields{
		"count":   *count,
		"elapsed": time.Since(start),
	}).Info("seeding complete")
}
