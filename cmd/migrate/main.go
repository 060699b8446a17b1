// Command migrate brings the storage schema up to date for the configured driver.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"guildkeeper/internal/config"
	"guildkeeper/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	resetIndexes := flag.Bool("reset-indexes", false, "Drop and recreate every MongoDB index (mongo only)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cfg.DBDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		if *resetIndexes {
			if err := database.ResetIndexes(ctx, db); err != nil {
				return fmt.Errorf("reset indexes: %w", err)
			}
			log.Println("mongo indexes reset")
			return nil
		}
		if err := database.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		log.Println("mongo indexes ensured")
	case config.DriverPostgres, config.DriverSQLite:
		if *resetIndexes {
			return fmt.Errorf("-reset-indexes requires DB_DRIVER=mongo")
		}
		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer func() { _ = sqlDB.Close() }()
		}
		// Connect only migrates outside production.
		if cfg.IsProduction() {
			if err := database.Migrate(db); err != nil {
				return err
			}
		}
		log.Printf("%s schema migrated", cfg.DBDriver)
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return nil
}
