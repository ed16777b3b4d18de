package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jmoiron/sqlx"

	"github.com/actuallystonmai/user-directory/internal/cache"
	"github.com/actuallystonmai/user-directory/internal/config"
	"github.com/actuallystonmai/user-directory/internal/handler"
	"github.com/actuallystonmai/user-directory/internal/migrate"
	"github.com/actuallystonmai/user-directory/internal/repository"
	"github.com/actuallystonmai/user-directory/internal/router"
	"github.com/actuallystonmai/user-directory/internal/service"
	"github.com/actuallystonmai/user-directory/internal/view"
	"github.com/actuallystonmai/user-directory/seeds"
)

type Command struct {
	Serve   ServeCommand   `cmd:"serve" default:"1" help:"Run the HTTP server."`
	Migrate MigrateCommand `cmd:"migrate" help:"Apply or roll back database migrations."`
	Seed    SeedCommand    `cmd:"seed" help:"Insert sample users."`
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config %v", err)
	}

	command := new(Command)
	ctx := kong.Parse(
		command,
		kong.Name("server"),
		kong.Description("User directory web application"),
	)
	err = ctx.Run(cfg)
	ctx.FatalIfErrorf(err)
}

type ServeCommand struct{}

func (c *ServeCommand) Run(cfg *config.Config) error {
	ctx := context.Background()

	// ------------ Database ---------------
	db, closeDB, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if cfg.AutoMigrate {
		if err := migrate.Up(ctx, db.DB, cfg.DatabaseDriver); err != nil {
			return fmt.Errorf("failed to migrate up: %w", err)
		}
	}

	dialect, err := repository.DialectFor(cfg.DatabaseDriver)
	if err != nil {
		return err
	}
	repo := repository.NewRepository(db, dialect)

	// ------------ Redis ---------------
	var pages service.PageCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		pages = cache.NewCache(client, cfg.CacheTTL)
		log.Println("connected to Redis")
	}

	// ---------------- Server --------------------
	views, err := view.NewRenderer(cfg.StaticDir)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	svc := service.NewService(repo, pages)
	h := handler.NewHandler(svc, views, cfg.ExposeDBErrors)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(h, cfg.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server running on %s", cfg.Addr())
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	log.Println("Server stopped gracefully")
	return nil
}

type MigrateCommand struct {
	Direction string `arg:"" optional:"" enum:"up,down" default:"up" help:"up or down."`
}

func (c *MigrateCommand) Run(cfg *config.Config) error {
	ctx := context.Background()

	db, closeDB, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if c.Direction == "down" {
		if err := migrate.Down(ctx, db.DB, cfg.DatabaseDriver); err != nil {
			return fmt.Errorf("failed to migrate down: %w", err)
		}
		log.Println("migrations dropped")
		return nil
	}
	if err := migrate.Up(ctx, db.DB, cfg.DatabaseDriver); err != nil {
		return fmt.Errorf("failed to migrate up: %w", err)
	}
	return nil
}

type SeedCommand struct {
	Count    int  `default:"20" help:"Number of users to insert."`
	Truncate bool `help:"Empty the users table first."`
}

func (c *SeedCommand) Run(cfg *config.Config) error {
	ctx := context.Background()

	db, closeDB, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if cfg.AutoMigrate {
		if err := migrate.Up(ctx, db.DB, cfg.DatabaseDriver); err != nil {
			return fmt.Errorf("failed to migrate up: %w", err)
		}
	}

	dialect, err := repository.DialectFor(cfg.DatabaseDriver)
	if err != nil {
		return err
	}
	return seeds.Setup(ctx, repository.NewRepository(db, dialect), c.Count, c.Truncate)
}

func openDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, func(), error) {
	db, closeDB, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DBPoolSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := repository.WaitForDB(ctx, db, 30); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("database not ready: %w", err)
	}
	log.Printf("connected to %s", cfg.DatabaseDriver)
	return db, closeDB, nil
}
