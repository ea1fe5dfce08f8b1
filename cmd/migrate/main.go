// Command migrate applies, inspects and reverts the database schema.
//
//	migrate up            apply pending SQL migrations
//	migrate auto          run GORM AutoMigrate over the persistent models
//	migrate status        list applied and pending SQL migrations
//	migrate down VERSION  revert one applied SQL migration
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"cidadeemfoco/internal/config"
	"cidadeemfoco/internal/database"

	"gorm.io/gorm"
)

type command struct {
	args string
	run  func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"up":     {run: migrateUp},
	"auto":   {run: migrateAuto},
	"status": {run: migrateStatus},
	"down":   {args: "<version>", run: migrateDown},
}

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the operation after this long")
	flag.Usage = printUsage
	flag.Parse()

	name := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	cmd, ok := commands[name]
	if !ok {
		printUsage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	err := execute(ctx, cmd, flag.Args()[1:])
	cancel()
	if err != nil {
		log.Fatalf("migrate %s: %v", name, err)
	}
}

func printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [-timeout d] <command> [args]")
	for _, name := range names {
		fmt.Fprintf(flag.CommandLine.Output(), "  %s %s\n", name, commands[name].args)
	}
}

func execute(ctx context.Context, cmd command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	return cmd.run(ctx, db, cfg, args)
}

func migrateUp(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return err
	}
	log.Println("sql migrations applied")
	return nil
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return err
	}
	log.Println("automigrations applied")
	return nil
}

func migrateStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return err
	}
	log.Printf("mode=%s env=%s applied=%d pending=%d",
		status.Mode, status.Environment, len(status.AppliedVersions), len(status.PendingMigrations))
	for _, m := range status.PendingMigrations {
		log.Printf("pending: %s", m.String())
	}
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one version, got %d", len(args))
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return err
	}
	log.Printf("rolled back migration %06d", version)
	return nil
}
