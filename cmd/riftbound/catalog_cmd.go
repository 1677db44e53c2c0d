package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Naokyoo/Riftbound-manager/internal/config"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/storage"
)

func runCatalogCommand(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	// Restore swaps the database file and must run with it closed.
	if args[0] == "restore" {
		if len(args) != 2 {
			return errUsage
		}
		if err := storage.RestoreBackup(ctx, cfg.Catalog.DBPath, args[1]); err != nil {
			return err
		}
		logger.Info("catalog restored", "from", args[1], "db", cfg.Catalog.DBPath)
		fmt.Printf("Restored %s from %s\n", cfg.Catalog.DBPath, args[1])
		return nil
	}

	db, err := storage.Open(storage.DefaultConfig(cfg.Catalog.DBPath))
	if err != nil {
		return err
	}
	defer db.Close()
	repo := db.Catalog()

	switch args[0] {
	case "import":
		if len(args) != 2 {
			return errUsage
		}
		catalog, err := cards.LoadFile(args[1])
		if err != nil {
			return err
		}
		list := make([]cards.Card, 0, catalog.Len())
		for _, c := range catalog.All() {
			list = append(list, *c)
		}
		if err := repo.ReplaceAll(ctx, filepath.Base(args[1]), list); err != nil {
			return err
		}
		logger.Info("catalog imported", "cards", len(list), "db", cfg.Catalog.DBPath)
		fmt.Printf("Imported %d cards into %s\n", len(list), cfg.Catalog.DBPath)
		return nil

	case "info":
		n, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		last, err := repo.LastImport(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Catalog Database")
		fmt.Println("================")
		fmt.Printf("  Path:   %s\n", cfg.Catalog.DBPath)
		fmt.Printf("  Cards:  %d\n", n)
		if last != nil {
			fmt.Printf("  Source: %s (imported %s)\n", last.Source, last.ImportedAt.Format("2006-01-02 15:04:05"))
		}
		return nil

	case "backup":
		var dir string
		if len(args) > 1 {
			dir = args[1]
		}
		info, err := db.Backup(ctx, dir, "")
		if err != nil {
			return err
		}
		fmt.Printf("Backup written to %s (%d bytes)\n", info.Path, info.Size)
		return nil

	case "backups":
		dir := storage.BackupDir(cfg.Catalog.DBPath)
		if len(args) > 1 {
			dir = args[1]
		}
		backups, err := storage.ListBackups(dir)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Printf("No backups in %s\n", dir)
			return nil
		}
		for _, b := range backups {
			fmt.Printf("  %-32s %8d bytes  %s  %s\n", b.Name, b.Size, b.ModTime.Format("2006-01-02 15:04:05"), b.Checksum[:min(12, len(b.Checksum))])
		}
		return nil

	default:
		return errUsage
	}
}
