package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// BackupInfo describes one catalog backup file.
type BackupInfo struct {
	Path     string
	Name     string
	Size     int64
	ModTime  time.Time
	Checksum string
}

// BackupDir returns the default backup directory for the database at dbPath.
func BackupDir(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

// Backup writes a consistent copy of the database into dir using VACUUM INTO
// and checks that the copy holds a readable catalog. An empty dir uses
// BackupDir. An empty name is replaced by a timestamp.
func (db *DB) Backup(ctx context.Context, dir, name string) (*BackupInfo, error) {
	if dir == "" {
		dir = BackupDir(db.path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if name == "" {
		name = "catalog_" + time.Now().Format("20060102_150405")
	}
	path := filepath.Join(dir, strings.TrimSuffix(name, ".db")+".db")

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("backup already exists: %s", path)
	}

	vacuum := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(path, "'", "''"))
	if _, err := db.conn.ExecContext(ctx, vacuum); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	if err := VerifyBackup(ctx, path); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("backup verification failed: %w", err)
	}

	return backupInfo(path)
}

// VerifyBackup checks that path is a catalog database with a schema this
// build understands.
func VerifyBackup(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup file does not exist: %s", path)
	}

	db, err := Open(&Config{Path: path, MaxOpenConns: 1, BusyTimeout: time.Second, JournalMode: "DELETE"})
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Catalog().Count(ctx); err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	return nil
}

// RestoreBackup replaces the database at dbPath with the backup at
// backupPath. The database must not be open. The replaced file is kept next
// to it with an ".old" suffix.
func RestoreBackup(ctx context.Context, dbPath, backupPath string) error {
	if err := VerifyBackup(ctx, backupPath); err != nil {
		return err
	}

	tempPath := dbPath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to copy backup: %w", err)
	}

	if _, err := os.Stat(dbPath); err == nil {
		oldPath := dbPath + ".old." + time.Now().Format("20060102_150405")
		if err := os.Rename(dbPath, oldPath); err != nil {
			_ = os.Remove(tempPath)
			return fmt.Errorf("failed to move current database aside: %w", err)
		}
		// WAL sidecars belong to the old file.
		for _, suffix := range []string{"-wal", "-shm"} {
			_ = os.Remove(dbPath + suffix)
		}
	}

	if err := os.Rename(tempPath, dbPath); err != nil {
		return fmt.Errorf("failed to replace database: %w", err)
	}
	return nil
}

// ListBackups returns the backups in dir, newest first. A missing directory
// yields an empty list.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" {
			continue
		}
		info, err := backupInfo(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		backups = append(backups, *info)
	}

	slices.SortFunc(backups, func(a, b BackupInfo) int {
		if c := b.ModTime.Compare(a.ModTime); c != 0 {
			return c
		}
		return strings.Compare(b.Name, a.Name)
	})
	return backups, nil
}

func backupInfo(path string) (*BackupInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	checksum, err := calculateChecksum(path)
	if err != nil {
		checksum = "unknown"
	}
	return &BackupInfo{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     stat.Size(),
		ModTime:  stat.ModTime(),
		Checksum: checksum,
	}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// calculateChecksum returns the hex SHA-256 of the file at path.
func calculateChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
