package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/order-desk/internal/store"
)

func TestRunCreatesSnapshot(t *testing.T) {
	dataDir := t.TempDir()
	db, err := store.Open(dataDir)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	backupDir := filepath.Join(dataDir, "backups")
	service := NewService(db, backupDir, 5)

	path, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("backup file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("backup file must not be empty")
	}
	if !strings.HasPrefix(filepath.Base(path), "app-") || !strings.HasSuffix(path, ".db") {
		t.Fatalf("unexpected backup filename: %s", path)
	}
}

func TestRunPrunesOldGenerations(t *testing.T) {
	dataDir := t.TempDir()
	db, err := store.Open(dataDir)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	backupDir := filepath.Join(dataDir, "backups")
	if err := os.MkdirAll(backupDir, 0o750); err != nil {
		t.Fatalf("failed to create backup dir: %v", err)
	}

	// 古い世代を3つ用意する
	base := time.Now().Add(-24 * time.Hour)
	for i, name := range []string{"app-old-1.db", "app-old-2.db", "app-old-3.db"} {
		path := filepath.Join(backupDir, name)
		if err := os.WriteFile(path, []byte("stale"), 0o640); err != nil {
			t.Fatalf("failed to create stale backup: %v", err)
		}
		stamp := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatalf("failed to set mtime: %v", err)
		}
	}

	service := NewService(db, backupDir, 2)
	path, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("failed to read backup dir: %v", err)
	}
	names := []string{}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".db") {
			names = append(names, entry.Name())
		}
	}
	if len(names) != 2 {
		t.Fatalf("backup count after prune = %d, want 2: %v", len(names), names)
	}

	// 新しいスナップショットは必ず残る
	kept := false
	for _, name := range names {
		if name == filepath.Base(path) {
			kept = true
		}
	}
	if !kept {
		t.Fatalf("fresh snapshot %s was pruned: %v", filepath.Base(path), names)
	}
}

func TestRunKeepZeroDisablesPrune(t *testing.T) {
	dataDir := t.TempDir()
	db, err := store.Open(dataDir)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	backupDir := filepath.Join(dataDir, "backups")
	service := NewService(db, backupDir, 0)

	for i := 0; i < 3; i++ {
		if _, err := service.Run(context.Background()); err != nil {
			t.Fatalf("Run %d returned error: %v", i+1, err)
		}
		// タイムスタンプ衝突による上書きを避ける
		time.Sleep(5 * time.Millisecond)
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("failed to read backup dir: %v", err)
	}
	count := 0
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".db") {
			count++
		}
	}
	if count != 3 {
		t.Fatalf("backup count = %d, want 3", count)
	}
}
