// Package backup はSQLiteデータベースのスナップショット作成と世代管理を提供します。
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Service はバックアップの実行に必要な依存をまとめた構造体です。
type Service struct {
	db   *sql.DB
	dir  string
	keep int
}

// NewService は Service を作成します。keep が0以下の場合は世代削除を行いません。
func NewService(db *sql.DB, dir string, keep int) *Service {
	return &Service{db: db, dir: dir, keep: keep}
}

// Run はVACUUM INTOでスナップショットを作成し、古い世代を削除して
// 作成したファイルのパスを返します。
func (s *Service) Run(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	outputPath := filepath.Join(s.dir, fmt.Sprintf("app-%s.db", timestamp()))
	// VACUUM INTO はパスをプレースホルダにできないため文字列を直接組み立てる
	query := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(outputPath, "'", "''"))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	if err := s.prune(); err != nil {
		return "", err
	}
	return outputPath, nil
}

// prune は更新時刻の新しい順に keep 世代だけ残して削除します。
func (s *Service) prune() error {
	if s.keep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read backup dir: %w", err)
	}

	type backupFile struct {
		path    string
		modTime time.Time
	}
	files := []backupFile{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, backupFile{
			path:    filepath.Join(s.dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	for _, file := range files[min(s.keep, len(files)):] {
		if err := os.Remove(file.path); err != nil {
			return fmt.Errorf("failed to prune backup %s: %w", file.path, err)
		}
	}
	return nil
}

func timestamp() string {
	iso := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}
