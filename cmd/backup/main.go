// Package main はデータベースのバックアップを1回だけ実行するCLIツールです。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourusername/order-desk/internal/backup"
	"github.com/yourusername/order-desk/internal/store"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		dataDir = flag.String("data-dir", "", "データディレクトリ（未指定なら DATA_DIR、既定は data）")
		outDir  = flag.String("out-dir", "", "バックアップ保存先（未指定なら <data-dir>/backups）")
		keep    = flag.Int("keep", 14, "保持するバックアップ世代数（0以下で無制限）")
	)
	flag.Parse()

	if *dataDir == "" {
		*dataDir = os.Getenv("DATA_DIR")
		if *dataDir == "" {
			*dataDir = "data"
		}
	}
	if *outDir == "" {
		*outDir = filepath.Join(*dataDir, "backups")
	}

	db, err := store.Open(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	path, err := backup.NewService(db, *outDir, *keep).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: backup failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("backup created: %s\n", path)
}
