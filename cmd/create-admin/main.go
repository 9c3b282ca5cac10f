// Package main は管理者アカウントを登録するCLIツールです。
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourusername/order-desk/internal/auth"
	"github.com/yourusername/order-desk/internal/store"
)

func main() {
	_ = godotenv.Load(".env.local")

	var (
		username      = flag.String("username", "", "登録する管理者のユーザー名（未指定なら ADMIN_USERNAME）")
		password      = flag.String("password", "", "登録する管理者のパスワード（未指定なら ADMIN_PASSWORD）")
		passwordStdin = flag.Bool("password-stdin", false, "パスワードを標準入力の1行目から読み取る")
		dataDir       = flag.String("data-dir", "", "データディレクトリ（未指定なら DATA_DIR、既定は data）")
	)
	flag.Parse()

	if *username == "" {
		*username = os.Getenv("ADMIN_USERNAME")
	}
	if *passwordStdin {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "error: failed to read password from stdin")
			os.Exit(1)
		}
		*password = strings.TrimRight(line, "\r\n")
	} else if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if *dataDir == "" {
		*dataDir = os.Getenv("DATA_DIR")
		if *dataDir == "" {
			*dataDir = "data"
		}
	}

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: create-admin --username <name> [--password <password> | --password-stdin]")
		fmt.Fprintln(os.Stderr, "       環境変数 ADMIN_USERNAME / ADMIN_PASSWORD でも指定できます")
		os.Exit(2)
	}

	db, err := store.Open(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	verifier := auth.NewVerifier(store.NewAdminStore(db))
	if err := verifier.Provision(ctx, *username, *password); err != nil {
		if errors.Is(err, auth.ErrAlreadyExists) {
			fmt.Fprintf(os.Stderr, "error: admin user %q already exists\n", *username)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: failed to create admin user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("admin user %q created\n", *username)
}
