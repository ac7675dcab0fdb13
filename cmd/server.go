// Package main はcorsserveサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"corsserve/internal/config"
	"corsserve/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 全インターフェース)")
		port       = flag.Int("port", 0, "サーバーのポート (デフォルト: 8000)")
		root       = flag.String("root", "", "配信するディレクトリ (デフォルト: カレントディレクトリ)")
		configPath = flag.String("config", "", "設定ファイル (.yaml / .yml / .toml)")
		help       = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("corsserve")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む (検証はオプション反映後にまとめて行う)
	cfg := config.FromEnv()
	if *configPath != "" {
		if err := cfg.ApplyFile(*configPath); err != nil {
			log.Fatalf("設定の読み込みに失敗しました: %v", err)
		}
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *root != "" {
		cfg.Server.Root = *root
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定が不正です: %v", err)
	}

	// Ginサーバーを作成
	srv := server.New(cfg)

	// サーバーを起動
	log.Printf("corsserve を起動します: %s", cfg.ServerAddress())
	if err := srv.Start(context.Background()); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
