package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"corsserve/internal/config"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
)

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	engine     *gin.Engine
	httpServer *http.Server

	// 配信元のファイルシステム
	files http.FileSystem

	// 正規化済みの拡張子 -> Content-Type テーブル
	contentTypes map[string]string

	// バナーとリクエストエコーの出力先
	out io.Writer

	mu       sync.Mutex
	listener net.Listener
}

// New はginエンジンを使うServerインスタンスを作成する
func New(cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:       cfg,
		engine:       gin.New(),
		files:        http.Dir(cfg.Server.Root),
		contentTypes: make(map[string]string, len(cfg.ContentTypes)),
		out:          os.Stdout,
	}
	for ext, ctype := range cfg.ContentTypes {
		s.contentTypes[config.NormalizeExt(ext)] = ctype
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      s.engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,

		// OPTIONS * もginに渡してCORSヘッダーを付与する
		DisableGeneralOptionsHandler: true,
	}

	return s
}

// SetOutput はバナーとリクエストエコーの出力先を変更する
func (s *Server) SetOutput(w io.Writer) {
	s.out = w
}

// Handler は組み立て済みのHTTPハンドラを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr は待ち受け中のアドレスを返す。起動前は nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// setupRoutes はミドルウェアとHTTPルートを設定する
func (s *Server) setupRoutes() {
	// CORSヘッダーは404やpanic時も含めて付与する
	s.engine.Use(corsMiddleware(s.config.CORS), gin.Recovery())

	s.engine.GET("/*filepath", s.handleFile)
	s.engine.HEAD("/*filepath", s.handleFile)
	s.engine.OPTIONS("/*filepath", s.handlePreflight)

	// GET/HEAD/OPTIONS 以外は 501
	s.engine.HandleMethodNotAllowed = true
	s.engine.NoMethod(s.handleNotImplemented)

	// ルートに一致しないパス (OPTIONS * など)
	s.engine.NoRoute(s.handleNoRoute)
}

// corsMiddleware はすべてのレスポンスにCORSヘッダーを付与する
func corsMiddleware(cors config.CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", cors.AllowOrigin)
		h.Set("Access-Control-Allow-Methods", cors.AllowMethods)
		h.Set("Access-Control-Allow-Headers", cors.AllowHeaders)
		c.Next()
	}
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// ポートの確保は同期的に行い、失敗はすぐに返す
	ln, err := net.Listen("tcp", s.config.ServerAddress())
	if err != nil {
		return fmt.Errorf("ポートの確保に失敗: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.printBanner(ln.Addr())

	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Printf("HTTPサーバーを起動しています: %s (root=%s)", ln.Addr(), s.config.Server.Root)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownCh <- fmt.Errorf("サーバーの実行に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		return err
	}

	return s.Shutdown()
}

// printBanner は待ち受けURLと停止方法を表示する
func (s *Server) printBanner(addr net.Addr) {
	bannerCfg := *s.config
	if tcp, ok := addr.(*net.TCPAddr); ok {
		bannerCfg.Server.Port = tcp.Port
	}

	color.New(color.FgGreen, color.Bold).Fprintf(s.out, "Serving at %s\n", bannerCfg.URL())
	fmt.Fprintln(s.out, "Press Ctrl+C to stop")
}

// Shutdown はサーバーをグレースフルにシャットダウンする
func (s *Server) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}
