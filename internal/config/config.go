package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server ServerConfig `yaml:"server" toml:"server"`
	CORS   CORSConfig   `yaml:"cors" toml:"cors"`

	// 拡張子 -> Content-Type の上書きテーブル
	ContentTypes map[string]string `yaml:"content_types" toml:"content_types"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host" toml:"host"` // リッスンするホスト (空なら全インターフェース)
	Port int    `yaml:"port" toml:"port"` // リッスンするポート番号
	Root string `yaml:"root" toml:"root"` // 配信するルートディレクトリ

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout" toml:"read_timeout"`   // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"` // 書き込みタイムアウト
}

// CORSConfig はすべてのレスポンスに付与するCORSヘッダー
type CORSConfig struct {
	AllowOrigin  string `yaml:"allow_origin" toml:"allow_origin"`
	AllowMethods string `yaml:"allow_methods" toml:"allow_methods"`
	AllowHeaders string `yaml:"allow_headers" toml:"allow_headers"`
}

// DefaultPort は固定の待ち受けポート
const DefaultPort = 8000

// DefaultContentTypes は拡張子ベースのContent-Type上書きテーブルを返す
func DefaultContentTypes() map[string]string {
	return map[string]string{
		".js":   "application/javascript",
		".css":  "text/css",
		".html": "text/html",
		".json": "application/json",
	}
}

// Default はデフォルト設定を返す
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "",
			Port:         DefaultPort,
			Root:         ".",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // 大きなファイルの配信用に無効化
		},
		CORS: CORSConfig{
			AllowOrigin:  "*",
			AllowMethods: "GET, POST, OPTIONS",
			AllowHeaders: "X-Requested-With, Content-Type",
		},
		ContentTypes: DefaultContentTypes(),
	}
}

// FromEnv はデフォルト設定に環境変数を反映する。検証は行わない
func FromEnv() *Config {
	cfg := Default()
	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsIntOrDefault("SERVER_PORT", getEnvAsIntOrDefault("PORT", cfg.Server.Port))
	cfg.Server.Root = getEnvOrDefault("SERVER_ROOT", cfg.Server.Root)
	return cfg
}

// Load はデフォルト設定に環境変数を反映して読み込む
func Load() (*Config, error) {
	cfg := FromEnv()

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// LoadFile は環境変数の設定に設定ファイル (YAML または TOML) の内容を重ねて検証する
func LoadFile(path string) (*Config, error) {
	cfg := FromEnv()
	if err := cfg.ApplyFile(path); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// ApplyFile は設定ファイルの内容を c に重ねる。検証は行わない
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}

	// ファイル側のテーブルは既存のテーブルにマージする
	merged := c.ContentTypes
	if merged == nil {
		merged = make(map[string]string)
	}
	c.ContentTypes = nil
	defer func() {
		for ext, ctype := range c.ContentTypes {
			merged[NormalizeExt(ext)] = ctype
		}
		c.ContentTypes = merged
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("YAMLの解析に失敗: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("TOMLの解析に失敗: %w", err)
		}
	default:
		return fmt.Errorf("未対応の設定ファイル形式: %s", path)
	}

	return nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}
	if c.Server.Root == "" {
		return fmt.Errorf("ルートディレクトリが指定されていません")
	}

	info, err := os.Stat(c.Server.Root)
	if err != nil {
		return fmt.Errorf("ルートディレクトリを確認できません: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("ルートがディレクトリではありません: %s", c.Server.Root)
	}

	// Content-Type テーブルの検証
	for ext, ctype := range c.ContentTypes {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("拡張子はドットで始まる必要があります: %q", ext)
		}
		if ctype == "" {
			return fmt.Errorf("拡張子 %s のContent-Typeが空です", ext)
		}
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// URL は起動バナーに表示するURLを返す
func (c *Config) URL() string {
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}

// NormalizeExt は拡張子を小文字・先頭ドット付きに揃える
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
