package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"corsserve/internal/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

const indexFile = "index.html"

// handleFile は GET / HEAD リクエストに対してファイルを配信する
func (s *Server) handleFile(c *gin.Context) {
	reqPath := c.Request.URL.Path
	if c.Request.Method == http.MethodGet {
		fmt.Fprintf(s.out, "GET request: %s\n", c.Request.RequestURI)
	}

	// 末尾が / のパスは index.html を指す
	name := reqPath
	if strings.HasSuffix(name, "/") {
		name += indexFile
	}

	f, err := s.files.Open(name)
	if err != nil {
		serveError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		serveError(c, err)
		return
	}

	if info.IsDir() {
		// 末尾スラッシュなしのディレクトリは書き換えず、スラッシュ付きへリダイレクト
		if !strings.HasSuffix(reqPath, "/") {
			target := path.Base(reqPath) + "/"
			if q := c.Request.URL.RawQuery; q != "" {
				target += "?" + q
			}
			c.Redirect(http.StatusMovedPermanently, target)
			return
		}
		serveError(c, fs.ErrNotExist)
		return
	}

	ctype, err := s.contentType(name, f)
	if err != nil {
		serveError(c, err)
		return
	}
	c.Header("Content-Type", ctype)

	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

// handlePreflight は CORS プリフライトに空の 200 を返す
func (s *Server) handlePreflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

// handleNoRoute は / で始まらないリクエストターゲットを処理する
func (s *Server) handleNoRoute(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusOK)
		return
	}
	c.String(http.StatusNotFound, "404 page not found")
}

// handleNotImplemented は未対応メソッドに 501 を返す
func (s *Server) handleNotImplemented(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 Unsupported method (%s)", c.Request.Method)
}

// contentType は拡張子テーブル、mime パッケージ、内容判定の順に Content-Type を決める
func (s *Server) contentType(name string, content io.ReadSeeker) (string, error) {
	ext := config.NormalizeExt(path.Ext(name))
	if ctype, ok := s.contentTypes[ext]; ok {
		return ctype, nil
	}
	if ctype := mime.TypeByExtension(ext); ctype != "" {
		return ctype, nil
	}

	mtype, err := mimetype.DetectReader(content)
	if err != nil {
		return "", fmt.Errorf("Content-Typeの判定に失敗: %w", err)
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("ファイル先頭へのシークに失敗: %w", err)
	}
	return mtype.String(), nil
}

// serveError はファイルシステムのエラーをHTTPステータスに変換する
func serveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		c.String(http.StatusNotFound, "404 page not found")
	case errors.Is(err, fs.ErrPermission):
		c.String(http.StatusForbidden, "403 Forbidden")
	default:
		c.String(http.StatusInternalServerError, "500 Internal Server Error")
	}
}
