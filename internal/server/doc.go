// Package server は、開発用の静的ファイルHTTPサーバーを提供します。
//
// このパッケージは、ルートディレクトリ配下のファイル配信、
// CORSヘッダーの付与、拡張子ベースのContent-Type決定を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - すべてのレスポンスへのCORSヘッダー付与
//   - OPTIONS (プリフライト) への空の 200 応答
//   - 末尾が / のパスを index.html として解決
//   - 拡張子テーブルによるContent-Typeの上書き
//
// 仕様:
//   - ルーティングとミドルウェアはgin-gonic/ginを使用
//   - テーブルにない拡張子は mime パッケージ、次に gabriel-vasile/mimetype で判定
//   - Range (206) と条件付きリクエスト (304) は http.ServeContent の既定動作のまま
//   - リクエスト間で状態を持たない
//   - SIGINT / SIGTERM で停止
package server
