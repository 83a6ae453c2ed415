package store

import (
	"log/slog"
	"net/http"
)

// CookieStore は名前付きCookieの読み書きを表す。
// 書き込みの失敗は呼び出し元に伝播せず、ログに記録するだけにする。
type CookieStore interface {
	Get(name string) (string, bool)
	Set(cookie *http.Cookie)
	Delete(name string)
}

// RequestCookies はHTTPリクエストからCookieを読み、レスポンスにSet-Cookieを書き込む。
type RequestCookies struct {
	r *http.Request
	w http.ResponseWriter
}

// NewRequestCookies はRequestCookiesを生成する。
func NewRequestCookies(w http.ResponseWriter, r *http.Request) *RequestCookies {
	return &RequestCookies{r: r, w: w}
}

// Get は指定名のCookieの値を返す。存在しないか空の場合はfalseを返す。
func (c *RequestCookies) Get(name string) (string, bool) {
	if c.r == nil {
		return "", false
	}
	cookie, err := c.r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Set はレスポンスにCookieを書き込む。
// 不正なCookieは書き込まずに警告ログを出す。
func (c *RequestCookies) Set(cookie *http.Cookie) {
	if c.w == nil || cookie == nil {
		return
	}
	if err := cookie.Valid(); err != nil {
		slog.Warn("cookie not written",
			slog.String("name", cookie.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	http.SetCookie(c.w, cookie)
}

// Delete はCookieを失効させる。
func (c *RequestCookies) Delete(name string) {
	c.Set(&http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
}

// NoopCookies はCookieにアクセスできない静的生成コンテキスト用の実装。
type NoopCookies struct{}

func (NoopCookies) Get(string) (string, bool) { return "", false }
func (NoopCookies) Set(*http.Cookie)          {}
func (NoopCookies) Delete(string)             {}

var _ CookieStore = (*RequestCookies)(nil)
var _ CookieStore = NoopCookies{}
