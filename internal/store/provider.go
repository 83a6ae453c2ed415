package store

import (
	"context"
	"net/http"
)

// Mode はハンドルを生成する実行コンテキストの種別。
type Mode string

const (
	// ModeRequest はHTTPリクエスト単位の実行。Cookieを読み書きできる。
	ModeRequest Mode = "request"
	// ModeStatic はビルド時・バッチなどリクエストのない実行。Cookie操作は何もしない。
	ModeStatic Mode = "static"
)

// ExecContext はハンドル生成時の実行コンテキスト。
type ExecContext struct {
	Mode    Mode
	Cookies CookieStore
}

// RequestContext はHTTPリクエストに紐づく実行コンテキストを返す。
func RequestContext(w http.ResponseWriter, r *http.Request) ExecContext {
	return ExecContext{Mode: ModeRequest, Cookies: NewRequestCookies(w, r)}
}

// StaticContext はCookieを持たない静的生成用の実行コンテキストを返す。
func StaticContext() ExecContext {
	return ExecContext{Mode: ModeStatic, Cookies: NoopCookies{}}
}

// ProviderConfig はProviderの設定。プロセス起動時に1回だけ組み立てて注入する。
type ProviderConfig struct {
	AnonKey    string // クライアントに露出してよい公開キー
	ServiceKey string // サーバー専用の特権キー。空の場合は静的コンテキストでもAnonKeyを使う

	SessionCookie string // セッションのアクセストークンを保持するCookie名
	SessionMaxAge int    // セッションCookieを延長する秒数。0以下なら延長しない
	CookieSecure  bool
	CookieDomain  string
}

// Provider は実行コンテキストに応じたClientを生成する。
// Backendはコンテキスト間で共有され、クエリのパラメータに関して状態を持たない。
type Provider struct {
	backend Backend
	config  ProviderConfig
}

// NewProvider はProviderを生成する。
func NewProvider(backend Backend, config ProviderConfig) *Provider {
	return &Provider{backend: backend, config: config}
}

// Client は実行コンテキストに応じたハンドルを返す。
// ネットワークへのアクセスは行わない。
//
// リクエストコンテキストでは公開キーを使い、セッションCookieがあればその
// アクセストークンをBearerとして送る。同時にCookieの有効期限を延長する。
// 静的コンテキストでは特権キー（未設定なら公開キー）を使う。
func (p *Provider) Client(ec ExecContext) *Client {
	cookies := ec.Cookies
	if cookies == nil {
		cookies = NoopCookies{}
	}

	var auth Auth
	switch ec.Mode {
	case ModeStatic:
		key := p.config.ServiceKey
		if key == "" {
			key = p.config.AnonKey
		}
		auth = Auth{Key: key, Token: key}
	default:
		auth = Auth{Key: p.config.AnonKey, Token: p.config.AnonKey}
		if token, ok := p.sessionToken(cookies); ok {
			auth.Token = token
			p.renewSession(cookies, token)
		}
	}

	return &Client{
		backend: p.backend,
		auth:    auth,
		cookies: cookies,
		mode:    ec.Mode,
	}
}

// Ping は公開キーでバックエンドへの疎通を確認する。
func (p *Provider) Ping(ctx context.Context) error {
	return p.backend.Ping(ctx, Auth{Key: p.config.AnonKey, Token: p.config.AnonKey})
}

func (p *Provider) sessionToken(cookies CookieStore) (string, bool) {
	if p.config.SessionCookie == "" {
		return "", false
	}
	return cookies.Get(p.config.SessionCookie)
}

func (p *Provider) renewSession(cookies CookieStore, token string) {
	if p.config.SessionMaxAge <= 0 {
		return
	}
	cookies.Set(&http.Cookie{
		Name:     p.config.SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   p.config.CookieDomain,
		MaxAge:   p.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   p.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
