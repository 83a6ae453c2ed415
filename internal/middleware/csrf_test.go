package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func csrfTarget(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// TestCSRFMiddleware_SafeMethods_PassThrough は安全なメソッドがトークンなしで通過することを検証する。
func TestCSRFMiddleware_SafeMethods_PassThrough(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			called := false
			handler := NewCSRFMiddleware(CSRFConfig{})(csrfTarget(&called))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(method, "/api/news", nil))

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if !called {
				t.Error("handler should have been called")
			}
		})
	}
}

// TestCSRFMiddleware_POST_Validation はPOSTリクエストのトークン検証を検証する。
func TestCSRFMiddleware_POST_Validation(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		header     string
		wantStatus int
	}{
		{"no cookie", "", "token-a", http.StatusForbidden},
		{"no header", "token-a", "", http.StatusForbidden},
		{"mismatch", "token-a", "token-b", http.StatusForbidden},
		{"prefix only", "token-a", "token-", http.StatusForbidden},
		{"match", "token-a", "token-a", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewCSRFMiddleware(CSRFConfig{})(csrfTarget(&called))

			req := httptest.NewRequest(http.MethodPost, "/api/service-requests", strings.NewReader(`{}`))
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeaderName, tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
			if tt.wantStatus == http.StatusForbidden {
				var body ErrorResponseBody
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if body.Code != "CSRF_TOKEN_INVALID" {
					t.Errorf("code = %q, want CSRF_TOKEN_INVALID", body.Code)
				}
			}
		})
	}
}

// TestCSRFMiddleware_StateMutatingMethods_RequireToken は状態変更メソッド全てでトークンが必須であることを検証する。
func TestCSRFMiddleware_StateMutatingMethods_RequireToken(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			called := false
			handler := NewCSRFMiddleware(CSRFConfig{})(csrfTarget(&called))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(method, "/api/service-requests", nil))

			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
			}
			if called {
				t.Error("handler should not have been called")
			}
		})
	}
}

// TestCSRFMiddleware_GET_SetsCookie はGETでCSRFトークンCookieが発行されることを検証する。
func TestCSRFMiddleware_GET_SetsCookie(t *testing.T) {
	called := false
	handler := NewCSRFMiddleware(CSRFConfig{CookieSecure: true, CookieDomain: "example.com"})(csrfTarget(&called))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/news", nil))

	c := findCookie(w.Result(), csrfCookieName)
	if c == nil {
		t.Fatal("expected csrf_token cookie to be set")
	}
	if len(c.Value) != 64 {
		t.Errorf("token length = %d, want 64", len(c.Value))
	}
	if c.HttpOnly {
		t.Error("csrf cookie must be readable from JavaScript")
	}
	if !c.Secure {
		t.Error("Secure = false, want true")
	}
	if c.Domain != "example.com" {
		t.Errorf("Domain = %q, want example.com", c.Domain)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
}

// TestCSRFMiddleware_GET_ExistingCookie_DoesNotReplace は既存のCookieを上書きしないことを検証する。
func TestCSRFMiddleware_GET_ExistingCookie_DoesNotReplace(t *testing.T) {
	called := false
	handler := NewCSRFMiddleware(CSRFConfig{})(csrfTarget(&called))

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if c := findCookie(w.Result(), csrfCookieName); c != nil {
		t.Errorf("unexpected Set-Cookie for csrf_token: %q", c.Value)
	}
}

// TestCSRFTokenHandler_IssuesToken はトークン取得エンドポイントがCookieとJSONで同じトークンを返すことを検証する。
func TestCSRFTokenHandler_IssuesToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	c := findCookie(resp, csrfCookieName)
	if c == nil {
		t.Fatal("expected csrf_token cookie to be set")
	}
	if body["token"] == "" || body["token"] != c.Value {
		t.Errorf("token = %q, cookie = %q, want equal non-empty values", body["token"], c.Value)
	}
}

// TestCSRFTokenHandler_ExistingCookie_ReturnsSameToken は既存トークンをそのまま返すことを検証する。
func TestCSRFTokenHandler_ExistingCookie_ReturnsSameToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["token"] != "existing-token" {
		t.Errorf("token = %q, want existing-token", body["token"])
	}
	if c := findCookie(w.Result(), csrfCookieName); c != nil {
		t.Error("existing token should not be reissued")
	}
}
