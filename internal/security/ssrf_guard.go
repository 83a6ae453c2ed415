package security

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// OutboundGuard は外部（問い合わせ送信先のWebhookなど）へのHTTP通信をSSRFから守る。
type OutboundGuard interface {
	// NewSafeClient はプライベートIP・ループバック・リンクローカル・メタデータIPへの
	// 接続をDialerレベルで拒否するHTTPクライアントを生成する。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateURL はDNS解決を伴わない静的な検証を行う。起動時の設定検証に使う。
	ValidateURL(rawURL string) error
}

// allowedSchemes はSSRF防止で許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks はValidateURLで拒否するネットワーク範囲。
var blockedNetworks = mustParseCIDRs(
	"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", // RFC 1918
	"100.64.0.0/10", // CGNAT
	"127.0.0.0/8", "::1/128",
	"169.254.0.0/16", "fe80::/10", // メタデータIP 169.254.169.254 を含む
	"0.0.0.0/8",
	"fc00::/7",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	networks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR %q: %v", cidr, err))
		}
		networks = append(networks, network)
	}
	return networks
}

type ssrfGuard struct{}

// NewOutboundGuard はOutboundGuardを生成する。
func NewOutboundGuard() OutboundGuard {
	return ssrfGuard{}
}

// NewSafeClient はsafeurlで保護されたHTTPクライアントを返す。
// 接続先のポートは80/443に限る。
func (ssrfGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はURLのスキーム・ホストを検証する。
// DNS再バインディングはNewSafeClient側のDialer検証で防ぐ。
func (ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("URLが空です")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URLの解析に失敗しました: %w", err)
	}

	// スキーム検証: http/httpsのみ許可
	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("許可されていないスキームです: %q (許可: %v)", scheme, allowedSchemes)
	}

	// ホスト検証: 空ホストを拒否
	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("URLにホストがありません: %s", rawURL)
	}

	// IPアドレスの場合: ブロック対象CIDRとの照合
	ip := net.ParseIP(host)
	if ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("内部アドレスへの送信は許可されていません: %s", ip.String())
		}
		return nil
	}

	// ホスト名の場合: localhost等の危険なホスト名を拒否
	if isBlockedHostname(host) {
		return fmt.Errorf("内部ホストへの送信は許可されていません: %s", host)
	}

	return nil
}

func isAllowedScheme(scheme string) bool {
	return slices.ContainsFunc(allowedSchemes, func(allowed string) bool {
		return strings.EqualFold(scheme, allowed)
	})
}

func isBlockedIP(ip net.IP) bool {
	return slices.ContainsFunc(blockedNetworks, func(n *net.IPNet) bool {
		return n.Contains(ip)
	})
}

// blockedHostnames はブロック対象のホスト名。
var blockedHostnames = []string{
	"localhost",
	"metadata.google.internal",
}

// isBlockedHostname はホスト名がブロック対象かを検証する。
func isBlockedHostname(host string) bool {
	lower := strings.TrimSuffix(strings.ToLower(host), ".")
	for _, blocked := range blockedHostnames {
		if lower == blocked || strings.HasSuffix(lower, "."+blocked) {
			return true
		}
	}
	return false
}
