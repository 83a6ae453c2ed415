// Package security は公開ページと外部連携のためのセキュリティ機能を提供する。
package security

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/ledgersite/internal/model"
)

// ContentSanitizer は管理画面で入力された本文HTMLを配信前に無害化する。
type ContentSanitizer interface {
	Sanitize(rawHTML string) string
}

// articleSanitizer は記事本文向けの許可リストポリシーを持つContentSanitizer。
// bluemonday.Policyは生成後の並行利用が安全。
type articleSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer は記事本文向けのContentSanitizerを生成する。
//
// 許可するもの:
//   - 段落・見出し(h2〜h4)・リスト・引用・コード・表・強調
//   - aのhref（https, mailto, サイト内の相対パス）。外部リンクには target="_blank" を付与
//   - imgのsrc（https, 相対パス）とalt
//
// script, iframe, style, on*属性は許可リストにないため除去される。
func NewContentSanitizer() ContentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "hr",
		"h2", "h3", "h4",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "small",
		"table", "thead", "tbody", "tr", "th", "td",
		"figure", "figcaption",
	)
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("th", "td")

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("https", "mailto")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnFullyQualifiedLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")

	return &articleSanitizer{policy: p}
}

// Sanitize はHTMLを無害化して返す。空文字列には空文字列を返す。
func (s *articleSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// SanitizeInsight はインサイト本文を無害化したコピーを返す。
func SanitizeInsight(s ContentSanitizer, item model.InsightItem) model.InsightItem {
	item.Content = s.Sanitize(item.Content)
	return item
}

// SanitizeSolution はサービス紹介本文を無害化したコピーを返す。
func SanitizeSolution(s ContentSanitizer, item model.SolutionItem) model.SolutionItem {
	item.Content = s.Sanitize(item.Content)
	return item
}
