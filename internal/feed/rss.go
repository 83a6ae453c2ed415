package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/ledgersite/internal/model"
)

// Channel はRSSチャンネルのメタデータ。
type Channel struct {
	Title       string
	Description string
	Language    string
}

// RSSGenerator は新着情報からRSS 2.0のXMLを生成する。
type RSSGenerator struct {
	baseURL string
	channel Channel
	now     func() time.Time
}

// NewRSSGenerator はRSSGeneratorを生成する。baseURLは記事リンクの組み立てに使う。
func NewRSSGenerator(baseURL string, channel Channel) *RSSGenerator {
	return &RSSGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		channel: channel,
		now:     time.Now,
	}
}

// ItemLink は新着情報の詳細ページURLを返す。
func (g *RSSGenerator) ItemLink(item model.UpdateItem) string {
	section := "news"
	if item.Type == model.UpdateTypeInsight {
		section = "insights"
	}
	return fmt.Sprintf("%s/%s/%s", g.baseURL, section, item.Slug)
}

// Generate は新着情報をRSS 2.0のXMLに変換する。itemsの順序はそのまま保つ。
func (g *RSSGenerator) Generate(items []model.UpdateItem) []byte {
	var buf bytes.Buffer

	buf.WriteString(xml.Header)
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	writeElement(&buf, "title", g.channel.Title, 4)
	writeElement(&buf, "link", g.baseURL+"/", 4)
	writeElement(&buf, "description", g.channel.Description, 4)
	writeElement(&buf, "language", g.channel.Language, 4)
	fmt.Fprintf(&buf, "    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		escape(g.baseURL+"/updates.rss"))
	writeElement(&buf, "lastBuildDate", g.lastBuildDate(items).Format(time.RFC1123Z), 4)
	writeElement(&buf, "generator", "ledgersite", 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>\n")
	return buf.Bytes()
}

// lastBuildDate は最新項目の作成日時を返す。項目がなければ現在時刻。
func (g *RSSGenerator) lastBuildDate(items []model.UpdateItem) time.Time {
	var latest time.Time
	for _, item := range items {
		if item.CreatedAt.After(latest) {
			latest = item.CreatedAt
		}
	}
	if latest.IsZero() {
		return g.now()
	}
	return latest
}

func (g *RSSGenerator) writeItem(buf *bytes.Buffer, item model.UpdateItem) {
	link := g.ItemLink(item)

	buf.WriteString("    <item>\n")
	fmt.Fprintf(buf, "      <guid isPermaLink=\"true\">%s</guid>\n", escape(link))
	writeElement(buf, "title", item.Title, 6)
	writeElement(buf, "link", link, 6)
	writeElement(buf, "description", PlainText(item.Excerpt, descriptionMaxRunes), 6)
	writeElement(buf, "category", string(item.Type), 6)
	if !item.CreatedAt.IsZero() {
		writeElement(buf, "pubDate", item.CreatedAt.Format(time.RFC1123Z), 6)
	}
	buf.WriteString("    </item>\n")
}

// writeElement はエスケープ済みの要素を1行書き出す。空の値は書き出さない。
func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}
	buf.WriteString(strings.Repeat(" ", indent))
	fmt.Fprintf(buf, "<%s>%s</%s>\n", tag, escape(content), tag)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
