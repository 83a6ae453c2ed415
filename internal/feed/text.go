package feed

import (
	"strings"

	"golang.org/x/net/html"
)

// descriptionMaxRunes はRSSのdescriptionに載せる本文の最大文字数。
const descriptionMaxRunes = 200

// PlainText はHTML断片からテキストだけを取り出し、空白を1つに詰める。
// script/styleの中身は捨てる。maxRunesを超える場合は末尾を「…」で切り詰める。
func PlainText(fragment string, maxRunes int) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	var b strings.Builder
	skipDepth := 0
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return truncateRunes(strings.Join(strings.Fields(b.String()), " "), maxRunes)
		}

		tn, _ := tokenizer.TagName()
		tag := string(tn)

		switch tt {
		case html.StartTagToken:
			if rawTextTags[tag] {
				skipDepth++
			}
			if tag == "br" {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			if rawTextTags[tag] && skipDepth > 0 {
				skipDepth--
			}
			// ブロック境界で語がつながらないよう区切る
			if blockTags[tag] {
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			if tag == "br" {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

var rawTextTags = map[string]bool{"script": true, "style": true}

var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "figcaption": true,
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}
