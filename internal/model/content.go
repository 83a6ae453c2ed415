// Package model はドメインモデルを定義する。
package model

import "time"

// ContentItem は公開コンテンツ各種に共通する項目を表す。
// 作成・更新は管理画面側で行われ、このサービスは読み取りのみを行う。
type ContentItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	ImageURL  *string   `json:"image_url"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewsItem はお知らせ（newsテーブル）を表す。
type NewsItem struct {
	ContentItem
	Excerpt  string `json:"excerpt"`
	Featured bool   `json:"featured"` // トップページでの掲載対象
}

// InsightItem はコラム・解説記事（insightsテーブル）を表す。
// Hookは一覧表示用の導入文で、NewsItem.Excerptに相当する。
type InsightItem struct {
	ContentItem
	Hook        string  `json:"hook"`
	Content     string  `json:"content"`
	Type        string  `json:"type"`
	DownloadURL *string `json:"download_url"`
}

// TemplateItem は配布用の書式テンプレート（templatesテーブル）を表す。
type TemplateItem struct {
	ContentItem
	Description string  `json:"description"`
	Category    string  `json:"category"`
	FileURL     *string `json:"file_url"`
}

// SolutionItem はサービス紹介（solutionsテーブル）を表す。
type SolutionItem struct {
	ContentItem
	Summary string  `json:"summary"`
	Content string  `json:"content"`
	Icon    *string `json:"icon"`
}

// UpdateType は新着情報の種別を表す。
type UpdateType string

const (
	// UpdateTypeNews はnewsテーブル由来の新着情報。
	UpdateTypeNews UpdateType = "news"
	// UpdateTypeInsight はinsightsテーブル由来の新着情報。
	UpdateTypeInsight UpdateType = "insight"
)

// UpdateItem は新着情報フィードの1件を表す。
// ニュースとインサイトを共通の形に射影したもので、集約処理でのみ生成される。
type UpdateItem struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Excerpt   string     `json:"excerpt"`
	Slug      string     `json:"slug"`
	ImageURL  *string    `json:"image_url"`
	CreatedAt time.Time  `json:"created_at"`
	Type      UpdateType `json:"type"`
}

// UpdateFromNews はNewsItemをUpdateItemに射影する。
func UpdateFromNews(n NewsItem) UpdateItem {
	return UpdateItem{
		ID:        n.ID,
		Title:     n.Title,
		Excerpt:   n.Excerpt,
		Slug:      n.Slug,
		ImageURL:  n.ImageURL,
		CreatedAt: n.CreatedAt,
		Type:      UpdateTypeNews,
	}
}

// UpdateFromInsight はInsightItemをUpdateItemに射影する。ExcerptにはHookを用いる。
func UpdateFromInsight(i InsightItem) UpdateItem {
	return UpdateItem{
		ID:        i.ID,
		Title:     i.Title,
		Excerpt:   i.Hook,
		Slug:      i.Slug,
		ImageURL:  i.ImageURL,
		CreatedAt: i.CreatedAt,
		Type:      UpdateTypeInsight,
	}
}
