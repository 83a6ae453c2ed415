package content

import (
	"database/sql"

	"github.com/hitoshi/ledgersite/internal/model"
	"github.com/hitoshi/ledgersite/internal/store"
)

// Table はコンテンツ種別ごとのテーブル定義。
type Table[T any] struct {
	Name    string
	Columns []string
	Scan    store.Scanner[T]
}

// NewsTable はnewsテーブルの定義。
var NewsTable = Table[model.NewsItem]{
	Name: "news",
	Columns: []string{
		"id", "title", "excerpt", "image_url", "featured", "slug",
		"published", "created_at", "updated_at",
	},
	Scan: scanNews,
}

// InsightsTable はinsightsテーブルの定義。
var InsightsTable = Table[model.InsightItem]{
	Name: "insights",
	Columns: []string{
		"id", "title", "hook", "slug", "image_url", "type", "content",
		"download_url", "published", "created_at", "updated_at",
	},
	Scan: scanInsight,
}

// TemplatesTable はtemplatesテーブルの定義。
var TemplatesTable = Table[model.TemplateItem]{
	Name: "templates",
	Columns: []string{
		"id", "title", "description", "category", "slug", "image_url",
		"file_url", "published", "created_at", "updated_at",
	},
	Scan: scanTemplate,
}

// SolutionsTable はsolutionsテーブルの定義。
var SolutionsTable = Table[model.SolutionItem]{
	Name: "solutions",
	Columns: []string{
		"id", "title", "summary", "content", "slug", "image_url", "icon",
		"published", "created_at", "updated_at",
	},
	Scan: scanSolution,
}

func scanNews(row store.RowScanner) (model.NewsItem, error) {
	var n model.NewsItem
	var excerpt, imageURL sql.NullString
	err := row.Scan(
		&n.ID, &n.Title, &excerpt, &imageURL, &n.Featured, &n.Slug,
		&n.Published, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return model.NewsItem{}, err
	}
	n.Excerpt = nullStringValue(excerpt)
	n.ImageURL = nullStringPtr(imageURL)
	return n, nil
}

func scanInsight(row store.RowScanner) (model.InsightItem, error) {
	var i model.InsightItem
	var hook, imageURL, typ, body, downloadURL sql.NullString
	err := row.Scan(
		&i.ID, &i.Title, &hook, &i.Slug, &imageURL, &typ, &body,
		&downloadURL, &i.Published, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return model.InsightItem{}, err
	}
	i.Hook = nullStringValue(hook)
	i.ImageURL = nullStringPtr(imageURL)
	i.Type = nullStringValue(typ)
	i.Content = nullStringValue(body)
	i.DownloadURL = nullStringPtr(downloadURL)
	return i, nil
}

func scanTemplate(row store.RowScanner) (model.TemplateItem, error) {
	var t model.TemplateItem
	var description, category, imageURL, fileURL sql.NullString
	err := row.Scan(
		&t.ID, &t.Title, &description, &category, &t.Slug, &imageURL,
		&fileURL, &t.Published, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.TemplateItem{}, err
	}
	t.Description = nullStringValue(description)
	t.Category = nullStringValue(category)
	t.ImageURL = nullStringPtr(imageURL)
	t.FileURL = nullStringPtr(fileURL)
	return t, nil
}

func scanSolution(row store.RowScanner) (model.SolutionItem, error) {
	var s model.SolutionItem
	var summary, body, imageURL, icon sql.NullString
	err := row.Scan(
		&s.ID, &s.Title, &summary, &body, &s.Slug, &imageURL, &icon,
		&s.Published, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return model.SolutionItem{}, err
	}
	s.Summary = nullStringValue(summary)
	s.Content = nullStringValue(body)
	s.ImageURL = nullStringPtr(imageURL)
	s.Icon = nullStringPtr(icon)
	return s, nil
}

func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
