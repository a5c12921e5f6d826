// Package model はドメインモデルを定義する。
package model

import "time"

// Feed は登録済みのRSS/Atomフィードを表す。
// LogoURL は一度設定されたら以降の更新で上書きされない。
type Feed struct {
	ID          string
	Name        string
	URL         string
	Category    string
	LogoURL     string
	LastFetched *time.Time
	IsActive    bool
	CreatedAt   time.Time
}

// FeedWithCount はフィードと記事数を結合したモデル。
// 一覧APIでarticlesテーブルとJOINして取得される。
type FeedWithCount struct {
	Feed
	ArticleCount int
}

// DefaultCategory は登録時にカテゴリ未指定の場合に使われる値。
const DefaultCategory = "General"

// FeedNameMaxLen はフィード名の最大文字数（文字＝rune単位）。
const FeedNameMaxLen = 100
