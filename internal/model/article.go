// Package model はドメインモデルを定義する。
package model

import "time"

// Article はフィードから取り込んだ記事を表す。
// 同一フィード内で Link が一意となる（空文字列も1つのキーとして扱う）。
// 一度保存された記事は再取り込みで更新されない。
type Article struct {
	ID            string
	FeedID        string
	Title         string
	Link          string
	Description   string // サニタイズ済みHTML
	Summary       string // プレーンテキスト要約
	Author        string
	PublishedDate *time.Time
	ReadingTime   int // 推定読了時間（分）
	IsRead        bool
	IsBookmarked  bool
	CreatedAt     time.Time
}

// ArticleWithFeed は記事と所属フィードの表示用情報を結合したモデル。
// 一覧APIでfeedsテーブルとJOINして取得される。
type ArticleWithFeed struct {
	Article
	FeedName     string
	FeedCategory string
	FeedLogoURL  string
}

// ArticleFilter は記事一覧のフィルタ条件を表す。
type ArticleFilter struct {
	Category       string
	UnreadOnly     bool
	BookmarkedOnly bool
	Page           int
	PerPage        int
}

// ParsedEntry はフィードパーサーが返す未保存のエントリを表す。
// 欠損しうるメタデータはポインタで表現し、正規化は取り込み側で行う。
type ParsedEntry struct {
	Title     string
	Link      string
	Content   string // 未サニタイズのHTML
	Author    string
	Published *time.Time
}

// ParsedFeed はフィード文書1件のパース結果を表す。
type ParsedFeed struct {
	Title   string
	LogoURL string // 文書から解決できなかった場合は空
	Entries []ParsedEntry
}

const (
	// ArticleTitleMaxLen は記事タイトルの最大文字数（文字＝rune単位）。
	ArticleTitleMaxLen = 500
	// DefaultTitle はタイトルが欠損したエントリに与える値。
	DefaultTitle = "No Title"
	// ArticleAuthorMaxLen は著者名の最大文字数（文字＝rune単位）。
	ArticleAuthorMaxLen = 100
)
