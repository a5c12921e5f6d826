package ingest

import "github.com/hitoshi/rssreader/internal/model"

// ellipsis は切り詰め時に末尾へ付与するマーカー。
const ellipsis = "..."

// TruncateRunes は文字列をmax文字（rune単位）以内に切り詰める。
// 超過する場合は先頭 max-3 文字に "..." を付与し、結果は常にちょうどmax文字になる。
// 切り詰め済みの値を再度切り詰めても変化しない（冪等）。
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-len(ellipsis)]) + ellipsis
}

// NormalizeTitle は記事タイトルを正規化する。
// 欠損（空文字列）の場合は "No Title" を与え、500文字に切り詰める。
func NormalizeTitle(title string) string {
	if title == "" {
		title = model.DefaultTitle
	}
	return TruncateRunes(title, model.ArticleTitleMaxLen)
}

// NormalizeFeedName はフィード名を100文字に切り詰める。
func NormalizeFeedName(name string) string {
	return TruncateRunes(name, model.FeedNameMaxLen)
}

// NormalizeAuthor は著者名をカラム幅の100文字に切り詰める。
func NormalizeAuthor(author string) string {
	return TruncateRunes(author, model.ArticleAuthorMaxLen)
}
