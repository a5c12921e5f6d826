// Package enrich は記事コンテンツから派生情報（要約・読了時間）を計算する。
package enrich

import (
	"html"
	"regexp"
	"strings"
)

// wordsPerMinute は読了時間推定に使用する読速（語/分）。
const wordsPerMinute = 200

// summaryMaxLen は要約の最大文字数（rune単位）。
const summaryMaxLen = 300

// summarySentences は要約に含める文の数。
const summarySentences = 2

// sentenceEnd は文末を検出する正規表現。和文の句点にも対応する。
var sentenceEnd = regexp.MustCompile(`[.!?。！？]+(\s+|$)`)

// Service は要約と読了時間の計算を提供する。
// 入力はサニタイズ済みプレーンテキストを想定する。
type Service struct{}

// NewService はServiceの新しいインスタンスを生成する。
func NewService() *Service {
	return &Service{}
}

// ReadingTime はテキストの読了時間（分）を推定する。
// 語数を200語/分で割った値で、最小値は1分。
func (s *Service) ReadingTime(plainText string) int {
	words := len(strings.Fields(normalize(plainText)))
	minutes := words / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Summarize はテキストの先頭2文を要約として返す。
// 300文字を超える場合は切り詰めて "..." を付与する。
// 空のテキストには空文字列を返す。
func (s *Service) Summarize(plainText string) string {
	text := normalize(plainText)
	if text == "" {
		return ""
	}

	// 先頭から2文目の文末までを要約とする
	ends := sentenceEnd.FindAllStringIndex(text, summarySentences)
	if len(ends) == summarySentences {
		text = strings.TrimSpace(text[:ends[summarySentences-1][1]])
	}

	runes := []rune(text)
	if len(runes) > summaryMaxLen {
		text = string(runes[:summaryMaxLen-3]) + "..."
	}

	return text
}

// normalize はHTMLエンティティを復元し、連続する空白を1つに畳み込む。
func normalize(text string) string {
	return strings.Join(strings.Fields(html.UnescapeString(text)), " ")
}
