// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, feed, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidURL       = "INVALID_URL"
	ErrCodeSSRFBlocked      = "SSRF_BLOCKED"
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeParseFailed      = "PARSE_FAILED"
	ErrCodeEmptyFeed        = "EMPTY_FEED"
	ErrCodeDuplicateFeed    = "DUPLICATE_FEED"
	ErrCodeFeedNotFound     = "FEED_NOT_FOUND"
	ErrCodeArticleNotFound  = "ARTICLE_NOT_FOUND"
	ErrCodeMissingField     = "MISSING_FIELD"
	ErrCodeRefreshConflict  = "REFRESH_CONFLICT"
	ErrCodeFeedNotDetected  = "FEED_NOT_DETECTED"
)

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewFetchFailedError はフェッチ失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("URLの取得に失敗しました: %s", reason),
		Category: "feed",
		Action:   "URLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}

// NewParseFailedError はパース失敗エラーを生成する。
func NewParseFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeParseFailed,
		Message:  "フィードの解析に失敗しました。",
		Category: "feed",
		Action:   "有効なRSS/Atomフィードかどうか確認してください。",
	}
}

// NewEmptyFeedError はエントリが1件もないフィードの登録拒否エラーを生成する。
func NewEmptyFeedError(url string) *APIError {
	return &APIError{
		Code:     ErrCodeEmptyFeed,
		Message:  fmt.Sprintf("フィードに記事が1件も含まれていません: %s", url),
		Category: "feed",
		Action:   "記事が配信されているフィードのURLを指定してください。",
	}
}

// NewDuplicateFeedError は同一URLのフィードを再登録しようとした場合のエラーを生成する。
func NewDuplicateFeedError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateFeed,
		Message:  "このフィードは既に登録されています。",
		Category: "feed",
		Action:   "フィード一覧から該当フィードを確認してください。",
	}
}

// NewFeedNotFoundError はフィード未検出エラーを生成する。
func NewFeedNotFoundError(feedID string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedNotFound,
		Message:  fmt.Sprintf("指定されたフィードが見つかりません: %s", feedID),
		Category: "feed",
		Action:   "フィードIDを確認してください。",
	}
}

// NewArticleNotFoundError は記事未検出エラーを生成する。
func NewArticleNotFoundError(articleID string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", articleID),
		Category: "feed",
		Action:   "記事IDを確認してください。",
	}
}

// NewMissingFieldError は必須フィールド欠落エラーを生成する。
func NewMissingFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  fmt.Sprintf("必須フィールドが指定されていません: %s", field),
		Category: "validation",
		Action:   "name と url を指定してください。",
	}
}

// NewRefreshConflictError は更新処理の多重起動エラーを生成する。
func NewRefreshConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeRefreshConflict,
		Message:  "フィード更新は既に実行中です。",
		Category: "system",
		Action:   "実行中の更新が完了してから再度お試しください。",
	}
}

// NewFeedNotDetectedError はフィード未検出エラーを生成する。
func NewFeedNotDetectedError(url string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedNotDetected,
		Message:  fmt.Sprintf("指定されたURLからRSS/Atomフィードを検出できませんでした: %s", url),
		Category: "feed",
		Action:   "RSS/AtomフィードのURLを直接入力するか、フィードが公開されているページのURLを確認してください。",
	}
}
