// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/rssreader/internal/model"
)

// FeedRepository はフィードデータの永続化インターフェース。
type FeedRepository interface {
	// FindByID は指定IDのフィードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Feed, error)

	// FindByURL はフィードURLでフィードを検索する。見つからない場合はnilを返す。
	// 論理削除済み（is_active = false）のフィードも対象に含む。
	FindByURL(ctx context.Context, url string) (*model.Feed, error)

	// Create はフィードを作成する。
	Create(ctx context.Context, feed *model.Feed) error

	// ListActive はアクティブな全フィードを登録順で返す。
	// 定期更新の対象抽出に使用する。
	ListActive(ctx context.Context) ([]*model.Feed, error)

	// ListWithArticleCounts はアクティブな全フィードを記事数付きで返す。
	ListWithArticleCounts(ctx context.Context) ([]model.FeedWithCount, error)

	// Deactivate はフィードを論理削除する（is_active = false）。
	// 既存の記事は削除しない。対象が存在しない場合はfalseを返す。
	Deactivate(ctx context.Context, id string) (bool, error)

	// ListCategories はアクティブなフィードのカテゴリ一覧を重複なしで返す。
	ListCategories(ctx context.Context) ([]string, error)
}

// ArticleRepository は記事データの永続化インターフェース。
type ArticleRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Article, error)

	// List はフィルタ条件に一致する記事をフィード情報付きで返す。
	// published_date降順・ページネーション付き。2番目の戻り値は条件一致の総件数。
	List(ctx context.Context, filter model.ArticleFilter) ([]model.ArticleWithFeed, int, error)

	// SetRead は記事の既読状態を更新する。対象が存在しない場合はfalseを返す。
	SetRead(ctx context.Context, id string, isRead bool) (bool, error)

	// SetBookmarked は記事のブックマーク状態を更新する。対象が存在しない場合はfalseを返す。
	SetBookmarked(ctx context.Context, id string, isBookmarked bool) (bool, error)

	// Stats はフィード数・記事数などの集計値を返す。
	Stats(ctx context.Context) (*StatsSummary, error)
}

// IngestRepository はフィード1件分の取り込み結果を確定する永続化インターフェース。
type IngestRepository interface {
	// ExistingLinks は指定フィードの既存記事のlink集合を返す。
	// 空linkも1つのキーとして含まれる。
	ExistingLinks(ctx context.Context, feedID string) (map[string]bool, error)

	// CommitIngest は新規記事の挿入・ロゴの初回設定・last_fetchedの更新を
	// 単一トランザクションで確定する。途中で失敗した場合は全てロールバックされる。
	CommitIngest(ctx context.Context, commit *IngestCommit) error
}

// IngestCommit はフィード1件分の取り込み結果を表す。
type IngestCommit struct {
	FeedID    string
	Articles  []*model.Article
	LogoURL   string    // 空でない場合、logo_urlが未設定のときに限り設定される
	FetchedAt time.Time // last_fetchedに記録する成功時刻
}

// StatsSummary はダッシュボード向けの集計値。
type StatsSummary struct {
	TotalFeeds         int
	TotalArticles      int
	UnreadArticles     int
	ReadArticles       int
	BookmarkedArticles int
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
