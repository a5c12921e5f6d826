package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/rssreader/internal/model"
)

// PostgresFeedRepo はPostgreSQLを使用したフィードリポジトリ。
type PostgresFeedRepo struct {
	db *sql.DB
}

// NewPostgresFeedRepo はPostgresFeedRepoを生成する。
func NewPostgresFeedRepo(db *sql.DB) *PostgresFeedRepo {
	return &PostgresFeedRepo{db: db}
}

// FindByID は指定IDのフィードを取得する。見つからない場合はnilを返す。
func (r *PostgresFeedRepo) FindByID(ctx context.Context, id string) (*model.Feed, error) {
	feed := &model.Feed{}
	var logoURL sql.NullString
	var lastFetched sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, url, category, logo_url, last_fetched, is_active, created_at
		 FROM feeds WHERE id = $1`,
		id,
	).Scan(
		&feed.ID, &feed.Name, &feed.URL, &feed.Category,
		&logoURL, &lastFetched, &feed.IsActive, &feed.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("フィードの取得に失敗しました: %w", err)
	}

	feed.LogoURL = nullStringValue(logoURL)
	if lastFetched.Valid {
		feed.LastFetched = &lastFetched.Time
	}

	return feed, nil
}

// FindByURL はフィードURLでフィードを検索する。見つからない場合はnilを返す。
func (r *PostgresFeedRepo) FindByURL(ctx context.Context, url string) (*model.Feed, error) {
	feed := &model.Feed{}
	var logoURL sql.NullString
	var lastFetched sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, url, category, logo_url, last_fetched, is_active, created_at
		 FROM feeds WHERE url = $1`,
		url,
	).Scan(
		&feed.ID, &feed.Name, &feed.URL, &feed.Category,
		&logoURL, &lastFetched, &feed.IsActive, &feed.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("URLによるフィードの検索に失敗しました: %w", err)
	}

	feed.LogoURL = nullStringValue(logoURL)
	if lastFetched.Valid {
		feed.LastFetched = &lastFetched.Time
	}

	return feed, nil
}

// Create はフィードを作成する。
func (r *PostgresFeedRepo) Create(ctx context.Context, feed *model.Feed) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feeds (id, name, url, category, logo_url, last_fetched, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		feed.ID, feed.Name, feed.URL, feed.Category,
		nullString(feed.LogoURL), feed.LastFetched, feed.IsActive, feed.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("フィードの作成に失敗しました: %w", err)
	}
	return nil
}

// ListActive はアクティブな全フィードを登録順で返す。
func (r *PostgresFeedRepo) ListActive(ctx context.Context) ([]*model.Feed, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, url, category, logo_url, last_fetched, is_active, created_at
		 FROM feeds
		 WHERE is_active = true
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("アクティブフィードの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var feeds []*model.Feed
	for rows.Next() {
		feed := &model.Feed{}
		var logoURL sql.NullString
		var lastFetched sql.NullTime

		if err := rows.Scan(
			&feed.ID, &feed.Name, &feed.URL, &feed.Category,
			&logoURL, &lastFetched, &feed.IsActive, &feed.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("アクティブフィードの読み取りに失敗しました: %w", err)
		}

		feed.LogoURL = nullStringValue(logoURL)
		if lastFetched.Valid {
			feed.LastFetched = &lastFetched.Time
		}

		feeds = append(feeds, feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アクティブフィードの走査に失敗しました: %w", err)
	}

	return feeds, nil
}

// ListWithArticleCounts はアクティブな全フィードを記事数付きで返す。
func (r *PostgresFeedRepo) ListWithArticleCounts(ctx context.Context) ([]model.FeedWithCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT f.id, f.name, f.url, f.category, f.logo_url, f.last_fetched,
		        f.is_active, f.created_at, count(a.id) AS article_count
		 FROM feeds f
		 LEFT JOIN articles a ON f.id = a.feed_id
		 WHERE f.is_active = true
		 GROUP BY f.id
		 ORDER BY f.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("フィード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var feeds []model.FeedWithCount
	for rows.Next() {
		var fwc model.FeedWithCount
		var logoURL sql.NullString
		var lastFetched sql.NullTime

		if err := rows.Scan(
			&fwc.ID, &fwc.Name, &fwc.URL, &fwc.Category,
			&logoURL, &lastFetched, &fwc.IsActive, &fwc.CreatedAt,
			&fwc.ArticleCount,
		); err != nil {
			return nil, fmt.Errorf("フィード行の読み取りに失敗しました: %w", err)
		}

		fwc.LogoURL = nullStringValue(logoURL)
		if lastFetched.Valid {
			fwc.LastFetched = &lastFetched.Time
		}

		feeds = append(feeds, fwc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フィード一覧の走査に失敗しました: %w", err)
	}

	return feeds, nil
}

// Deactivate はフィードを論理削除する（is_active = false）。
// 既存の記事は削除しない。対象が存在しない場合はfalseを返す。
func (r *PostgresFeedRepo) Deactivate(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE feeds SET is_active = false WHERE id = $1 AND is_active = true`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("フィードの論理削除に失敗しました: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("論理削除の結果確認に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// ListCategories はアクティブなフィードのカテゴリ一覧を重複なしで返す。
func (r *PostgresFeedRepo) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM feeds WHERE is_active = true ORDER BY category ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("カテゴリの読み取りに失敗しました: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の走査に失敗しました: %w", err)
	}

	return categories, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ FeedRepository = (*PostgresFeedRepo)(nil)
