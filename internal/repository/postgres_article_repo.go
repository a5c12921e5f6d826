package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/rssreader/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id string) (*model.Article, error) {
	article := &model.Article{}
	var description, summary, author sql.NullString
	var publishedDate sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT id, feed_id, title, link, description, summary, author,
		        published_date, reading_time, is_read, is_bookmarked, created_at
		 FROM articles WHERE id = $1`,
		id,
	).Scan(
		&article.ID, &article.FeedID, &article.Title, &article.Link,
		&description, &summary, &author,
		&publishedDate, &article.ReadingTime, &article.IsRead, &article.IsBookmarked,
		&article.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}

	article.Description = nullStringValue(description)
	article.Summary = nullStringValue(summary)
	article.Author = nullStringValue(author)
	if publishedDate.Valid {
		article.PublishedDate = &publishedDate.Time
	}

	return article, nil
}

// List はフィルタ条件に一致する記事をフィード情報付きで返す。
// published_date降順・ページネーション付き。2番目の戻り値は条件一致の総件数。
func (r *PostgresArticleRepo) List(ctx context.Context, filter model.ArticleFilter) ([]model.ArticleWithFeed, int, error) {
	// ベース条件: アクティブなフィードの記事のみ
	where := " WHERE f.is_active = true"
	args := []interface{}{}
	argIndex := 1

	if filter.Category != "" {
		where += fmt.Sprintf(" AND f.category = $%d", argIndex)
		args = append(args, filter.Category)
		argIndex++
	}
	if filter.UnreadOnly {
		where += " AND a.is_read = false"
	}
	if filter.BookmarkedOnly {
		where += " AND a.is_bookmarked = true"
	}

	countQuery := `
		SELECT count(*)
		FROM articles a
		INNER JOIN feeds f ON a.feed_id = f.id` + where

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("記事件数の取得に失敗しました: %w", err)
	}

	listQuery := `
		SELECT a.id, a.feed_id, a.title, a.link, a.description, a.summary, a.author,
		       a.published_date, a.reading_time, a.is_read, a.is_bookmarked, a.created_at,
		       f.name, f.category, f.logo_url
		FROM articles a
		INNER JOIN feeds f ON a.feed_id = f.id` + where +
		fmt.Sprintf(" ORDER BY a.published_date DESC NULLS LAST, a.created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)

	limit := filter.PerPage
	offset := (filter.Page - 1) * filter.PerPage
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var articles []model.ArticleWithFeed
	for rows.Next() {
		var awf model.ArticleWithFeed
		var description, summary, author, feedLogoURL sql.NullString
		var publishedDate sql.NullTime

		if err := rows.Scan(
			&awf.ID, &awf.FeedID, &awf.Title, &awf.Link,
			&description, &summary, &author,
			&publishedDate, &awf.ReadingTime, &awf.IsRead, &awf.IsBookmarked,
			&awf.CreatedAt,
			&awf.FeedName, &awf.FeedCategory, &feedLogoURL,
		); err != nil {
			return nil, 0, fmt.Errorf("記事行の読み取りに失敗しました: %w", err)
		}

		awf.Description = nullStringValue(description)
		awf.Summary = nullStringValue(summary)
		awf.Author = nullStringValue(author)
		awf.FeedLogoURL = nullStringValue(feedLogoURL)
		if publishedDate.Valid {
			awf.PublishedDate = &publishedDate.Time
		}

		articles = append(articles, awf)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}

	return articles, total, nil
}

// SetRead は記事の既読状態を更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresArticleRepo) SetRead(ctx context.Context, id string, isRead bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE articles SET is_read = $2 WHERE id = $1`,
		id, isRead,
	)
	if err != nil {
		return false, fmt.Errorf("既読状態の更新に失敗しました: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("既読状態更新の結果確認に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// SetBookmarked は記事のブックマーク状態を更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresArticleRepo) SetBookmarked(ctx context.Context, id string, isBookmarked bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE articles SET is_bookmarked = $2 WHERE id = $1`,
		id, isBookmarked,
	)
	if err != nil {
		return false, fmt.Errorf("ブックマーク状態の更新に失敗しました: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ブックマーク状態更新の結果確認に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Stats はフィード数・記事数などの集計値を返す。
func (r *PostgresArticleRepo) Stats(ctx context.Context) (*StatsSummary, error) {
	stats := &StatsSummary{}

	err := r.db.QueryRowContext(ctx,
		`SELECT
		    (SELECT count(*) FROM feeds WHERE is_active = true),
		    count(a.id),
		    count(a.id) FILTER (WHERE a.is_read = false),
		    count(a.id) FILTER (WHERE a.is_read = true),
		    count(a.id) FILTER (WHERE a.is_bookmarked = true)
		 FROM articles a
		 INNER JOIN feeds f ON a.feed_id = f.id
		 WHERE f.is_active = true`,
	).Scan(
		&stats.TotalFeeds,
		&stats.TotalArticles,
		&stats.UnreadArticles,
		&stats.ReadArticles,
		&stats.BookmarkedArticles,
	)
	if err != nil {
		return nil, fmt.Errorf("統計情報の取得に失敗しました: %w", err)
	}

	return stats, nil
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
