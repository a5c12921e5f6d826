package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/rssreader/internal/model"
)

// PostgresIngestRepo はフィード取り込み結果の確定を担うリポジトリ。
// 新規記事の挿入・ロゴの初回設定・last_fetchedの更新を単一トランザクションで行う。
type PostgresIngestRepo struct {
	db *sql.DB
}

// NewPostgresIngestRepo はPostgresIngestRepoを生成する。
func NewPostgresIngestRepo(db *sql.DB) *PostgresIngestRepo {
	return &PostgresIngestRepo{db: db}
}

// ExistingLinks は指定フィードの既存記事のlink集合を返す。
func (r *PostgresIngestRepo) ExistingLinks(ctx context.Context, feedID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT link FROM articles WHERE feed_id = $1`,
		feedID,
	)
	if err != nil {
		return nil, fmt.Errorf("既存linkの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	links := make(map[string]bool)
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("既存linkの読み取りに失敗しました: %w", err)
		}
		links[link] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("既存linkの走査に失敗しました: %w", err)
	}

	return links, nil
}

// CommitIngest は取り込み結果を単一トランザクションで確定する。
// 途中で失敗した場合は全てロールバックされ、last_fetchedも更新されない。
func (r *PostgresIngestRepo) CommitIngest(ctx context.Context, commit *IngestCommit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	for _, article := range commit.Articles {
		if err := insertArticle(ctx, tx, article); err != nil {
			return err
		}
	}

	// ロゴは初回のみ設定する。既に設定済みの場合は変更しない
	if commit.LogoURL != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE feeds SET logo_url = $2 WHERE id = $1 AND logo_url IS NULL`,
			commit.FeedID, commit.LogoURL,
		)
		if err != nil {
			return fmt.Errorf("ロゴの設定に失敗しました: %w", err)
		}
	}

	// last_fetchedは取り込み成功時のみ更新される
	_, err = tx.ExecContext(ctx,
		`UPDATE feeds SET last_fetched = $2 WHERE id = $1`,
		commit.FeedID, commit.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("last_fetchedの更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("取り込みのコミットに失敗しました: %w", err)
	}
	return nil
}

// insertArticle は記事を1件挿入する。
// (feed_id, link) の重複はアプリケーション側で除外済みだが、
// 並行実行との競合に備えてON CONFLICT DO NOTHINGで冪等にしている。
func insertArticle(ctx context.Context, tx *sql.Tx, article *model.Article) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO articles (id, feed_id, title, link, description, summary, author,
		                       published_date, reading_time, is_read, is_bookmarked, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (feed_id, link) DO NOTHING`,
		article.ID, article.FeedID, article.Title, article.Link,
		nullString(article.Description), nullString(article.Summary), nullString(article.Author),
		article.PublishedDate, article.ReadingTime, article.IsRead, article.IsBookmarked,
		article.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("記事の挿入に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ IngestRepository = (*PostgresIngestRepo)(nil)
