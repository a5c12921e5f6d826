// Package cleanup は記事データの自動削除ジョブを提供する。
// 保持期間を超過した記事を日次バッチで削除する。
// ブックマーク済みの記事は保持期間に関係なく削除しない。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は保持期間を超過した記事の自動削除ジョブ。
// 2段階の保持ポリシーを適用する:
//   - 未ブックマークの記事はRetentionDays日で削除
//   - 既読かつ未ブックマークの記事はより短いRetentionReadDays日で削除
//
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db                Executor
	logger            *slog.Logger
	RetentionDays     int // 未ブックマーク記事の保持日数（デフォルト: 30）
	RetentionReadDays int // 既読・未ブックマーク記事の保持日数（デフォルト: 7）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:                db,
		logger:            logger,
		RetentionDays:     30,
		RetentionReadDays: 7,
	}
}

// Run は保持期間を超過した記事を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	// 既読・未ブックマークの記事は短い保持期間で削除する
	readDeleted, err := j.deleteOlderThan(ctx,
		`DELETE FROM articles
		 WHERE is_read = TRUE AND is_bookmarked = FALSE
		   AND created_at < now() - $1::interval`,
		j.RetentionReadDays)
	if err != nil {
		j.logger.Error("既読記事クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_read_days", j.RetentionReadDays),
		)
		return fmt.Errorf("既読記事クリーンアップの実行に失敗: %w", err)
	}

	// 未ブックマークの記事は既読状態に関係なく通常の保持期間で削除する
	oldDeleted, err := j.deleteOlderThan(ctx,
		`DELETE FROM articles
		 WHERE is_bookmarked = FALSE
		   AND created_at < now() - $1::interval`,
		j.RetentionDays)
	if err != nil {
		j.logger.Error("記事クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("記事クリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("記事クリーンアップジョブが完了しました",
		slog.Int64("read_deleted_count", readDeleted),
		slog.Int64("old_deleted_count", oldDeleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Int("retention_read_days", j.RetentionReadDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// deleteOlderThan は指定日数より古い行を削除して削除件数を返す。
func (j *CleanupJob) deleteOlderThan(ctx context.Context, query string, days int) (int64, error) {
	interval := fmt.Sprintf("%d days", days)

	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
