package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/rssreader/internal/metrics"
	"github.com/hitoshi/rssreader/internal/model"
	"github.com/hitoshi/rssreader/internal/repository"
)

// FeedResult は1フィードの更新結果。
type FeedResult struct {
	FeedID      string `json:"feed_id"`
	FeedName    string `json:"feed_name"`
	FeedURL     string `json:"feed_url"`
	NewArticles int    `json:"new_articles"`
	Err         error  `json:"-"`
}

// RunSummary は全フィード更新1サイクルの集計結果。
type RunSummary struct {
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	NewArticles int           `json:"new_articles"`
	Duration    time.Duration `json:"-"`
	Results     []FeedResult  `json:"results"`
}

// RefreshRunner は全フィード更新サイクルの実行インターフェース。
type RefreshRunner interface {
	RefreshAll(ctx context.Context) (*RunSummary, error)
}

// Refresher はフィードの取得・パース・保存を1フィード単位で実行する。
// 1フィードの失敗は他のフィードに影響しない（障害分離）。
type Refresher struct {
	feedRepo  repository.FeedRepository
	parser    FeedParserService
	upserter  EntryUpserter
	collector metrics.MetricsCollector
	logger    *slog.Logger
}

// NewRefresher はRefresherの新しいインスタンスを生成する。
func NewRefresher(
	feedRepo repository.FeedRepository,
	parser FeedParserService,
	upserter EntryUpserter,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Refresher {
	return &Refresher{
		feedRepo:  feedRepo,
		parser:    parser,
		upserter:  upserter,
		collector: collector,
		logger:    logger,
	}
}

var _ RefreshRunner = (*Refresher)(nil)

// RefreshFeed は1フィードを更新し、新規保存した記事数を返す。
// 失敗時はlast_fetchedを含め一切の永続状態を変更しない。
func (r *Refresher) RefreshFeed(ctx context.Context, feed *model.Feed) (int, error) {
	start := time.Now()

	parsed, err := r.parser.Parse(ctx, feed.URL)
	if err != nil {
		if errors.Is(err, ErrFeedParse) {
			r.collector.RecordParseFailure(feed.ID)
		}
		r.collector.RecordRefreshFailure(feed.ID, "fetch")
		return 0, fmt.Errorf("フィードの取得に失敗: %w", err)
	}

	// ロゴ未設定のフィードのみ解決を試みる（write-once）
	logoURL := ""
	if feed.LogoURL == "" {
		logoURL = ResolveLogo(parsed, feed.URL)
	}

	inserted, err := r.upserter.UpsertEntries(ctx, feed.ID, parsed.Entries, logoURL)
	if err != nil {
		r.collector.RecordRefreshFailure(feed.ID, "persist")
		return 0, fmt.Errorf("記事の保存に失敗: %w", err)
	}

	r.collector.RecordRefreshSuccess(feed.ID)
	r.collector.RecordRefreshLatency(time.Since(start))
	if inserted > 0 {
		r.collector.RecordArticlesInserted(inserted)
	}

	return inserted, nil
}

// RefreshAll は全アクティブフィードを順次更新し、集計結果を返す。
// 個々のフィードの失敗はResultsに記録され、サイクル全体は継続する。
// errorはフィード一覧の取得失敗など、サイクル自体が実行できない場合のみ返す。
func (r *Refresher) RefreshAll(ctx context.Context) (*RunSummary, error) {
	start := time.Now()

	feeds, err := r.feedRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("フィード一覧の取得に失敗: %w", err)
	}

	summary := &RunSummary{
		Total:   len(feeds),
		Results: make([]FeedResult, 0, len(feeds)),
	}

	for _, feed := range feeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result := FeedResult{
			FeedID:   feed.ID,
			FeedName: feed.Name,
			FeedURL:  feed.URL,
		}

		inserted, err := r.RefreshFeed(ctx, feed)
		if err != nil {
			result.Err = err
			summary.Failed++
			r.logger.Warn("フィードの更新に失敗しました",
				slog.String("feed_id", feed.ID),
				slog.String("feed_url", feed.URL),
				slog.String("error", err.Error()),
			)
		} else {
			result.NewArticles = inserted
			summary.Succeeded++
			summary.NewArticles += inserted
		}

		summary.Results = append(summary.Results, result)
	}

	summary.Duration = time.Since(start)

	r.logger.Info("フィード更新サイクルが完了しました",
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("new_articles", summary.NewArticles),
		slog.Duration("duration", summary.Duration),
	)

	return summary, nil
}
