package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/rssreader/internal/ingest"
	"github.com/hitoshi/rssreader/internal/model"
	"github.com/hitoshi/rssreader/internal/repository"
)

// Detector はフィード検出のインターフェース。
// テスタビリティのためFeedDetectorを抽象化する。
type Detector interface {
	DetectFeedURL(ctx context.Context, inputURL string) (string, error)
}

// FeedService はフィード登録・管理のサービス層。
// 検出 → パース → フィード保存 → 初回記事取り込みのフローを統括する。
type FeedService struct {
	feedRepo repository.FeedRepository
	detector Detector
	parser   ingest.FeedParserService
	upserter ingest.EntryUpserter
	logger   *slog.Logger
}

// NewFeedService はFeedServiceの新しいインスタンスを生成する。
func NewFeedService(
	feedRepo repository.FeedRepository,
	detector Detector,
	parser ingest.FeedParserService,
	upserter ingest.EntryUpserter,
	logger *slog.Logger,
) *FeedService {
	return &FeedService{
		feedRepo: feedRepo,
		detector: detector,
		parser:   parser,
		upserter: upserter,
		logger:   logger,
	}
}

// RegisterFeed はURLからフィードを検出・検証して登録し、初回の記事取り込みを
// 同期的に実行する。戻り値は登録されたフィードと初回取り込みの記事数。
//
// フロー: フィード検出 → 重複チェック → パース（エントリ0件は拒否）→
// フィード保存 → 初回取り込み
func (s *FeedService) RegisterFeed(ctx context.Context, name, inputURL, category string) (*model.Feed, int, error) {
	if name == "" {
		return nil, 0, model.NewMissingFieldError("name")
	}
	if inputURL == "" {
		return nil, 0, model.NewMissingFieldError("url")
	}

	// 1. フィードURL検出（入力がHTMLページの場合はalternateリンクを解決）
	feedURL, err := s.detector.DetectFeedURL(ctx, inputURL)
	if err != nil {
		return nil, 0, err
	}

	// 2. 既存フィードの重複チェック。論理削除済みフィードのURLも
	// 一意制約に残るため重複として扱う
	existing, err := s.feedRepo.FindByURL(ctx, feedURL)
	if err != nil {
		return nil, 0, fmt.Errorf("フィードの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, 0, model.NewDuplicateFeedError()
	}

	// 3. フィードをパースして内容を検証。エントリ0件のフィードは登録しない
	parsed, err := s.parser.Parse(ctx, feedURL)
	if err != nil {
		return nil, 0, model.NewParseFailedError()
	}
	if len(parsed.Entries) == 0 {
		return nil, 0, model.NewEmptyFeedError(feedURL)
	}

	if category == "" {
		category = model.DefaultCategory
	}

	feed := &model.Feed{
		ID:        uuid.New().String(),
		Name:      ingest.NormalizeFeedName(name),
		URL:       feedURL,
		Category:  category,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.feedRepo.Create(ctx, feed); err != nil {
		return nil, 0, fmt.Errorf("フィードの保存に失敗しました: %w", err)
	}

	// 4. 初回の記事取り込み（パース済み文書を再利用する）
	logoURL := ingest.ResolveLogo(parsed, feedURL)
	inserted, err := s.upserter.UpsertEntries(ctx, feed.ID, parsed.Entries, logoURL)
	if err != nil {
		// フィード自体は登録済み。初回取り込みの失敗は次回の定期更新で回復する
		s.logger.Warn("初回の記事取り込みに失敗しました",
			slog.String("feed_id", feed.ID),
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return feed, 0, nil
	}

	s.logger.Info("フィードを登録しました",
		slog.String("feed_id", feed.ID),
		slog.String("feed_url", feedURL),
		slog.Int("initial_articles", inserted),
	)

	return feed, inserted, nil
}

// ListFeeds はアクティブな全フィードを記事数付きで返す。
func (s *FeedService) ListFeeds(ctx context.Context) ([]model.FeedWithCount, error) {
	return s.feedRepo.ListWithArticleCounts(ctx)
}

// GetFeed はフィード情報を取得する。見つからない場合はエラーを返す。
func (s *FeedService) GetFeed(ctx context.Context, feedID string) (*model.Feed, error) {
	feed, err := s.feedRepo.FindByID(ctx, feedID)
	if err != nil {
		return nil, fmt.Errorf("フィードの取得に失敗しました: %w", err)
	}
	if feed == nil {
		return nil, model.NewFeedNotFoundError(feedID)
	}
	return feed, nil
}

// DeactivateFeed はフィードを論理削除する。既存の記事は保持され、
// 以降の定期更新の対象から外れる。
func (s *FeedService) DeactivateFeed(ctx context.Context, feedID string) error {
	ok, err := s.feedRepo.Deactivate(ctx, feedID)
	if err != nil {
		return fmt.Errorf("フィードの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewFeedNotFoundError(feedID)
	}

	s.logger.Info("フィードを論理削除しました", slog.String("feed_id", feedID))
	return nil
}

// ListCategories はアクティブなフィードのカテゴリ一覧を返す。
func (s *FeedService) ListCategories(ctx context.Context) ([]string, error) {
	return s.feedRepo.ListCategories(ctx)
}
