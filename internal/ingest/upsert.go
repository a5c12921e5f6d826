package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/rssreader/internal/model"
	"github.com/hitoshi/rssreader/internal/repository"
	"github.com/hitoshi/rssreader/internal/security"
)

// ContentEnricher は記事コンテンツの派生情報（要約・読了時間）を計算する
// インターフェース。
type ContentEnricher interface {
	Summarize(plainText string) string
	ReadingTime(plainText string) int
}

// EntryUpserter はパース済みエントリの永続化のインターフェース。
type EntryUpserter interface {
	// UpsertEntries はエントリ群を重複排除して保存し、新規保存件数を返す。
	UpsertEntries(ctx context.Context, feedID string, entries []model.ParsedEntry, logoURL string) (int, error)
}

// Upserter はパース済みエントリの正規化・重複排除・保存を行う。
//
// 重複排除は (feed_id, link) をキーとするアプリケーションレベルの照合で、
// 空のlinkも1つの正当なキーとして扱う。既存記事は決して更新しない（挿入のみ）。
// 保存はフィード1件につき1トランザクションで行い、新規記事の挿入・
// ロゴURLの初回設定・last_fetchedの更新をまとめてコミットする。
type Upserter struct {
	ingestRepo repository.IngestRepository
	sanitizer  security.ContentSanitizerService
	enricher   ContentEnricher
	logger     *slog.Logger
}

// NewUpserter はUpserterの新しいインスタンスを生成する。
func NewUpserter(
	ingestRepo repository.IngestRepository,
	sanitizer security.ContentSanitizerService,
	enricher ContentEnricher,
	logger *slog.Logger,
) *Upserter {
	return &Upserter{
		ingestRepo: ingestRepo,
		sanitizer:  sanitizer,
		enricher:   enricher,
		logger:     logger,
	}
}

var _ EntryUpserter = (*Upserter)(nil)

// UpsertEntries はエントリ群を重複排除して保存し、新規保存件数を返す。
// 新規記事が0件でもトランザクションはコミットされ、last_fetchedが更新される。
// logoURLが空でない場合、フィードのlogo_urlが未設定なら初回のみ設定される。
func (u *Upserter) UpsertEntries(ctx context.Context, feedID string, entries []model.ParsedEntry, logoURL string) (int, error) {
	existing, err := u.ingestRepo.ExistingLinks(ctx, feedID)
	if err != nil {
		return 0, fmt.Errorf("既存リンクの取得に失敗: %w", err)
	}

	now := time.Now().UTC()
	seen := make(map[string]bool)
	articles := make([]*model.Article, 0, len(entries))

	for _, entry := range entries {
		// (feed_id, link)キーでの重複排除。空のlinkも1つのキーとして扱う
		if existing[entry.Link] || seen[entry.Link] {
			continue
		}
		seen[entry.Link] = true

		description := u.sanitizer.Sanitize(entry.Content)
		plain := u.sanitizer.PlainText(entry.Content)

		articles = append(articles, &model.Article{
			ID:            uuid.New().String(),
			FeedID:        feedID,
			Title:         NormalizeTitle(entry.Title),
			Link:          entry.Link,
			Description:   description,
			Summary:       u.enricher.Summarize(plain),
			Author:        NormalizeAuthor(entry.Author),
			PublishedDate: entry.Published,
			ReadingTime:   u.enricher.ReadingTime(plain),
			CreatedAt:     now,
		})
	}

	commit := &repository.IngestCommit{
		FeedID:    feedID,
		Articles:  articles,
		LogoURL:   logoURL,
		FetchedAt: now,
	}

	if err := u.ingestRepo.CommitIngest(ctx, commit); err != nil {
		return 0, fmt.Errorf("取り込みのコミットに失敗: %w", err)
	}

	u.logger.Debug("エントリの取り込みが完了しました",
		slog.String("feed_id", feedID),
		slog.Int("total_entries", len(entries)),
		slog.Int("new_articles", len(articles)),
	)

	return len(articles), nil
}
