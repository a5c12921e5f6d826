// Package ingest はフィード文書の取得・パース・正規化・重複排除・保存の
// 取り込みパイプラインを提供する。
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/rssreader/internal/model"
)

// ErrFeedParse はフィード文書の構文解析失敗を表す。
// フェッチ自体の失敗（ネットワーク・HTTPステータス）とは区別される。
var ErrFeedParse = errors.New("フィードの解析に失敗")

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// FeedParserService はフィード文書の取得とパースのインターフェース。
type FeedParserService interface {
	// Parse は指定URLのフィード文書を取得し、パース結果を返す。
	Parse(ctx context.Context, feedURL string) (*model.ParsedFeed, error)
}

// Parser はフィード文書のHTTPフェッチとgofeedによるパースを行う。
// SSRF検証付きクライアントで取得し、エントリを正規化前のDTOに変換する。
type Parser struct {
	ssrfGuard   SSRFValidator
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64
}

// NewParser はParserの新しいインスタンスを生成する。
func NewParser(ssrfGuard SSRFValidator, logger *slog.Logger, timeout time.Duration, maxBodySize int64) *Parser {
	return &Parser{
		ssrfGuard:   ssrfGuard,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

var _ FeedParserService = (*Parser)(nil)

// Parse は指定URLのフィード文書を取得し、パース結果を返す。
// エントリが0件のフィードもそのまま返す（登録拒否の判断は呼び出し側が行う）。
func (p *Parser) Parse(ctx context.Context, feedURL string) (*model.ParsedFeed, error) {
	// SSRF検証
	if err := p.ssrfGuard.ValidateURL(feedURL); err != nil {
		return nil, fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	client := p.ssrfGuard.NewSafeClient(p.timeout, p.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}

	req.Header.Set("User-Agent", "RSSReader/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("予期しないHTTPステータス: %d", resp.StatusCode)
	}

	// レスポンスボディを読み込み（最大サイズ制限付き）
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedParse, err)
	}

	result := &model.ParsedFeed{
		Title:   parsed.Title,
		Entries: convertGofeedItems(parsed.Items),
	}

	// フィード文書内のロゴ（RSSのimage / Atomのlogo）
	if parsed.Image != nil && parsed.Image.URL != "" {
		result.LogoURL = parsed.Image.URL
	}

	p.logger.Debug("フィードのパースが完了しました",
		slog.String("feed_url", feedURL),
		slog.Int("entry_count", len(result.Entries)),
	)

	return result, nil
}

// convertGofeedItems はgofeedの記事をmodel.ParsedEntryに変換する。
func convertGofeedItems(items []*gofeed.Item) []model.ParsedEntry {
	entries := make([]model.ParsedEntry, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		// 本文はdescription/summaryを採用し、欠損時のみ全文contentへ退避する
		entry := model.ParsedEntry{
			Title:   item.Title,
			Link:    item.Link,
			Content: item.Description,
		}
		if entry.Content == "" {
			entry.Content = item.Content
		}

		// 著者情報
		if item.Author != nil {
			entry.Author = item.Author.Name
		}
		if entry.Author == "" && len(item.Authors) > 0 && item.Authors[0] != nil {
			entry.Author = item.Authors[0].Name
		}

		// 公開日時: published優先、なければupdated。
		// 秒未満の精度は破棄する（年月日時分秒の6要素のみ保持）
		if item.PublishedParsed != nil {
			t := item.PublishedParsed.UTC().Truncate(time.Second)
			entry.Published = &t
		} else if item.UpdatedParsed != nil {
			t := item.UpdatedParsed.UTC().Truncate(time.Second)
			entry.Published = &t
		}

		// LinkがなくGUIDがURL形式の場合はGUIDをLinkとして使用
		if entry.Link == "" && item.GUID != "" &&
			(strings.HasPrefix(item.GUID, "http://") || strings.HasPrefix(item.GUID, "https://")) {
			entry.Link = item.GUID
		}

		entries = append(entries, entry)
	}

	return entries
}
