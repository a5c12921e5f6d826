package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hitoshi/rssreader/internal/model"
)

// --- テスト用モック ---

// mockFeedRepo はテスト用のFeedRepositoryモック。
type mockFeedRepo struct {
	feeds     []*model.Feed
	createErr error
	findErr   error
	deactived []string
	deactOK   bool
}

func (m *mockFeedRepo) FindByID(ctx context.Context, id string) (*model.Feed, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, f := range m.feeds {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, nil
}

func (m *mockFeedRepo) FindByURL(ctx context.Context, url string) (*model.Feed, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, f := range m.feeds {
		if f.URL == url {
			return f, nil
		}
	}
	return nil, nil
}

func (m *mockFeedRepo) Create(ctx context.Context, feed *model.Feed) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.feeds = append(m.feeds, feed)
	return nil
}

func (m *mockFeedRepo) ListActive(ctx context.Context) ([]*model.Feed, error) {
	return m.feeds, nil
}

func (m *mockFeedRepo) ListWithArticleCounts(ctx context.Context) ([]model.FeedWithCount, error) {
	result := make([]model.FeedWithCount, 0, len(m.feeds))
	for _, f := range m.feeds {
		result = append(result, model.FeedWithCount{Feed: *f})
	}
	return result, nil
}

func (m *mockFeedRepo) Deactivate(ctx context.Context, id string) (bool, error) {
	m.deactived = append(m.deactived, id)
	return m.deactOK, nil
}

func (m *mockFeedRepo) ListCategories(ctx context.Context) ([]string, error) {
	return []string{"General"}, nil
}

// mockDetector はテスト用のDetectorモック。
type mockDetector struct {
	resultURL string
	err       error
}

func (m *mockDetector) DetectFeedURL(ctx context.Context, inputURL string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.resultURL != "" {
		return m.resultURL, nil
	}
	return inputURL, nil
}

// mockFeedParser はテスト用のFeedParserServiceモック。
type mockFeedParser struct {
	parsed *model.ParsedFeed
	err    error
}

func (m *mockFeedParser) Parse(ctx context.Context, feedURL string) (*model.ParsedFeed, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.parsed, nil
}

// mockEntryUpserter はテスト用のEntryUpserterモック。
type mockEntryUpserter struct {
	err      error
	feedIDs  []string
	logoURLs []string
}

func (m *mockEntryUpserter) UpsertEntries(ctx context.Context, feedID string, entries []model.ParsedEntry, logoURL string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.feedIDs = append(m.feedIDs, feedID)
	m.logoURLs = append(m.logoURLs, logoURL)
	return len(entries), nil
}

func newTestService(repo *mockFeedRepo, detector *mockDetector, parser *mockFeedParser, upserter *mockEntryUpserter) *FeedService {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewFeedService(repo, detector, parser, upserter, logger)
}

func twoEntryFeed() *model.ParsedFeed {
	return &model.ParsedFeed{
		Title: "Example Feed",
		Entries: []model.ParsedEntry{
			{Title: "One", Link: "https://example.com/1"},
			{Title: "Two", Link: "https://example.com/2"},
		},
	}
}

// --- RegisterFeed のテスト ---

// TestRegisterFeed_Success は正常系の登録フローを検証する。
func TestRegisterFeed_Success(t *testing.T) {
	repo := &mockFeedRepo{}
	upserter := &mockEntryUpserter{}
	svc := newTestService(repo, &mockDetector{}, &mockFeedParser{parsed: twoEntryFeed()}, upserter)

	feed, inserted, err := svc.RegisterFeed(context.Background(), "Tech Blog", "https://example.com/rss", "Tech")
	if err != nil {
		t.Fatalf("RegisterFeed failed: %v", err)
	}

	if feed.ID == "" {
		t.Error("feed ID should be generated")
	}
	if feed.Name != "Tech Blog" {
		t.Errorf("name = %q", feed.Name)
	}
	if feed.Category != "Tech" {
		t.Errorf("category = %q", feed.Category)
	}
	if !feed.IsActive {
		t.Error("new feed should be active")
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}
	if len(repo.feeds) != 1 {
		t.Errorf("created feeds = %d, want 1", len(repo.feeds))
	}
	if len(upserter.feedIDs) != 1 || upserter.feedIDs[0] != feed.ID {
		t.Error("initial ingestion should run for the new feed")
	}
}

// TestRegisterFeed_DefaultCategory はカテゴリ未指定時にGeneralが適用されることを検証する。
func TestRegisterFeed_DefaultCategory(t *testing.T) {
	svc := newTestService(&mockFeedRepo{}, &mockDetector{}, &mockFeedParser{parsed: twoEntryFeed()}, &mockEntryUpserter{})

	feed, _, err := svc.RegisterFeed(context.Background(), "Blog", "https://example.com/rss", "")
	if err != nil {
		t.Fatalf("RegisterFeed failed: %v", err)
	}
	if feed.Category != "General" {
		t.Errorf("category = %q, want General", feed.Category)
	}
}

// TestRegisterFeed_TruncatesLongName は100文字を超えるフィード名が切り詰められることを検証する。
func TestRegisterFeed_TruncatesLongName(t *testing.T) {
	svc := newTestService(&mockFeedRepo{}, &mockDetector{}, &mockFeedParser{parsed: twoEntryFeed()}, &mockEntryUpserter{})

	feed, _, err := svc.RegisterFeed(context.Background(), strings.Repeat("n", 150), "https://example.com/rss", "")
	if err != nil {
		t.Fatalf("RegisterFeed failed: %v", err)
	}
	if utf8.RuneCountInString(feed.Name) != 100 {
		t.Errorf("name length = %d, want 100", utf8.RuneCountInString(feed.Name))
	}
	if !strings.HasSuffix(feed.Name, "...") {
		t.Error("truncated name should end with ellipsis")
	}
}

// TestRegisterFeed_MissingFields は必須フィールド欠落時のエラーを検証する。
func TestRegisterFeed_MissingFields(t *testing.T) {
	svc := newTestService(&mockFeedRepo{}, &mockDetector{}, &mockFeedParser{parsed: twoEntryFeed()}, &mockEntryUpserter{})

	_, _, err := svc.RegisterFeed(context.Background(), "", "https://example.com/rss", "")
	assertAPIErrorCode(t, err, model.ErrCodeMissingField)

	_, _, err = svc.RegisterFeed(context.Background(), "Blog", "", "")
	assertAPIErrorCode(t, err, model.ErrCodeMissingField)
}

// TestRegisterFeed_DuplicateURL は同一URLの再登録が拒否されることを検証する。
func TestRegisterFeed_DuplicateURL(t *testing.T) {
	repo := &mockFeedRepo{feeds: []*model.Feed{
		{ID: "feed-1", URL: "https://example.com/rss", IsActive: true},
	}}
	svc := newTestService(repo, &mockDetector{}, &mockFeedParser{parsed: twoEntryFeed()}, &mockEntryUpserter{})

	_, _, err := svc.RegisterFeed(context.Background(), "Blog", "https://example.com/rss", "")
	assertAPIErrorCode(t, err, model.ErrCodeDuplicateFeed)
}

// TestRegisterFeed_DuplicateDeactivatedURL は論理削除済みフィードのURLも
// 重複として扱われることを検証する。
func TestRegisterFeed_DuplicateDeactivatedURL(t *testing.T) {
	repo := &mockFeedRepo{feeds: []*model.Feed{
		{ID: "feed-1", URL: "https://example.com/rss", IsActive: false},
	}}
	svc := newTestService(repo, &mockDetector{}, &mockFeedParser{parsed: twoEntryFeed()}, &mockEntryUpserter{})

	_, _, err := svc.RegisterFeed(context.Background(), "Blog", "https://example.com/rss", "")
	assertAPIErrorCode(t, err, model.ErrCodeDuplicateFeed)
}

// TestRegisterFeed_RejectsEmptyFeed はエントリ0件のフィードが登録拒否されることを検証する。
func TestRegisterFeed_RejectsEmptyFeed(t *testing.T) {
	repo := &mockFeedRepo{}
	parser := &mockFeedParser{parsed: &model.ParsedFeed{Title: "Empty"}}
	svc := newTestService(repo, &mockDetector{}, parser, &mockEntryUpserter{})

	_, _, err := svc.RegisterFeed(context.Background(), "Blog", "https://example.com/rss", "")
	assertAPIErrorCode(t, err, model.ErrCodeEmptyFeed)

	if len(repo.feeds) != 0 {
		t.Error("empty feed must not be persisted")
	}
}

// TestRegisterFeed_ParseFailure はパース失敗時のエラーを検証する。
func TestRegisterFeed_ParseFailure(t *testing.T) {
	parser := &mockFeedParser{err: errors.New("bad xml")}
	svc := newTestService(&mockFeedRepo{}, &mockDetector{}, parser, &mockEntryUpserter{})

	_, _, err := svc.RegisterFeed(context.Background(), "Blog", "https://example.com/rss", "")
	assertAPIErrorCode(t, err, model.ErrCodeParseFailed)
}

// TestRegisterFeed_DetectorErrorPropagates は検出エラーがそのまま返ることを検証する。
func TestRegisterFeed_DetectorErrorPropagates(t *testing.T) {
	detector := &mockDetector{err: model.NewFeedNotDetectedError("https://example.com")}
	svc := newTestService(&mockFeedRepo{}, detector, &mockFeedParser{parsed: twoEntryFeed()}, &mockEntryUpserter{})

	_, _, err := svc.RegisterFeed(context.Background(), "Blog", "https://example.com", "")
	assertAPIErrorCode(t, err, model.ErrCodeFeedNotDetected)
}

// TestRegisterFeed_UsesDetectedURL は検出されたフィードURLで登録されることを検証する。
func TestRegisterFeed_UsesDetectedURL(t *testing.T) {
	detector := &mockDetector{resultURL: "https://example.com/feed.xml"}
	repo := &mockFeedRepo{}
	svc := newTestService(repo, detector, &mockFeedParser{parsed: twoEntryFeed()}, &mockEntryUpserter{})

	feed, _, err := svc.RegisterFeed(context.Background(), "Blog", "https://example.com/", "")
	if err != nil {
		t.Fatalf("RegisterFeed failed: %v", err)
	}
	if feed.URL != "https://example.com/feed.xml" {
		t.Errorf("feed URL = %q, want detected URL", feed.URL)
	}
}

// TestRegisterFeed_InitialIngestFailureIsNotFatal は初回取り込み失敗でも
// フィード登録自体は成功することを検証する。
func TestRegisterFeed_InitialIngestFailureIsNotFatal(t *testing.T) {
	upserter := &mockEntryUpserter{err: errors.New("db down")}
	svc := newTestService(&mockFeedRepo{}, &mockDetector{}, &mockFeedParser{parsed: twoEntryFeed()}, upserter)

	feed, inserted, err := svc.RegisterFeed(context.Background(), "Blog", "https://example.com/rss", "")
	if err != nil {
		t.Fatalf("RegisterFeed should succeed despite ingest failure: %v", err)
	}
	if feed == nil {
		t.Fatal("feed should be returned")
	}
	if inserted != 0 {
		t.Errorf("inserted = %d, want 0", inserted)
	}
}

// --- DeactivateFeed / GetFeed のテスト ---

// TestDeactivateFeed は論理削除の結果を検証する。
func TestDeactivateFeed(t *testing.T) {
	repo := &mockFeedRepo{deactOK: true}
	svc := newTestService(repo, &mockDetector{}, &mockFeedParser{}, &mockEntryUpserter{})

	if err := svc.DeactivateFeed(context.Background(), "feed-1"); err != nil {
		t.Fatalf("DeactivateFeed failed: %v", err)
	}
	if len(repo.deactived) != 1 || repo.deactived[0] != "feed-1" {
		t.Error("Deactivate should be called with the feed ID")
	}

	repo2 := &mockFeedRepo{deactOK: false}
	svc2 := newTestService(repo2, &mockDetector{}, &mockFeedParser{}, &mockEntryUpserter{})
	err := svc2.DeactivateFeed(context.Background(), "missing")
	assertAPIErrorCode(t, err, model.ErrCodeFeedNotFound)
}

// TestGetFeed_NotFound は存在しないフィードの取得エラーを検証する。
func TestGetFeed_NotFound(t *testing.T) {
	svc := newTestService(&mockFeedRepo{}, &mockDetector{}, &mockFeedParser{}, &mockEntryUpserter{})

	_, err := svc.GetFeed(context.Background(), "missing")
	assertAPIErrorCode(t, err, model.ErrCodeFeedNotFound)
}

// assertAPIErrorCode はエラーが指定コードのAPIErrorであることを検証する。
func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected APIError with code %s, got nil", wantCode)
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("error code = %s, want %s", apiErr.Code, wantCode)
	}
}
