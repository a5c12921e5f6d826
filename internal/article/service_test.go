package article

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/rssreader/internal/model"
	"github.com/hitoshi/rssreader/internal/repository"
)

// mockArticleRepo はArticleRepositoryのテスト用モック。
type mockArticleRepo struct {
	articles   []model.ArticleWithFeed
	total      int
	listErr    error
	lastFilter model.ArticleFilter

	setReadOK    bool
	setReadErr   error
	lastReadID   string
	lastReadFlag bool

	setBookmarkedOK  bool
	setBookmarkedErr error

	stats    *repository.StatsSummary
	statsErr error
}

func (m *mockArticleRepo) FindByID(ctx context.Context, id string) (*model.Article, error) {
	return nil, nil
}

func (m *mockArticleRepo) List(ctx context.Context, filter model.ArticleFilter) ([]model.ArticleWithFeed, int, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.articles, m.total, nil
}

func (m *mockArticleRepo) SetRead(ctx context.Context, id string, isRead bool) (bool, error) {
	m.lastReadID = id
	m.lastReadFlag = isRead
	return m.setReadOK, m.setReadErr
}

func (m *mockArticleRepo) SetBookmarked(ctx context.Context, id string, isBookmarked bool) (bool, error) {
	return m.setBookmarkedOK, m.setBookmarkedErr
}

func (m *mockArticleRepo) Stats(ctx context.Context) (*repository.StatsSummary, error) {
	return m.stats, m.statsErr
}

// TestListArticles_NormalizesPagination はページ指定の正規化を検証する。
func TestListArticles_NormalizesPagination(t *testing.T) {
	tests := []struct {
		name        string
		page        int
		perPage     int
		wantPage    int
		wantPerPage int
	}{
		{"ゼロ値はデフォルトに", 0, 0, 1, DefaultPerPage},
		{"負のページは1に", -5, 20, 1, 20},
		{"上限超過は切り詰め", 2, 500, 2, MaxPerPage},
		{"有効な値はそのまま", 3, 50, 3, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockArticleRepo{}
			svc := NewArticleService(repo)

			result, err := svc.ListArticles(context.Background(), model.ArticleFilter{
				Page:    tt.page,
				PerPage: tt.perPage,
			})
			if err != nil {
				t.Fatalf("ListArticles() error = %v", err)
			}

			if repo.lastFilter.Page != tt.wantPage {
				t.Errorf("repo filter Page = %d, want %d", repo.lastFilter.Page, tt.wantPage)
			}
			if repo.lastFilter.PerPage != tt.wantPerPage {
				t.Errorf("repo filter PerPage = %d, want %d", repo.lastFilter.PerPage, tt.wantPerPage)
			}
			if result.Page != tt.wantPage || result.PerPage != tt.wantPerPage {
				t.Errorf("result page/per_page = %d/%d, want %d/%d",
					result.Page, result.PerPage, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

// TestListArticles_TotalPages は総ページ数の算出を検証する。
func TestListArticles_TotalPages(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		perPage        int
		wantTotalPages int
	}{
		{"割り切れる場合", 40, 20, 2},
		{"端数は切り上げ", 41, 20, 3},
		{"0件は0ページ", 0, 20, 0},
		{"1件は1ページ", 1, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockArticleRepo{total: tt.total}
			svc := NewArticleService(repo)

			result, err := svc.ListArticles(context.Background(), model.ArticleFilter{
				Page:    1,
				PerPage: tt.perPage,
			})
			if err != nil {
				t.Fatalf("ListArticles() error = %v", err)
			}

			if result.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, tt.wantTotalPages)
			}
			if result.Total != tt.total {
				t.Errorf("Total = %d, want %d", result.Total, tt.total)
			}
		})
	}
}

// TestListArticles_PassesFilterConditions はフィルタ条件がリポジトリに渡されることを検証する。
func TestListArticles_PassesFilterConditions(t *testing.T) {
	repo := &mockArticleRepo{}
	svc := NewArticleService(repo)

	_, err := svc.ListArticles(context.Background(), model.ArticleFilter{
		Category:       "Tech",
		UnreadOnly:     true,
		BookmarkedOnly: true,
		Page:           1,
		PerPage:        20,
	})
	if err != nil {
		t.Fatalf("ListArticles() error = %v", err)
	}

	if repo.lastFilter.Category != "Tech" {
		t.Errorf("Category = %q, want %q", repo.lastFilter.Category, "Tech")
	}
	if !repo.lastFilter.UnreadOnly {
		t.Error("UnreadOnly should be passed through")
	}
	if !repo.lastFilter.BookmarkedOnly {
		t.Error("BookmarkedOnly should be passed through")
	}
}

// TestListArticles_RepositoryError はリポジトリのエラーがそのまま伝搬することを検証する。
func TestListArticles_RepositoryError(t *testing.T) {
	repo := &mockArticleRepo{listErr: errors.New("db down")}
	svc := NewArticleService(repo)

	_, err := svc.ListArticles(context.Background(), model.ArticleFilter{Page: 1, PerPage: 20})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// TestSetRead_Success は既読更新の成功を検証する。
func TestSetRead_Success(t *testing.T) {
	repo := &mockArticleRepo{setReadOK: true}
	svc := NewArticleService(repo)

	if err := svc.SetRead(context.Background(), "article-1", true); err != nil {
		t.Fatalf("SetRead() error = %v", err)
	}

	if repo.lastReadID != "article-1" {
		t.Errorf("repo received id = %q, want %q", repo.lastReadID, "article-1")
	}
	if !repo.lastReadFlag {
		t.Error("repo should receive isRead = true")
	}
}

// TestSetRead_NotFound は存在しない記事の更新がARTICLE_NOT_FOUNDになることを検証する。
func TestSetRead_NotFound(t *testing.T) {
	repo := &mockArticleRepo{setReadOK: false}
	svc := NewArticleService(repo)

	err := svc.SetRead(context.Background(), "missing", true)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeArticleNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeArticleNotFound)
	}
}

// TestSetBookmarked_NotFound は存在しない記事のブックマーク更新がエラーになることを検証する。
func TestSetBookmarked_NotFound(t *testing.T) {
	repo := &mockArticleRepo{setBookmarkedOK: false}
	svc := NewArticleService(repo)

	err := svc.SetBookmarked(context.Background(), "missing", true)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeArticleNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeArticleNotFound)
	}
}

// TestSetBookmarked_Success はブックマーク更新の成功を検証する。
func TestSetBookmarked_Success(t *testing.T) {
	repo := &mockArticleRepo{setBookmarkedOK: true}
	svc := NewArticleService(repo)

	if err := svc.SetBookmarked(context.Background(), "article-1", false); err != nil {
		t.Fatalf("SetBookmarked() error = %v", err)
	}
}

// TestStats_PassesThrough は統計値がそのまま返されることを検証する。
func TestStats_PassesThrough(t *testing.T) {
	want := &repository.StatsSummary{
		TotalFeeds:         3,
		TotalArticles:      120,
		UnreadArticles:     40,
		ReadArticles:       80,
		BookmarkedArticles: 5,
	}
	repo := &mockArticleRepo{stats: want}
	svc := NewArticleService(repo)

	got, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}
