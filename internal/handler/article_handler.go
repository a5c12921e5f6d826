package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/rssreader/internal/article"
	"github.com/hitoshi/rssreader/internal/model"
	"github.com/hitoshi/rssreader/internal/repository"
)

// ArticleServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type ArticleServiceInterface interface {
	// ListArticles は記事一覧をフィルタ・ページネーション付きで返す。
	ListArticles(ctx context.Context, filter model.ArticleFilter) (*article.ArticleListResult, error)
	// SetRead は記事の既読状態を冪等に更新する。
	SetRead(ctx context.Context, articleID string, read bool) error
	// SetBookmarked は記事のブックマーク状態を冪等に更新する。
	SetBookmarked(ctx context.Context, articleID string, bookmarked bool) error
	// Stats は集計値を返す。
	Stats(ctx context.Context) (*repository.StatsSummary, error)
}

// ArticleHandler は記事閲覧・状態管理のHTTPハンドラー。
type ArticleHandler struct {
	service ArticleServiceInterface
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(service ArticleServiceInterface) *ArticleHandler {
	return &ArticleHandler{
		service: service,
	}
}

// articleResponse は記事一覧の1件分のレスポンス。
type articleResponse struct {
	ID            string     `json:"id"`
	FeedID        string     `json:"feed_id"`
	Title         string     `json:"title"`
	Link          string     `json:"link"`
	Description   string     `json:"description"` // サニタイズ済みHTML
	Summary       string     `json:"summary"`
	Author        string     `json:"author,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	ReadingTime   int        `json:"reading_time"`
	IsRead        bool       `json:"is_read"`
	IsBookmarked  bool       `json:"is_bookmarked"`
	FeedName      string     `json:"feed_name"`
	FeedCategory  string     `json:"feed_category"`
	FeedLogoURL   string     `json:"feed_logo_url,omitempty"`
}

// articleListResponse は記事一覧のレスポンス。
type articleListResponse struct {
	Articles   []articleResponse `json:"articles"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

// statsResponse は統計情報のレスポンス。
type statsResponse struct {
	TotalFeeds         int `json:"total_feeds"`
	TotalArticles      int `json:"total_articles"`
	UnreadArticles     int `json:"unread_articles"`
	ReadArticles       int `json:"read_articles"`
	BookmarkedArticles int `json:"bookmarked_articles"`
}

// ListArticles は記事一覧を取得する。
// GET /api/articles?page=1&per_page=20&category=Tech&unread_only=true&bookmarked_only=true
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.ArticleFilter{
		Category:       q.Get("category"),
		UnreadOnly:     q.Get("unread_only") == "true",
		BookmarkedOnly: q.Get("bookmarked_only") == "true",
		Page:           parseIntParam(q.Get("page"), 1),
		PerPage:        parseIntParam(q.Get("per_page"), article.DefaultPerPage),
	}

	result, err := h.service.ListArticles(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	articles := make([]articleResponse, len(result.Articles))
	for i, a := range result.Articles {
		articles[i] = toArticleResponse(&a)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(articleListResponse{
		Articles:   articles,
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages,
	})
}

// MarkRead は記事を既読にする。
// PUT /api/articles/:id/read
func (h *ArticleHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.updateReadState(w, r, true)
}

// MarkUnread は記事を未読に戻す。
// PUT /api/articles/:id/unread
func (h *ArticleHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	h.updateReadState(w, r, false)
}

// Bookmark は記事をブックマークする。
// PUT /api/articles/:id/bookmark
func (h *ArticleHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	h.updateBookmarkState(w, r, true)
}

// Unbookmark は記事のブックマークを解除する。
// PUT /api/articles/:id/unbookmark
func (h *ArticleHandler) Unbookmark(w http.ResponseWriter, r *http.Request) {
	h.updateBookmarkState(w, r, false)
}

// Stats はフィード・記事の統計情報を取得する。
// GET /api/stats
func (h *ArticleHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{
		TotalFeeds:         stats.TotalFeeds,
		TotalArticles:      stats.TotalArticles,
		UnreadArticles:     stats.UnreadArticles,
		ReadArticles:       stats.ReadArticles,
		BookmarkedArticles: stats.BookmarkedArticles,
	})
}

func (h *ArticleHandler) updateReadState(w http.ResponseWriter, r *http.Request, read bool) {
	articleID := chi.URLParam(r, "id")

	if err := h.service.SetRead(r.Context(), articleID, read); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ArticleHandler) updateBookmarkState(w http.ResponseWriter, r *http.Request, bookmarked bool) {
	articleID := chi.URLParam(r, "id")

	if err := h.service.SetBookmarked(r.Context(), articleID, bookmarked); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toArticleResponse はmodel.ArticleWithFeedからAPIレスポンスに変換する。
func toArticleResponse(a *model.ArticleWithFeed) articleResponse {
	return articleResponse{
		ID:            a.ID,
		FeedID:        a.FeedID,
		Title:         a.Title,
		Link:          a.Link,
		Description:   a.Description,
		Summary:       a.Summary,
		Author:        a.Author,
		PublishedDate: a.PublishedDate,
		ReadingTime:   a.ReadingTime,
		IsRead:        a.IsRead,
		IsBookmarked:  a.IsBookmarked,
		FeedName:      a.FeedName,
		FeedCategory:  a.FeedCategory,
		FeedLogoURL:   a.FeedLogoURL,
	}
}

// parseIntParam はクエリパラメータを整数として解釈する。
// 空文字列や不正な値はデフォルト値にフォールバックする。
func parseIntParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
