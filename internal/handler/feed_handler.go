// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/rssreader/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	// RegisterFeed はURLからフィードを検出・検証して登録し、初回取り込みを行う。
	RegisterFeed(ctx context.Context, name, inputURL, category string) (*model.Feed, int, error)
	// ListFeeds はアクティブなフィード一覧を記事数付きで返す。
	ListFeeds(ctx context.Context) ([]model.FeedWithCount, error)
	// GetFeed はフィード情報を取得する。
	GetFeed(ctx context.Context, feedID string) (*model.Feed, error)
	// DeactivateFeed はフィードを論理削除する。
	DeactivateFeed(ctx context.Context, feedID string) error
	// ListCategories はアクティブなフィードのカテゴリ一覧を返す。
	ListCategories(ctx context.Context) ([]string, error)
}

// FeedHandler はフィード管理のHTTPハンドラー。
type FeedHandler struct {
	service FeedServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface) *FeedHandler {
	return &FeedHandler{
		service: service,
	}
}

// registerFeedRequest はフィード登録リクエストのボディ。
type registerFeedRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// feedResponse はフィード情報のAPIレスポンス。
type feedResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	Category    string     `json:"category"`
	LogoURL     string     `json:"logo_url,omitempty"`
	LastFetched *time.Time `json:"last_fetched,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// feedWithCountResponse はフィード一覧のレスポンス要素。
type feedWithCountResponse struct {
	feedResponse
	ArticleCount int `json:"article_count"`
}

// registerFeedResponse はフィード登録のレスポンス。
type registerFeedResponse struct {
	Feed        feedResponse `json:"feed"`
	NewArticles int          `json:"new_articles"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListFeeds はアクティブなフィード一覧を記事数付きで返す。
// GET /api/feeds
func (h *FeedHandler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.service.ListFeeds(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]feedWithCountResponse, len(feeds))
	for i, f := range feeds {
		resp[i] = feedWithCountResponse{
			feedResponse: toFeedResponse(&f.Feed),
			ArticleCount: f.ArticleCount,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// RegisterFeed はフィード登録を処理する。
// POST /api/feeds
func (h *FeedHandler) RegisterFeed(w http.ResponseWriter, r *http.Request) {
	var req registerFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	feed, inserted, err := h.service.RegisterFeed(r.Context(), req.Name, req.URL, req.Category)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(registerFeedResponse{
		Feed:        toFeedResponse(feed),
		NewArticles: inserted,
	})
}

// GetFeed はフィード詳細を取得する。
// GET /api/feeds/:id
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	feedID := chi.URLParam(r, "id")

	feed, err := h.service.GetFeed(r.Context(), feedID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toFeedResponse(feed))
}

// DeleteFeed はフィードを論理削除する。既存の記事は残る。
// DELETE /api/feeds/:id
func (h *FeedHandler) DeleteFeed(w http.ResponseWriter, r *http.Request) {
	feedID := chi.URLParam(r, "id")

	if err := h.service.DeactivateFeed(r.Context(), feedID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories はアクティブなフィードのカテゴリ一覧を返す。
// GET /api/categories
func (h *FeedHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if categories == nil {
		categories = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"categories": categories})
}

// --- ヘルパー関数 ---

// toFeedResponse はmodel.FeedからAPIレスポンスに変換する。
func toFeedResponse(feed *model.Feed) feedResponse {
	return feedResponse{
		ID:          feed.ID,
		Name:        feed.Name,
		URL:         feed.URL,
		Category:    feed.Category,
		LogoURL:     feed.LogoURL,
		LastFetched: feed.LastFetched,
		CreatedAt:   feed.CreatedAt,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidURL, model.ErrCodeMissingField:
		return http.StatusBadRequest
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeFetchFailed:
		return http.StatusBadGateway
	case model.ErrCodeParseFailed, model.ErrCodeFeedNotDetected, model.ErrCodeEmptyFeed:
		return http.StatusUnprocessableEntity
	case model.ErrCodeDuplicateFeed, model.ErrCodeRefreshConflict:
		return http.StatusConflict
	case model.ErrCodeFeedNotFound, model.ErrCodeArticleNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
