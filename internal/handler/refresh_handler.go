package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/rssreader/internal/ingest"
	"github.com/hitoshi/rssreader/internal/model"
)

// RefreshTrigger は手動フィード更新のトリガーインターフェース。
// 更新サイクルが既に実行中の場合はingest.ErrRefreshInProgressを返す。
type RefreshTrigger interface {
	TriggerNow(ctx context.Context) (*ingest.RunSummary, error)
}

// RefreshHandler は手動フィード更新のHTTPハンドラー。
type RefreshHandler struct {
	trigger RefreshTrigger
}

// NewRefreshHandler はRefreshHandlerを生成する。
func NewRefreshHandler(trigger RefreshTrigger) *RefreshHandler {
	return &RefreshHandler{
		trigger: trigger,
	}
}

// refreshFeedResult は更新サマリー内の1フィード分の結果。
type refreshFeedResult struct {
	FeedID      string `json:"feed_id"`
	FeedName    string `json:"feed_name"`
	NewArticles int    `json:"new_articles"`
	Error       string `json:"error,omitempty"`
}

// refreshResponse は手動更新のレスポンス。
type refreshResponse struct {
	Total       int                 `json:"total"`
	Succeeded   int                 `json:"succeeded"`
	Failed      int                 `json:"failed"`
	NewArticles int                 `json:"new_articles"`
	DurationMs  int64               `json:"duration_ms"`
	Feeds       []refreshFeedResult `json:"feeds"`
}

// Refresh は全アクティブフィードの更新を即時実行する。
// 定期更新または別の手動更新が実行中の場合は409を返す。
// POST /api/refresh
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	summary, err := h.trigger.TriggerNow(r.Context())
	if err != nil {
		if errors.Is(err, ingest.ErrRefreshInProgress) {
			handleServiceError(w, model.NewRefreshConflictError())
			return
		}
		handleServiceError(w, err)
		return
	}

	feeds := make([]refreshFeedResult, len(summary.Results))
	for i, res := range summary.Results {
		fr := refreshFeedResult{
			FeedID:      res.FeedID,
			FeedName:    res.FeedName,
			NewArticles: res.NewArticles,
		}
		if res.Err != nil {
			fr.Error = res.Err.Error()
		}
		feeds[i] = fr
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(refreshResponse{
		Total:       summary.Total,
		Succeeded:   summary.Succeeded,
		Failed:      summary.Failed,
		NewArticles: summary.NewArticles,
		DurationMs:  summary.Duration.Milliseconds(),
		Feeds:       feeds,
	})
}
