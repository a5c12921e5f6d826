package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/rssreader/internal/metrics"
	"github.com/hitoshi/rssreader/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Collector         metrics.MetricsCollector

	// /metrics エンドポイント
	Gatherer prometheus.Gatherer

	// サービス
	FeedService    FeedServiceInterface
	ArticleService ArticleServiceInterface
	RefreshTrigger RefreshTrigger

	// ヘルスチェック
	DB Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → LoggingMiddleware → MetricsMiddleware → RecoveryMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))

	feedHandler := NewFeedHandler(deps.FeedService)
	articleHandler := NewArticleHandler(deps.ArticleService)
	refreshHandler := NewRefreshHandler(deps.RefreshTrigger)
	healthHandler := NewHealthHandler(deps.DB)

	// --- 運用エンドポイント（レート制限の外）---

	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// フィード管理
		r.Route("/api/feeds", func(r chi.Router) {
			r.Get("/", feedHandler.ListFeeds)

			// POST /api/feeds - フィード登録（登録専用レート制限を追加）
			r.With(deps.RateLimiter.FeedRegistrationMiddleware()).Post("/", feedHandler.RegisterFeed)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", feedHandler.GetFeed)
				r.Delete("/", feedHandler.DeleteFeed)
			})
		})

		// 記事管理
		r.Route("/api/articles", func(r chi.Router) {
			r.Get("/", articleHandler.ListArticles)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/read", articleHandler.MarkRead)
				r.Put("/unread", articleHandler.MarkUnread)
				r.Put("/bookmark", articleHandler.Bookmark)
				r.Put("/unbookmark", articleHandler.Unbookmark)
			})
		})

		// カテゴリ・統計
		r.Get("/api/categories", feedHandler.ListCategories)
		r.Get("/api/stats", articleHandler.Stats)

		// 手動フィード更新
		r.Post("/api/refresh", refreshHandler.Refresh)
	})

	return r
}
