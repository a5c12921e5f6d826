// Package article は取り込み済み記事の閲覧・状態管理機能を提供する。
package article

import (
	"context"

	"github.com/hitoshi/rssreader/internal/model"
	"github.com/hitoshi/rssreader/internal/repository"
)

const (
	// DefaultPerPage は記事一覧の1ページあたりのデフォルト件数。
	DefaultPerPage = 20
	// MaxPerPage は1ページあたりの最大件数。これを超える指定は切り詰める。
	MaxPerPage = 100
)

// ArticleService は記事一覧・既読・ブックマーク管理のサービス。
type ArticleService struct {
	articleRepo repository.ArticleRepository
}

// NewArticleService はArticleServiceの新しいインスタンスを生成する。
func NewArticleService(articleRepo repository.ArticleRepository) *ArticleService {
	return &ArticleService{
		articleRepo: articleRepo,
	}
}

// ArticleListResult はListArticlesの戻り値。
type ArticleListResult struct {
	Articles   []model.ArticleWithFeed
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// ListArticles は記事一覧をフィルタ・ページネーション付きで返す。
// published_date降順（NULLは末尾）でソートする。
// ページ番号・件数は正規化してから問い合わせる。
func (s *ArticleService) ListArticles(ctx context.Context, filter model.ArticleFilter) (*ArticleListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultPerPage
	}
	if filter.PerPage > MaxPerPage {
		filter.PerPage = MaxPerPage
	}

	articles, total, err := s.articleRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := (total + filter.PerPage - 1) / filter.PerPage

	return &ArticleListResult{
		Articles:   articles,
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: totalPages,
	}, nil
}

// SetRead は記事の既読状態を冪等に更新する。
// 記事が存在しない場合はARTICLE_NOT_FOUNDエラーを返す。
func (s *ArticleService) SetRead(ctx context.Context, articleID string, read bool) error {
	ok, err := s.articleRepo.SetRead(ctx, articleID, read)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewArticleNotFoundError(articleID)
	}
	return nil
}

// SetBookmarked は記事のブックマーク状態を冪等に更新する。
// 記事が存在しない場合はARTICLE_NOT_FOUNDエラーを返す。
func (s *ArticleService) SetBookmarked(ctx context.Context, articleID string, bookmarked bool) error {
	ok, err := s.articleRepo.SetBookmarked(ctx, articleID, bookmarked)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewArticleNotFoundError(articleID)
	}
	return nil
}

// Stats はフィード数・記事数・既読/未読/ブックマーク数の統計を返す。
func (s *ArticleService) Stats(ctx context.Context) (*repository.StatsSummary, error) {
	return s.articleRepo.Stats(ctx)
}
