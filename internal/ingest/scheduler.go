package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrRefreshInProgress は更新サイクルの実行中に手動トリガーが要求されたことを表す。
var ErrRefreshInProgress = errors.New("フィード更新サイクルは既に実行中")

// defaultRefreshInterval は更新間隔の既定値。
const defaultRefreshInterval = 30 * time.Minute

// Scheduler は定期的なフィード更新サイクルを管理する。
//
// サイクルは重複実行されない: 前回のサイクルが実行中の間は
// 定期起動はスキップされ、手動トリガーはErrRefreshInProgressを返す。
type Scheduler struct {
	refresher RefreshRunner
	logger    *slog.Logger
	interval  time.Duration
	running   atomic.Bool
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// intervalが0以下の場合は既定値（30分）を使用する。
func NewScheduler(refresher RefreshRunner, logger *slog.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &Scheduler{
		refresher: refresher,
		logger:    logger,
		interval:  interval,
	}
}

// Start は定期更新ループを開始する。起動直後に1回実行し、
// 以降はinterval間隔で実行する。ctxのキャンセルで停止する。
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("フィード更新スケジューラを開始します",
		slog.Duration("interval", s.interval),
	)

	// 起動直後に1回実行
	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("フィード更新スケジューラを停止します")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// TriggerNow は更新サイクルを即時実行し、集計結果を返す。
// 既にサイクルが実行中の場合はErrRefreshInProgressを返す。
func (s *Scheduler) TriggerNow(ctx context.Context) (*RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRefreshInProgress
	}
	defer s.running.Store(false)

	return s.refresher.RefreshAll(ctx)
}

// Running は更新サイクルが実行中かどうかを返す。
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// runCycle は定期起動による1サイクルを実行する。実行中の場合はスキップする。
func (s *Scheduler) runCycle(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("前回の更新サイクルが実行中のためスキップします")
		return
	}
	defer s.running.Store(false)

	if _, err := s.refresher.RefreshAll(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error("フィード更新サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
