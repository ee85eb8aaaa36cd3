package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"workpulse/internal/domain/scoring"
)

// ReportGenerator is the slice of the scoring service the queue needs
// to recompute a week. The config snapshot is loaded once per drain.
type ReportGenerator interface {
	GetConfig(ctx context.Context) (scoring.ScoringConfig, error)
	GenerateWithConfig(ctx context.Context, cfg scoring.ScoringConfig, userID string, weekStart, weekEnd time.Time) (scoring.WeeklyReport, error)
}

// staleClaimAge is how long a processing claim stays honored. A drain
// that dies mid-run leaves its batch in processing; once a claim is
// older than this, the next drain takes the row back.
const staleClaimAge = 15 * time.Minute

type Service struct {
	store       StoreAPI
	generator   ReportGenerator
	fanoutLimit int
}

func NewService(store StoreAPI, generator ReportGenerator, fanoutLimit int) *Service {
	if fanoutLimit <= 0 {
		fanoutLimit = 10
	}
	return &Service{store: store, generator: generator, fanoutLimit: fanoutLimit}
}

// Enqueue records that the week containing at needs rescoring for the
// user. Duplicate invalidations before a drain collapse into one
// pending request.
func (s *Service) Enqueue(ctx context.Context, userID string, at time.Time) error {
	return s.store.Enqueue(ctx, userID, scoring.WeekStart(at))
}

func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.store.PendingCount(ctx)
}

// Drain claims up to maxItems pending requests and recomputes each
// one. A request that fails goes back to the backlog with its error
// recorded; the run itself never aborts on a single item. Items are
// finalized one at a time, so a mid-run crash leaves finished requests
// done and the rest queued.
func (s *Service) Drain(ctx context.Context, maxItems int) (DrainResult, error) {
	if maxItems <= 0 {
		maxItems = 100
	}

	cfg, err := s.generator.GetConfig(ctx)
	if err != nil {
		return DrainResult{}, fmt.Errorf("load scoring config: %w", err)
	}
	if err := scoring.ValidateConfig(cfg); err != nil {
		return DrainResult{}, err
	}

	requests, err := s.store.ClaimBatch(ctx, maxItems, time.Now().UTC().Add(-staleClaimAge))
	if err != nil {
		return DrainResult{}, fmt.Errorf("claim batch: %w", err)
	}

	var (
		mu     sync.Mutex
		result DrainResult
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.fanoutLimit)
	for _, request := range requests {
		req := request
		group.Go(func() error {
			weekEnd := scoring.WeekEnd(req.WeekStart)
			_, genErr := s.generator.GenerateWithConfig(groupCtx, cfg, req.UserID, req.WeekStart, weekEnd)
			if genErr != nil {
				slog.Warn("recalculation failed", "userId", req.UserID, "weekStart", req.WeekStart, "err", genErr)
				if relErr := s.store.Release(groupCtx, req.ID, genErr.Error()); relErr != nil {
					slog.Warn("release failed", "requestId", req.ID, "err", relErr)
				}
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Sprintf("user %s week %s: %v", req.UserID, req.WeekStart.Format("2006-01-02"), genErr))
				mu.Unlock()
				return nil
			}
			if err := s.store.Complete(groupCtx, req.ID); err != nil {
				slog.Warn("complete failed", "requestId", req.ID, "err", err)
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Sprintf("user %s week %s: %v", req.UserID, req.WeekStart.Format("2006-01-02"), err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			result.Processed++
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	sort.Strings(result.Errors)
	return result, nil
}
