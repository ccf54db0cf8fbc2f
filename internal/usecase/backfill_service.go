package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/scorethread/scorethread/internal/platform/logging"
)

const (
	backfillStatusSuccess = "success"
	backfillStatusFailed  = "failed"

	defaultBackfillWorkers = 4
	maxBackfillWorkers     = 16
)

type BackfillInput struct {
	// From and To bound the date range, inclusive on both ends. Times are
	// truncated to days in UTC.
	From time.Time
	To   time.Time

	MaxWorkers int
}

type BackfillResult struct {
	DayCount     int               `json:"day_count"`
	SuccessCount int               `json:"success_count"`
	FailedCount  int               `json:"failed_count"`
	Inserted     int               `json:"inserted"`
	WorkerCount  int               `json:"worker_count"`
	Days         []BackfillDayItem `json:"days"`
}

type BackfillDayItem struct {
	Date       string `json:"date"`
	Status     string `json:"status"`
	Inserted   int    `json:"inserted"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// BackfillService loads historical scoreboards one day at a time over a
// bounded worker pool. Days are independent: a failed day is reported and
// the rest still land, and re-running is safe because ingestion inserts
// with ignore-on-conflict.
type BackfillService struct {
	ingestion *IngestionService
	logger    *logging.Logger
}

func NewBackfillService(ingestion *IngestionService, logger *logging.Logger) *BackfillService {
	if logger == nil {
		logger = logging.Default()
	}
	return &BackfillService{ingestion: ingestion, logger: logger}
}

func (s *BackfillService) Backfill(ctx context.Context, input BackfillInput) (BackfillResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BackfillService.Backfill")
	defer span.End()

	from := input.From.UTC().Truncate(24 * time.Hour)
	to := input.To.UTC().Truncate(24 * time.Hour)
	if from.IsZero() || to.IsZero() {
		return BackfillResult{}, fmt.Errorf("%w: backfill range is required", ErrInvalidInput)
	}
	if to.Before(from) {
		return BackfillResult{}, fmt.Errorf("%w: backfill range end precedes start", ErrInvalidInput)
	}

	days := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}

	workerCount := normalizeBackfillWorkerCount(input.MaxWorkers, len(days))
	result := BackfillResult{
		DayCount:    len(days),
		WorkerCount: workerCount,
		Days:        make([]BackfillDayItem, 0, len(days)),
	}

	rows := make(chan BackfillDayItem, len(days))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var insertedCount atomic.Int64

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, day := range days {
		day := day
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := BackfillDayItem{Date: day.Format("2006-01-02")}

			inserted, err := s.ingestion.IngestScoreboard(ctx, day)
			row.DurationMs = time.Since(start).Milliseconds()
			if err != nil {
				row.Status = backfillStatusFailed
				row.Message = err.Error()
				failedCount.Add(1)
			} else {
				row.Status = backfillStatusSuccess
				row.Inserted = inserted
				successCount.Add(1)
				insertedCount.Add(int64(inserted))
			}

			rows <- row
		}); err != nil {
			workers.Done()
			return BackfillResult{}, fmt.Errorf("submit day to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		result.Days = append(result.Days, row)
	}
	sort.SliceStable(result.Days, func(i, j int) bool {
		return result.Days[i].Date < result.Days[j].Date
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.Inserted = int(insertedCount.Load())

	s.logger.InfoContext(ctx, "backfill finished",
		"days", result.DayCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"inserted", result.Inserted,
	)
	return result, nil
}

func normalizeBackfillWorkerCount(requested, taskCount int) int {
	count := requested
	if count <= 0 {
		count = defaultBackfillWorkers
	}
	if count > maxBackfillWorkers {
		count = maxBackfillWorkers
	}
	if taskCount > 0 && count > taskCount {
		count = taskCount
	}
	if count < 1 {
		count = 1
	}
	return count
}
