package inventory

import (
	"context"

	"github.com/hibiken/asynq"
)

// TaskLowStockScan is the asynq task type for the periodic stock sweep.
const TaskLowStockScan = "inventory:low_stock_scan"

// NewLowStockScanTask builds the task the scheduler enqueues.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskLowStockScan, nil)
}

// HandleLowStockScanTask runs one scan on behalf of the worker.
func (s *Scanner) HandleLowStockScanTask(ctx context.Context, _ *asynq.Task) error {
	published, err := s.Scan(ctx)
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info().Int("alerts", published).Msg("low stock scan finished")
	}
	return nil
}
