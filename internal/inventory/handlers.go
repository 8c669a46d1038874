package inventory

import (
	"context"
	"net/http"

	"github.com/hibiken/asynq"

	"github.com/wovenshop/storefront/internal/common"
)

// Enqueuer is the slice of asynq.Client the trigger endpoint needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Handler lets sellers kick off a stock sweep without waiting for the
// scheduler.
type Handler struct {
	Client Enqueuer
}

// TriggerScan enqueues a low stock scan for the worker to pick up.
func (h *Handler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	info, err := h.Client.EnqueueContext(r.Context(), NewLowStockScanTask())
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "could not schedule scan", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]string{"taskId": info.ID}})
}
