package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/rentpulse/pricing-engine/pkg/services/workqueue"
)

// TasksResponse lists background tasks with an overall progress summary.
type TasksResponse struct {
	Tasks    []workqueue.TaskSnapshot `json:"tasks"`
	Progress workqueue.Progress       `json:"progress"`
}

// TaskHandler exposes the work queue state.
type TaskHandler struct {
	queue  *workqueue.Queue
	logger *zap.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(queue *workqueue.Queue, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{queue: queue, logger: logger}
}

// RegisterRoutes registers the task handler's routes on the given mux.
func (h *TaskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tasks", h.List)
	mux.HandleFunc("GET /api/tasks/{tid}", h.Get)
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	response := TasksResponse{
		Tasks:    h.queue.GetTasks(),
		Progress: h.queue.Progress(),
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode tasks response", zap.Error(err))
	}
}

// Get handles GET /api/tasks/{tid}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.queue.GetTask(r.PathValue("tid"))
	if !ok {
		_ = ErrorResponse(w, http.StatusNotFound, "task_not_found", "Task not found")
		return
	}

	if err := WriteJSON(w, http.StatusOK, snapshot); err != nil {
		h.logger.Error("Failed to encode task response", zap.Error(err))
	}
}
