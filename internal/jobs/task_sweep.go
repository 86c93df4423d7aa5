package jobs

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/forensiclab/cluewords/internal/workspace"
)

type SweepPayload struct {
	TTLHours int `json:"ttl_hours"`
}

// RegisterHandlers wires the maintenance tasks and their schedule.
func RegisterHandlers(q *Queue, ws *workspace.Manager, ttlHours int) error {
	q.RegisterHandler(TaskWorkspaceSweep, asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		removed, err := ws.Sweep(time.Duration(ttlHours) * time.Hour)
		if err != nil {
			return err
		}
		if removed > 0 {
			log.Printf("jobs: swept %d expired case workspace(s)", removed)
		}
		return nil
	}))
	return q.Schedule("@every 1h", TaskWorkspaceSweep, SweepPayload{TTLHours: ttlHours})
}
