// Package jobs runs background maintenance over Redis/asynq. The whole
// subsystem is optional: the HTTP pipeline never depends on it, and it is
// only constructed when a Redis address is configured.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
)

const TaskWorkspaceSweep = "workspace:sweep"

type Queue struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

func NewQueue(redisAddr string) *Queue {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	client := asynq.NewClient(redisOpt)
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	scheduler := asynq.NewScheduler(redisOpt, nil)
	return &Queue{client: client, server: server, mux: mux, scheduler: scheduler}
}

func (q *Queue) RegisterHandler(taskType string, handler asynq.Handler) {
	q.mux.Handle(taskType, handler)
}

// Schedule registers a cron-style recurring task.
func (q *Queue) Schedule(spec, taskType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if _, err := q.scheduler.Register(spec, asynq.NewTask(taskType, data)); err != nil {
		return fmt.Errorf("schedule %s: %w", taskType, err)
	}
	return nil
}

func (q *Queue) Enqueue(taskType string, payload interface{}, opts ...asynq.Option) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data, opts...)
	info, err := q.client.Enqueue(task)
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	return info.ID, nil
}

func (q *Queue) Start(ctx context.Context) error {
	log.Println("Job queue worker starting...")
	if err := q.server.Start(q.mux); err != nil {
		return err
	}
	return q.scheduler.Start()
}

func (q *Queue) Stop() {
	q.scheduler.Shutdown()
	q.server.Shutdown()
	q.client.Close()
}
