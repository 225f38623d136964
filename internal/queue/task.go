// Package queue moves object cleanup tasks from the API to the worker over
// a redis stream.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// TaskPurge removes the listed keys unless a record still points at them.
	TaskPurge = "purge"
	// TaskSweep removes stored derivatives no record points at.
	TaskSweep = "sweep"
)

type Task struct {
	Type   string   `json:"type"`
	Bucket string   `json:"bucket,omitempty"`
	Keys   []string `json:"keys,omitempty"`

	// RequestedAt lets a purge spare keys that were written again after
	// the purge was requested.
	RequestedAt time.Time `json:"requested_at,omitempty"`
}

func Purge(bucket string, keys ...string) Task {
	return Task{Type: TaskPurge, Bucket: bucket, Keys: keys, RequestedAt: time.Now()}
}

type Enqueuer interface {
	Enqueue(ctx context.Context, task Task) error
}

type Handler interface {
	Handle(ctx context.Context, task Task) error
}

type HandlerFunc func(ctx context.Context, task Task) error

func (f HandlerFunc) Handle(ctx context.Context, task Task) error {
	return f(ctx, task)
}

// Local hands tasks straight to a handler in-process. It stands in for the
// stream when the API runs without redis.
type Local struct {
	Handler Handler
}

func (l Local) Enqueue(ctx context.Context, task Task) error {
	return l.Handler.Handle(ctx, task)
}

// InProcess reports that Enqueue runs the task to completion before it
// returns.
func (Local) InProcess() bool { return true }

// RunsInProcess reports whether q executes tasks inside Enqueue.
func RunsInProcess(q Enqueuer) bool {
	p, ok := q.(interface{ InProcess() bool })
	return ok && p.InProcess()
}

const payloadField = "payload"

func encode(task Task) (map[string]any, error) {
	raw, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	return map[string]any{"type": task.Type, payloadField: string(raw)}, nil
}

func decode(values map[string]any) (Task, error) {
	raw, ok := values[payloadField].(string)
	if !ok {
		return Task{}, fmt.Errorf("missing %s field", payloadField)
	}
	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return Task{}, err
	}
	return task, nil
}
