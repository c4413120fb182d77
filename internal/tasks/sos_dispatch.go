package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/rabbitmq"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
)

// TypeSOSDispatch is the queue task name for fanning an SOS alert out to
// responders. The HTTP path only records the alert and enqueues; delivery
// retries live here.
const TypeSOSDispatch = "sos:dispatch"

// SOSDispatchPayload is the JSON payload transported via the queue.
type SOSDispatchPayload struct {
	EventID int `json:"event_id"`
}

// Dispatcher enqueues background dispatch work.
type Dispatcher interface {
	DispatchSOS(ctx context.Context, eventID int) error
}

// AsynqDispatcher implements Dispatcher on an asynq client.
type AsynqDispatcher struct {
	client *asynq.Client
}

// NewAsynqDispatcher constructs a client from a Redis URL.
func NewAsynqDispatcher(redisURL string) (*AsynqDispatcher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	return &AsynqDispatcher{client: asynq.NewClient(opt)}, nil
}

// DispatchSOS enqueues the dispatch task. Handlers are idempotent, so
// retries are safe.
func (d *AsynqDispatcher) DispatchSOS(ctx context.Context, eventID int) error {
	payload, err := json.Marshal(SOSDispatchPayload{EventID: eventID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeSOSDispatch, payload)
	_, err = d.client.EnqueueContext(ctx, task, asynq.Queue("alerts"), asynq.MaxRetry(5))
	return err
}

func (d *AsynqDispatcher) Close() error {
	return d.client.Close()
}

// NewWorker builds the asynq server consuming the alerts queue.
func NewWorker(redisURL string) (*asynq.Server, *asynq.ServeMux, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"alerts": 2, "default": 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Printf("task failed: type=%s err=%v", task.Type(), err)
		}),
	})
	return srv, asynq.NewServeMux(), nil
}

// RegisterSOSDispatch binds the dispatch handler: load the event and
// publish it on the alerts routing key for responder consumers.
func RegisterSOSDispatch(mux *asynq.ServeMux, repo repositories.SOSRepository, publisher rabbitmq.Publisher) {
	mux.HandleFunc(TypeSOSDispatch, func(ctx context.Context, t *asynq.Task) error {
		var p SOSDispatchPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			// malformed payload, retrying will not help
			return fmt.Errorf("sos dispatch payload: %v: %w", err, asynq.SkipRetry)
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		event, err := repo.GetSOS(ctx, p.EventID)
		if err != nil {
			return err
		}
		return publisher.Publish(ctx, "sos.alerts", event)
	})
}
