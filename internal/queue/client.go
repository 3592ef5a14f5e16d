package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

// ErrJobNotFound is returned for unknown or expired job IDs.
var ErrJobNotFound = errors.New("job not found")

// JobStatus is the externally visible state of an answer job.
type JobStatus struct {
	ID          string        `json:"job_id"`
	State       string        `json:"state"`
	Retried     int           `json:"retried"`
	LastError   string        `json:"last_error,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Result      *AnswerResult `json:"result,omitempty"`
}

// Client enqueues answer jobs and reads back their state.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
	}
}

// EnqueueAnswer queues a question and returns the job ID.
func (c *Client) EnqueueAnswer(ctx context.Context, question string, maxTokens int) (string, error) {
	task, err := NewAnswerTask(question, maxTokens)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Job looks up a job by ID.
func (c *Client) Job(id string) (*JobStatus, error) {
	info, err := c.inspector.GetTaskInfo(QueueDefault, id)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return statusFromInfo(info)
}

func statusFromInfo(info *asynq.TaskInfo) (*JobStatus, error) {
	st := &JobStatus{
		ID:        info.ID,
		State:     info.State.String(),
		Retried:   info.Retried,
		LastError: info.LastErr,
	}
	if !info.CompletedAt.IsZero() {
		t := info.CompletedAt
		st.CompletedAt = &t
	}
	if len(info.Result) > 0 {
		var res AnswerResult
		if err := json.Unmarshal(info.Result, &res); err != nil {
			return nil, err
		}
		st.Result = &res
	}
	return st, nil
}

func (c *Client) Close() error {
	return errors.Join(c.client.Close(), c.inspector.Close())
}
