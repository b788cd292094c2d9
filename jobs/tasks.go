package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInsightsWarmup pre-populates the demand forecast cache.
	TaskInsightsWarmup = "insights:warmup"
	// TaskChatCleanup purges chat transcripts past retention.
	TaskChatCleanup = "chat:cleanup"
	// TaskGeocodeRefresh resolves coordinates for addresses missing them.
	TaskGeocodeRefresh = "geocode:refresh"
)

// InsightsWarmupPayload narrows a warmup run to specific communes. An empty
// list warms every known commune.
type InsightsWarmupPayload struct {
	Communes []string `json:"communes,omitempty"`
}

// NewInsightsWarmupTask constructs an Asynq task.
func NewInsightsWarmupTask(payload InsightsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInsightsWarmup, data), nil
}

// ChatCleanupPayload is empty, retention comes from configuration.
type ChatCleanupPayload struct{}

// NewChatCleanupTask constructs an Asynq task.
func NewChatCleanupTask() (*asynq.Task, error) {
	data, err := json.Marshal(ChatCleanupPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskChatCleanup, data), nil
}

// GeocodeRefreshPayload bounds one refresh batch.
type GeocodeRefreshPayload struct {
	BatchSize int `json:"batch_size,omitempty"`
}

// NewGeocodeRefreshTask constructs an Asynq task.
func NewGeocodeRefreshTask(payload GeocodeRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGeocodeRefresh, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueGeocodeRefresh enqueues a geocode refresh batch.
func (c *Client) EnqueueGeocodeRefresh(ctx context.Context, payload GeocodeRefreshPayload) (*asynq.TaskInfo, error) {
	task, err := NewGeocodeRefreshTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
