package conductor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task statuses reported back to the orchestrator.
const (
	StatusCompleted  = "COMPLETED"
	StatusInProgress = "IN_PROGRESS"
	StatusFailed     = "FAILED"
)

// tokenSlack is subtracted from the reported expiry: a token inside the last
// minute of its life is treated as expired.
const tokenSlack = time.Minute

// Task is one polled unit of work.
type Task struct {
	TaskID               string         `json:"taskId"`
	TaskType             string         `json:"taskType"`
	InputData            map[string]any `json:"inputData"`
	WorkflowInstanceID   string         `json:"workflowInstanceId"`
	CallbackAfterSeconds int            `json:"callbackAfterSeconds"`
}

// TaskResult reports a handler outcome.
type TaskResult struct {
	TaskID                string         `json:"taskId"`
	WorkflowInstanceID    string         `json:"workflowInstanceId"`
	ReasonForIncompletion string         `json:"reasonForIncompletion"`
	Status                string         `json:"status"`
	OutputData            map[string]any `json:"outputData"`
	CallbackAfterSeconds  int            `json:"callbackAfterSeconds"`
}

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	// Enabled can force the client offline even with a base URL configured.
	Enabled bool
	Timeout time.Duration
}

// Client speaks the orchestrator's HTTP contract. Without a base URL (or
// with Enabled false) every operation is a cheap no-op so the rest of the
// system runs fully offline.
type Client struct {
	http    *http.Client
	base    string
	keyID   string
	secret  string
	enabled bool
	log     *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	enabled := cfg.Enabled && base != ""
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		base:    base,
		keyID:   cfg.KeyID,
		secret:  cfg.KeySecret,
		enabled: enabled,
		log:     log,
	}
}

func (c *Client) Enabled() bool { return c.enabled }

// Poll asks for one pending task of taskType. A nil task with nil error
// means nothing is pending (or the client is offline).
func (c *Client) Poll(ctx context.Context, taskType, workerID string) (*Task, error) {
	if !c.enabled {
		return nil, nil
	}
	path := fmt.Sprintf("/tasks/poll/%s?workerid=%s&domain=", taskType, workerID)
	body, status, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 || len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var t Task
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	if t.TaskID == "" {
		return nil, nil
	}
	return &t, nil
}

// Ack acknowledges receipt of a task.
func (c *Client) Ack(ctx context.Context, taskID, workerID string) error {
	if !c.enabled {
		return nil
	}
	payload := map[string]string{"workerId": workerID}
	_, status, err := c.do(ctx, http.MethodPost, "/tasks/"+taskID+"/ack", payload)
	if err != nil {
		return err
	}
	if status != 0 && (status < 200 || status >= 300) {
		return fmt.Errorf("ack %s: status %d", taskID, status)
	}
	return nil
}

// UpdateTask pushes a handler result back to the orchestrator.
func (c *Client) UpdateTask(ctx context.Context, result *TaskResult) error {
	if !c.enabled {
		return nil
	}
	_, status, err := c.do(ctx, http.MethodPost, "/tasks", result)
	if err != nil {
		return err
	}
	if status != 0 && (status < 200 || status >= 300) {
		return fmt.Errorf("update task %s: status %d", result.TaskID, status)
	}
	return nil
}

// StartWorkflow starts a workflow instance and returns its id. Offline mode
// returns an empty id with no error.
func (c *Client) StartWorkflow(ctx context.Context, name string, version int, input map[string]any) (string, error) {
	if !c.enabled {
		return "", nil
	}
	payload := map[string]any{"name": name, "version": version, "input": input}
	body, status, err := c.do(ctx, http.MethodPost, "/workflow", payload)
	if err != nil {
		return "", err
	}
	if status == 0 {
		return "", nil
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("start workflow %s: status %d", name, status)
	}
	// response body is the instance id as a quoted JSON string
	return strings.Trim(strings.TrimSpace(string(body)), `"`), nil
}

// RegisterWorkflow uploads a workflow definition supplied as raw JSON.
func (c *Client) RegisterWorkflow(ctx context.Context, definition []byte) error {
	return c.register(ctx, "/metadata/workflow", definition)
}

// RegisterTaskDefs uploads task definitions supplied as raw JSON.
func (c *Client) RegisterTaskDefs(ctx context.Context, definitions []byte) error {
	return c.register(ctx, "/metadata/taskdefs", definitions)
}

func (c *Client) register(ctx context.Context, path string, raw []byte) error {
	if !c.enabled {
		return nil
	}
	_, status, err := c.doRaw(ctx, http.MethodPost, path, raw)
	if err != nil {
		return err
	}
	if status != 0 && (status < 200 || status >= 300) {
		return fmt.Errorf("register %s: status %d", path, status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
	}
	return c.doRaw(ctx, method, path, raw)
}

// doRaw performs one authenticated call. A 401 invalidates the cached token
// and the call is retried exactly once with a forced refresh.
func (c *Client) doRaw(ctx context.Context, method, path string, raw []byte) ([]byte, int, error) {
	token, ok := c.bearer(ctx, false)
	if !ok {
		// token required but unobtainable: skip the call, as documented
		c.log.Warn("orchestrator call skipped, no token", zap.String("path", path))
		return nil, 0, nil
	}

	body, status, err := c.send(ctx, method, path, raw, token)
	if err != nil {
		return nil, 0, err
	}
	if status != http.StatusUnauthorized {
		return body, status, nil
	}

	c.invalidateToken()
	token, ok = c.bearer(ctx, true)
	if !ok {
		c.log.Warn("orchestrator call skipped after 401, refresh failed", zap.String("path", path))
		return nil, 0, nil
	}
	return c.send(ctx, method, path, raw, token)
}

func (c *Client) send(ctx context.Context, method, path string, raw []byte, token string) ([]byte, int, error) {
	var rd io.Reader
	if raw != nil {
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// bearer returns a usable token. Without credentials the contract is open
// and an empty token is fine. With credentials, a cached token is reused
// until a minute before expiry; refresh runs under the lock so concurrent
// callers never race on redundant token requests.
func (c *Client) bearer(ctx context.Context, force bool) (string, bool) {
	if c.keyID == "" || c.secret == "" {
		return "", true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSlack)) {
		return c.token, true
	}

	payload, _ := json.Marshal(map[string]string{"keyId": c.keyID, "keySecret": c.secret})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/token", bytes.NewReader(payload))
	if err != nil {
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("token exchange failed", zap.Error(err))
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("token exchange rejected", zap.Int("status", resp.StatusCode))
		return "", false
	}

	var out struct {
		Token      string `json:"token"`
		ExpiryTime int64  `json:"expiryTime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Token == "" {
		c.log.Warn("token response malformed", zap.Error(err))
		return "", false
	}

	c.token = out.Token
	if out.ExpiryTime > 0 {
		c.tokenExpiry = time.UnixMilli(out.ExpiryTime)
	} else {
		c.tokenExpiry = time.Now().Add(time.Hour)
	}
	return c.token, true
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}
