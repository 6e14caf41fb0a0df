package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jogcadence/internal/db"
)

const (
	defaultPingTimeout = 2 * time.Second
	defaultSendTimeout = 10 * time.Second
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sender 是快照的传输通道
type Sender interface {
	Reachable(ctx context.Context) bool
	Send(ctx context.Context, snapshot Snapshot) error
}

// SyncRecorder 记录推送成功的时间
type SyncRecorder interface {
	MarkSynced(ctx context.Context, at time.Time) error
}

// HTTPChannel 通过 HTTP 把快照推送到手表端配套服务
// 推送前先 GET /ping 探测可达性，不可达时直接放弃，不做重试
type HTTPChannel struct {
	http        httpDoer
	baseURL     string
	pingTimeout time.Duration
}

// NewHTTPChannel 构造 HTTPChannel；baseURL 为空时通道始终不可达
func NewHTTPChannel(baseURL string) *HTTPChannel {
	return &HTTPChannel{
		http:        &http.Client{Timeout: defaultSendTimeout},
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		pingTimeout: defaultPingTimeout,
	}
}

// SetHTTPClient 替换 HTTP 客户端，主要面向测试场景。
func (c *HTTPChannel) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: defaultSendTimeout}
		return
	}
	c.http = client
}

// Reachable 探测手表端是否在线
func (c *HTTPChannel) Reachable(ctx context.Context) bool {
	if c.baseURL == "" {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pingCtx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	return resp.StatusCode < 400
}

// Send 推送一条快照
func (c *HTTPChannel) Send(ctx context.Context, snapshot Snapshot) error {
	if c.baseURL == "" {
		return fmt.Errorf("companion endpoint not configured")
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	LogPayload("send", string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/snapshot", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build companion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "jogcadence-sync/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if trimmed := strings.TrimSpace(string(msg)); trimmed != "" {
			return fmt.Errorf("companion returned %s (%s)", resp.Status, trimmed)
		}
		return fmt.Errorf("companion returned %s", resp.Status)
	}
	return nil
}

// Publisher 由单个后台协程按发布顺序推送快照，调用方不会被阻塞
// 手表端最后收到的总是最近一次发布的状态
type Publisher struct {
	sender   Sender
	recorder SyncRecorder
	now      func() time.Time

	mu      sync.Mutex
	queue   []Snapshot
	wake    chan struct{}
	start   sync.Once
	pending sync.WaitGroup
}

// NewPublisher 构造 Publisher；recorder 可以为 nil
func NewPublisher(sender Sender, recorder SyncRecorder) *Publisher {
	return &Publisher{
		sender:   sender,
		recorder: recorder,
		now:      time.Now,
		wake:     make(chan struct{}, 1),
	}
}

// Publish 把分段与目标的最新状态加入推送队列，失败只记录日志
func (p *Publisher) Publish(session db.Session, goal db.Goal) {
	if p == nil || p.sender == nil {
		return
	}

	snapshot := FromModels(session, goal, p.now().UTC())

	p.pending.Add(1)
	p.mu.Lock()
	p.queue = append(p.queue, snapshot)
	p.mu.Unlock()

	p.start.Do(func() { go p.run() })
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Wait 等待队列中的快照全部处理完
func (p *Publisher) Wait() {
	p.pending.Wait()
}

func (p *Publisher) run() {
	for range p.wake {
		for {
			snapshot, ok := p.next()
			if !ok {
				break
			}
			p.deliver(snapshot)
			p.pending.Done()
		}
	}
}

func (p *Publisher) next() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return Snapshot{}, false
	}
	snapshot := p.queue[0]
	p.queue = p.queue[1:]
	return snapshot, true
}

func (p *Publisher) deliver(snapshot Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultSendTimeout)
	defer cancel()

	if !p.sender.Reachable(ctx) {
		log.Printf("[sync] companion unreachable, snapshot for session %s dropped", snapshot.SessionToken)
		return
	}
	if err := p.sender.Send(ctx, snapshot); err != nil {
		log.Printf("[sync] push snapshot failed: %v", err)
		return
	}
	if p.recorder != nil {
		if err := p.recorder.MarkSynced(ctx, snapshot.SentAt); err != nil {
			log.Printf("[sync] record sync time failed: %v", err)
		}
	}
}
