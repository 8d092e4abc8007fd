package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/lineup/core/model"
	"github.com/kilianp07/lineup/core/monitoring"
	"github.com/kilianp07/lineup/core/optimizer"
	"github.com/kilianp07/lineup/infra/logger"
)

// Optimizer answers lineup requests.
type Optimizer interface {
	Optimize(ctx context.Context, req model.Request) ([]model.Lineup, error)
}

// Reply is published on <response_prefix>/<request id>.
type Reply struct {
	RequestID string         `json:"request_id"`
	Lineups   []model.Lineup `json:"lineups,omitempty"`
	Error     string         `json:"error,omitempty"`
	Kind      string         `json:"kind,omitempty"`
}

// Transport subscribes to the request topic and publishes one reply per
// request. Requests are handled concurrently.
type Transport struct {
	cfg    Config
	cli    pahoClient
	opt    Optimizer
	logger logger.Logger

	mu     sync.Mutex // guards ctx cancellation against wg.Add
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTransport connects to the broker and subscribes to cfg.RequestTopic.
func NewTransport(cfg Config, opt Optimizer) (*Transport, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{cfg: cfg, opt: opt, logger: logger.New("mqtt_transport"), ctx: ctx, cancel: cancel}

	opts.OnConnect = func(c paho.Client) {
		t.logger.Infof("MQTT connected, subscribing to %s", cfg.RequestTopic)
		if token := c.Subscribe(cfg.RequestTopic, cfg.qos("request"), t.onRequest); token.Wait() && token.Error() != nil {
			t.logger.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		t.logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		t.logger.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		cancel()
		return nil, token.Error()
	}
	t.cli = c
	return t, nil
}

// Run blocks until ctx is done, then waits for in-flight requests and
// disconnects.
func (t *Transport) Run(ctx context.Context) error {
	<-ctx.Done()
	t.Close()
	return nil
}

// Close cancels in-flight requests and disconnects from the broker.
func (t *Transport) Close() {
	t.mu.Lock()
	t.cancel()
	t.mu.Unlock()
	t.wg.Wait()
	if t.cli != nil && t.cli.IsConnected() {
		t.cli.Disconnect(250)
	}
}

func (t *Transport) onRequest(_ paho.Client, msg paho.Message) {
	// Add must not race the Wait in Close.
	t.mu.Lock()
	if t.ctx.Err() != nil {
		t.mu.Unlock()
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()
	payload := append([]byte(nil), msg.Payload()...)
	go func() {
		defer t.wg.Done()
		defer monitoring.Recover()
		t.handle(msg.Topic(), payload)
	}()
}

// requestID takes the last level of the topic, or a fresh uuid when the
// topic carries none.
func requestID(topic string) string {
	if i := strings.LastIndex(topic, "/"); i >= 0 && i < len(topic)-1 {
		if id := topic[i+1:]; id != "+" && id != "#" {
			return id
		}
	}
	return uuid.NewString()
}

func (t *Transport) handle(topic string, payload []byte) {
	id := requestID(topic)
	reply := Reply{RequestID: id}

	var req model.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		reply.Error = fmt.Sprintf("decode request: %v", err)
		reply.Kind = "invalid_request"
	} else {
		ctx := optimizer.WithRequestInfo(t.ctx, optimizer.RequestInfo{ID: id, Source: "mqtt"})
		lineups, err := t.opt.Optimize(ctx, req)
		if err != nil {
			reply.Error = err.Error()
			reply.Kind = model.ErrorKind(err)
			if reply.Kind == "" && errors.Is(err, context.DeadlineExceeded) {
				reply.Kind = "timeout"
			}
		}
		reply.Lineups = lineups
	}
	if err := t.publish(t.cfg.ResponsePrefix+"/"+id, reply); err != nil {
		t.logger.Errorf("reply %s: %v", id, err)
		monitoring.CaptureException(err, map[string]string{"module": "mqtt", "request_id": id})
	}
}

func (t *Transport) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	backoff := time.Duration(t.cfg.BackoffMS) * time.Millisecond
	var publishErr error
	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		token := t.cli.Publish(topic, t.cfg.qos("response"), false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			t.logger.Debugf("published reply on %s", topic)
			return nil
		}
		t.logger.Warnf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < t.cfg.MaxRetries {
			time.Sleep(backoff * time.Duration(1<<attempt))
		}
	}
	return publishErr
}
