package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/enriquebris/goconcurrentqueue"
	"github.com/tendermint/tendermint/libs/log"
)

// Notifier is the external alerting channel. Calls are fire-and-forget and
// must never affect the bonding outcome: failures here are logged and
// swallowed, never returned to the caller.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

type message struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	SentAt  int64  `json:"sent_at"`
}

// WebhookNotifier buffers messages on a FIFO queue and drains them to an
// HTTP webhook on a background goroutine, keeping delivery latency off the
// bonding critical path.
type WebhookNotifier struct {
	URL      string
	Token    string
	Logger   log.Logger
	messages goconcurrentqueue.Queue
	client   *http.Client
}

func NewWebhookNotifier(url string, token string, logger log.Logger) *WebhookNotifier {
	notifier := &WebhookNotifier{
		URL:      url,
		Token:    token,
		Logger:   logger,
		messages: goconcurrentqueue.NewFIFO(),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	go notifier.drain()
	return notifier
}

func (n *WebhookNotifier) Info(msg string) {
	n.enqueue("info", msg)
}

func (n *WebhookNotifier) Error(msg string) {
	n.enqueue("error", msg)
}

func (n *WebhookNotifier) enqueue(level string, msg string) {
	if err := n.messages.Enqueue(message{Level: level, Message: msg, SentAt: time.Now().Unix()}); err != nil {
		n.Logger.Error(fmt.Sprintf("notifier enqueue failed: %s", err.Error()))
	}
}

func (n *WebhookNotifier) drain() {
	for {
		item, err := n.messages.DequeueOrWaitForNextElement()
		if err != nil {
			time.Sleep(5 * time.Second)
			continue
		}
		msg, ok := item.(message)
		if !ok {
			continue
		}
		if n.URL == "" {
			n.Logger.Info(fmt.Sprintf("ALERT [%s]: %s", msg.Level, msg.Message))
			continue
		}
		n.post(msg)
	}
}

func (n *WebhookNotifier) post(msg message) {
	body, err := json.Marshal(msg)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		n.Logger.Error(fmt.Sprintf("notifier request build failed: %s", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if n.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.Token)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		n.Logger.Error(fmt.Sprintf("notifier delivery failed: %s", err.Error()))
		return
	}
	resp.Body.Close()
}

// NopNotifier discards all messages. Used in dry runs and tests.
type NopNotifier struct{}

func (NopNotifier) Info(msg string)  {}
func (NopNotifier) Error(msg string) {}
