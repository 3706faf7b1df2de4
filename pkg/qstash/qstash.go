package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	URL             string        `split_words:"true"`
	Token           string        `split_words:"true"`
	EscalationTopic string        `split_words:"true" default:"support-escalations"`
	Timeout         time.Duration `split_words:"true" default:"10s"`
}

// Enabled reports whether both the endpoint and the token are set.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Token) != ""
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("qstash url is required")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("qstash token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	return client, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Publish sends event as a JSON message to the topic, a URL group or a
// destination URL.
func (c *Client) Publish(ctx context.Context, topic string, event any) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("qstash topic is required")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal qstash event: %w", err)
	}

	endpoint := c.baseURL + "/v2/publish/" + topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build qstash request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("publish to qstash topic=%s: %w", topic, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("publish to qstash topic=%s: status=%d body=%s", topic, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
