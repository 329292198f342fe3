package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const defaultEndpoint = "https://www.google-analytics.com/mp/collect"

// Event names shared with the front-end.
const (
	EventTodoCreated   = "todo_created"
	EventTodoCompleted = "todo_completed"
	EventTodoUpdated   = "todo_updated"
	EventTodoDeleted   = "todo_deleted"
)

type Config struct {
	MeasurementID string
	APISecret     string
	Disabled      bool
	Debug         bool
}

// Client ships events to the GA4 Measurement Protocol. Tracking is fire
// and forget: it never blocks a request and its failures are invisible to
// callers.
type Client struct {
	config   Config
	clientID string
	endpoint string
	httpc    *http.Client
}

func New(config Config) *Client {
	return &Client{
		config:   config,
		clientID: uuid.NewString(),
		endpoint: defaultEndpoint,
		httpc:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) available() bool {
	return !c.config.Disabled && c.config.MeasurementID != "" && c.config.APISecret != ""
}

// Track records a named event with its parameters.
func (c *Client) Track(event string, params map[string]any) {
	if !c.available() {
		if c.config.Debug {
			log.Printf("[analytics] event (disabled): %s %v", event, params)
		}
		return
	}
	go c.send(event, params)
}

func (c *Client) send(event string, params map[string]any) {
	payload := map[string]any{
		"client_id": c.clientID,
		"events": []map[string]any{
			{"name": event, "params": params},
		},
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[analytics] marshal event %s: %v", event, err)
		return
	}

	endpoint := fmt.Sprintf("%s?measurement_id=%s&api_secret=%s",
		c.endpoint,
		url.QueryEscape(c.config.MeasurementID),
		url.QueryEscape(c.config.APISecret))
	resp, err := c.httpc.Post(endpoint, "application/json", bytes.NewReader(buf))
	if err != nil {
		log.Printf("[analytics] send event %s: %v", event, err)
		return
	}
	resp.Body.Close()

	if c.config.Debug {
		log.Printf("[analytics] event: %s %v (status %d)", event, params, resp.StatusCode)
	}
}
