package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/psds-microservice/work-buddy/internal/model"
	"github.com/rs/zerolog"
)

// Indexer is what the desk needs from search-service.
type Indexer interface {
	IndexRequestAsync(r model.Request)
}

// Client sends requests to search-service for indexing (best-effort, never blocks the API).
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient returns a client. With an empty baseURL IndexRequest is a no-op.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		log: log,
	}
}

// IndexTicketPayload is the body of POST /search/index/ticket.
type IndexTicketPayload struct {
	TicketID string `json:"ticket_id"`
	ClientID string `json:"client_id"`
	Subject  string `json:"subject"`
	Notes    string `json:"notes"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

func payloadFor(r model.Request) IndexTicketPayload {
	var notes strings.Builder
	notes.WriteString(r.Description)
	for _, m := range r.Messages {
		notes.WriteString("\n")
		notes.WriteString(m.Text)
	}
	return IndexTicketPayload{
		TicketID: r.ID,
		ClientID: r.UserID,
		Subject:  r.Title,
		Notes:    notes.String(),
		Status:   string(r.Status),
		Priority: string(r.Priority),
	}
}

func (c *Client) IndexRequest(ctx context.Context, r model.Request) error {
	if c.baseURL == "" {
		return nil
	}
	body, err := json.Marshal(payloadFor(r))
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/index/ticket", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d for request %s", resp.StatusCode, r.ID)
	}
	return nil
}

// IndexRequestAsync runs IndexRequest on its own goroutine.
func (c *Client) IndexRequestAsync(r model.Request) {
	if c.baseURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.IndexRequest(ctx, r); err != nil {
			c.log.Warn().Err(err).Str("request_id", r.ID).Msg("searchindex: index request")
		}
	}()
}
