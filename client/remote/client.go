// Package remote talks to the /imoveis REST collection. Every call issues
// exactly one request: there is no retry and no caching at this layer.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dcode-github/imovel_listing_system/logging"
	"github.com/dcode-github/imovel_listing_system/models"
)

const traceHeader = "X-Trace-ID"

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient targets the collection URL, e.g. http://localhost:8080/api/imoveis.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

func (c *Client) List(ctx context.Context) ([]models.Imovel, error) {
	var out []models.Imovel
	if err := c.do(ctx, "list", http.MethodGet, "", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Imovel{}
	}
	return out, nil
}

// missingID keeps an empty id from addressing the collection URL.
func missingID(op, id string) error {
	if id != "" {
		return nil
	}
	return &TransportError{Op: op, Status: http.StatusNotFound, Err: &NotFoundError{}}
}

func (c *Client) Get(ctx context.Context, id string) (models.Imovel, error) {
	if err := missingID("get", id); err != nil {
		return models.Imovel{}, err
	}
	var out models.Imovel
	if err := c.do(ctx, "get", http.MethodGet, id, nil, &out); err != nil {
		return models.Imovel{}, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, d models.Draft) (models.Imovel, error) {
	var out models.Imovel
	if err := c.do(ctx, "create", http.MethodPost, "", d, &out); err != nil {
		return models.Imovel{}, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, id string, p models.PatchImovel) (models.Imovel, error) {
	if err := missingID("update", id); err != nil {
		return models.Imovel{}, err
	}
	var out models.Imovel
	if err := c.do(ctx, "update", http.MethodPut, id, p, &out); err != nil {
		return models.Imovel{}, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if err := missingID("delete", id); err != nil {
		return err
	}
	return c.do(ctx, "delete", http.MethodDelete, id, nil, nil)
}

type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func (c *Client) do(ctx context.Context, op, method, id string, body, out any) error {
	target := c.baseURL
	if id != "" {
		target += "/" + url.PathEscape(id)
	}
	traceID := uuid.NewString()
	log := c.log.With("op", op, "trace_id", traceID)

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(traceHeader, traceID)

	log.Debug("Sending request", "method", method, "url", target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("Request failed", "error", err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		te := &TransportError{Op: op, Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			te.Message = eb.Message
			if te.Message == "" {
				te.Message = eb.Error
			}
			te.Fields = eb.Errors
		} else {
			te.Message = strings.TrimSpace(string(raw))
		}
		if resp.StatusCode == http.StatusNotFound {
			te.Err = &NotFoundError{ID: id}
		}
		log.Warn("Received error response", "status_code", resp.StatusCode, "message", te.Message)
		return te
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Warn("Failed to decode response", "error", err)
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	log.Debug("Request succeeded", "status_code", resp.StatusCode)
	return nil
}
