package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/schemacat/schemacat/internal/descriptor"
	"github.com/schemacat/schemacat/internal/tree"
)

const (
	// DefaultCallTimeout bounds every individual remote call.
	DefaultCallTimeout = 10 * time.Second

	apiKeyHeader = "X-Api-Key"
)

// ClientConfig holds the REST client settings.
type ClientConfig struct {
	// BaseURL is the collection store API root, without trailing slash.
	BaseURL string
	// APIKey authenticates every call via the X-Api-Key header.
	APIKey string
	// CollectionID addresses the collection being synchronized.
	CollectionID string
	// CallTimeout bounds each call; zero means DefaultCallTimeout.
	CallTimeout time.Duration
}

// Client is an HTTP Store implementation.
type Client struct {
	config ClientConfig
	http   *http.Client
}

// NewClient creates a REST client for the collection store.
func NewClient(config ClientConfig) *Client {
	if config.CallTimeout == 0 {
		config.CallTimeout = DefaultCallTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		config: config,
		http:   &http.Client{},
	}
}

// NewClientWithHTTP creates a client over an existing http.Client,
// used in tests.
func NewClientWithHTTP(config ClientConfig, httpClient *http.Client) *Client {
	c := NewClient(config)
	c.http = httpClient
	return c
}

// wireNode is the store's nested tree encoding.
type wireNode struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"` // "folder" or "request"
	Hash        string     `json:"hash,omitempty"`
	Verb        string     `json:"verb,omitempty"`
	Path        string     `json:"path,omitempty"`
	Body        string     `json:"body,omitempty"`
	Description string     `json:"description,omitempty"`
	Items       []wireNode `json:"items,omitempty"`
}

type createResponse struct {
	ID string `json:"id"`
}

// Ping implements Store.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodGet, c.collectionURL(""), nil)
	return err
}

// FetchTree implements Store.
func (c *Client) FetchTree(ctx context.Context) (*tree.Node, error) {
	data, err := c.call(ctx, http.MethodGet, c.collectionURL(""), nil)
	if err != nil {
		return nil, err
	}
	var root wireNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode remote tree: %w", err)
	}
	return decodeNode(root), nil
}

// decodeNode maps the wire encoding onto tree nodes, recomputing leaf
// hashes when the store did not persist them.
func decodeNode(w wireNode) *tree.Node {
	if w.Kind == "request" {
		hash := w.Hash
		if hash == "" {
			hash = descriptor.Hash(w.Verb, w.Path, w.Body)
		}
		return &tree.Node{
			Name: w.Name,
			Kind: tree.Leaf,
			Descriptor: &descriptor.Descriptor{
				Verb:         w.Verb,
				PathTemplate: w.Path,
				Description:  w.Description,
				ExampleBody:  w.Body,
				ContentHash:  hash,
			},
			RemoteID: w.ID,
		}
	}

	node := &tree.Node{Name: w.Name, Kind: tree.Folder, RemoteID: w.ID}
	for _, item := range w.Items {
		node.Children = append(node.Children, decodeNode(item))
	}
	return node
}

// CreateFolder implements Store.
func (c *Client) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	payload := map[string]string{"parent_id": parentID, "name": name}
	data, err := c.call(ctx, http.MethodPost, c.collectionURL("/folders"), payload)
	if err != nil {
		return "", err
	}
	var resp createResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode create-folder response: %w", err)
	}
	return resp.ID, nil
}

// CreateRequest implements Store.
func (c *Client) CreateRequest(ctx context.Context, parentID string, leaf *tree.Node) (string, error) {
	payload := encodeLeaf(leaf)
	payload["parent_id"] = parentID
	data, err := c.call(ctx, http.MethodPost, c.collectionURL("/requests"), payload)
	if err != nil {
		return "", err
	}
	var resp createResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode create-request response: %w", err)
	}
	return resp.ID, nil
}

// UpdateRequest implements Store.
func (c *Client) UpdateRequest(ctx context.Context, id string, leaf *tree.Node) error {
	_, err := c.call(ctx, http.MethodPut, c.config.BaseURL+"/requests/"+id, encodeLeaf(leaf))
	return err
}

// DeleteRequest implements Store.
func (c *Client) DeleteRequest(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, c.config.BaseURL+"/requests/"+id, nil)
	return err
}

// DeleteFolder implements Store.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	_, err := c.call(ctx, http.MethodDelete, c.config.BaseURL+"/folders/"+id, nil)
	return err
}

func encodeLeaf(leaf *tree.Node) map[string]string {
	d := leaf.Descriptor
	return map[string]string{
		"name":        leaf.Name,
		"verb":        d.Verb,
		"path":        d.PathTemplate,
		"body":        d.ExampleBody,
		"description": d.Description,
		"hash":        d.ContentHash,
	}
}

func (c *Client) collectionURL(suffix string) string {
	return c.config.BaseURL + "/collections/" + c.config.CollectionID + suffix
}

// call performs one HTTP round trip with the per-call timeout and
// classifies the response: 2xx returns the body, 429 and 5xx become
// *TransientError (429 honoring Retry-After), everything else becomes
// *APIError.
func (c *Client) call(ctx context.Context, method, url string, payload interface{}) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.CallTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if IsTransient(err) {
			return nil, &TransientError{Err: err}
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &TransientError{
			Status:     resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("rate limited by remote store"),
		}
	case resp.StatusCode >= 500:
		return nil, &TransientError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("remote store error: %s", strings.TrimSpace(string(data))),
		}
	default:
		return nil, &APIError{
			Status:  resp.StatusCode,
			Method:  method,
			URL:     url,
			Message: strings.TrimSpace(string(data)),
		}
	}
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
