package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/autocrm-backend/internal/platform/ctxutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
)

type Client interface {
	DescribeIndex(ctx context.Context, indexName string) (*IndexDescription, error)
	DescribeIndexStats(ctx context.Context, host string) (*IndexStats, error)
	UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error)
	Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error)
	DeleteVectors(ctx context.Context, host string, req DeleteRequest) error
	ListVectorIDs(ctx context.Context, host string, req ListRequest) (*ListResponse, error)
}

type Config struct {
	APIKey     string
	APIVersion string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Pinecone API key")
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = "2025-10"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &client{
		log:  log.With("client", "PineconeClient"),
		cfg:  cfg,
		http: hc,
	}, nil
}

// HTTPError is a non-2xx answer from Pinecone.
type HTTPError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("pinecone %s http %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

// -------------------- Control plane --------------------

type IndexDescription struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

func (c *client) DescribeIndex(ctx context.Context, indexName string) (*IndexDescription, error) {
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		return nil, fmt.Errorf("indexName required")
	}
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/indexes/" + url.PathEscape(indexName)
	out, err := doJSON[IndexDescription](c, ctx, "describe_index", http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Host) == "" {
		return nil, fmt.Errorf("pinecone describe_index returned empty host")
	}
	return out, nil
}

// -------------------- Data plane --------------------

type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type UpsertRequest struct {
	Vectors   []Vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type UpsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount"`
}

func (c *client) UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error) {
	if len(req.Vectors) == 0 {
		return &UpsertResponse{}, nil
	}
	u, err := dataURL(host, "/vectors/upsert")
	if err != nil {
		return nil, err
	}
	return doJSON[UpsertResponse](c, ctx, "upsert", http.MethodPost, u, req)
}

type QueryRequest struct {
	Namespace       string         `json:"namespace,omitempty"`
	Vector          []float32      `json:"vector,omitempty"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeValues   bool           `json:"includeValues,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata,omitempty"`
}

type QueryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type QueryResponse struct {
	Matches []QueryMatch `json:"matches"`
}

func (c *client) Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error) {
	if req.TopK <= 0 {
		req.TopK = 10
	}
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	u, err := dataURL(host, "/query")
	if err != nil {
		return nil, err
	}
	return doJSON[QueryResponse](c, ctx, "query", http.MethodPost, u, req)
}

type DeleteRequest struct {
	IDs       []string `json:"ids,omitempty"`
	DeleteAll bool     `json:"deleteAll,omitempty"`
	Namespace string   `json:"namespace,omitempty"`
}

// DeleteVectors treats 404 as success: Pinecone answers 404 for a namespace that holds no vectors.
func (c *client) DeleteVectors(ctx context.Context, host string, req DeleteRequest) error {
	if !req.DeleteAll && len(req.IDs) == 0 {
		return nil
	}
	u, err := dataURL(host, "/vectors/delete")
	if err != nil {
		return err
	}
	_, err = doJSON[struct{}](c, ctx, "delete", http.MethodPost, u, req)
	if he, ok := err.(*HTTPError); ok && he.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

type ListRequest struct {
	Namespace       string
	Limit           int
	PaginationToken string
}

type ListResponse struct {
	Vectors []struct {
		ID string `json:"id"`
	} `json:"vectors"`
	Pagination *struct {
		Next string `json:"next"`
	} `json:"pagination,omitempty"`
}

func (c *client) ListVectorIDs(ctx context.Context, host string, req ListRequest) (*ListResponse, error) {
	u, err := dataURL(host, "/vectors/list")
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	if req.Namespace != "" {
		q.Set("namespace", req.Namespace)
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprint(req.Limit))
	}
	if req.PaginationToken != "" {
		q.Set("paginationToken", req.PaginationToken)
	}
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return doJSON[ListResponse](c, ctx, "list", http.MethodGet, u, nil)
}

type NamespaceStats struct {
	VectorCount int64 `json:"vectorCount"`
}

type IndexStats struct {
	Namespaces       map[string]NamespaceStats `json:"namespaces"`
	Dimension        int                       `json:"dimension"`
	TotalVectorCount int64                     `json:"totalVectorCount"`
}

func (c *client) DescribeIndexStats(ctx context.Context, host string) (*IndexStats, error) {
	u, err := dataURL(host, "/describe_index_stats")
	if err != nil {
		return nil, err
	}
	return doJSON[IndexStats](c, ctx, "describe_index_stats", http.MethodPost, u, map[string]any{})
}

// -------------------- helpers --------------------

// dataURL accepts a bare index host (as returned by describe_index) or a full base URL.
func dataURL(host, path string) (string, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return "", fmt.Errorf("host required")
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host + path, nil
}

func doJSON[T any](c *client, ctx context.Context, op, method, url string, body any) (*T, error) {
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Pinecone-Api-Version", c.cfg.APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Operation: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out T
	if len(bytes.TrimSpace(raw)) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("pinecone %s decode error: %w", op, err)
	}
	return &out, nil
}
