package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/autocrm-backend/internal/platform/ctxutil"
	"github.com/yungbote/autocrm-backend/internal/platform/logger"
	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

const (
	payloadNamespaceKey = "_crm_namespace"
	payloadVectorIDKey  = "_crm_vector_id"
	maxErrorBodyBytes   = 1024
	scrollPageSize      = 256
)

var pointIDNamespaceUUID = uuid.MustParse("6b0f3c52-8d8e-4c1f-9a43-2f1d0c7be5a1")

type vectorStore struct {
	log       *logger.Logger
	cfg       Config
	baseURL   string
	namespace string
	distance  string
	http      *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type qdrantPoint struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// NewVectorStore verifies the collection is reachable and has the configured dimension.
func NewVectorStore(ctx context.Context, log *logger.Logger, cfg Config) (vectorindex.Index, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg, true); err != nil {
		return nil, err
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	s := &vectorStore{
		log:       log.With("service", "QdrantVectorStore"),
		cfg:       cfg,
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		namespace: qualifyNamespace(cfg.NamespacePrefix, cfg.Namespace),
		http:      hc,
	}
	if err := s.verifyReady(ctx); err != nil {
		return nil, err
	}

	log.Info("Qdrant vector store selected",
		"url", s.baseURL,
		"collection", cfg.Collection,
		"namespace", s.namespace,
		"vector_dim", cfg.VectorDim,
		"distance", s.distance,
	)
	return s, nil
}

func (s *vectorStore) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	const op = "upsert"
	if len(entries) == 0 {
		return nil
	}
	points := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		vectorID := strings.TrimSpace(e.ID)
		if vectorID == "" {
			return opErr(op, OperationErrorValidation, "vector id is required", nil)
		}
		if len(e.Values) != s.cfg.VectorDim {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("vector %q dimension mismatch: expected=%d got=%d", vectorID, s.cfg.VectorDim, len(e.Values)), nil)
		}
		payload := clonePayload(e.Metadata)
		payload[payloadNamespaceKey] = s.namespace
		payload[payloadVectorIDKey] = vectorID
		points = append(points, map[string]any{
			"id":      s.pointID(vectorID),
			"vector":  e.Values,
			"payload": payload,
		})
	}
	return s.doJSON(ctx, op, http.MethodPut, s.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil)
}

func (s *vectorStore) Query(ctx context.Context, vector []float32, topK int) ([]vectorindex.Match, error) {
	const op = "query"
	if topK <= 0 {
		return []vectorindex.Match{}, nil
	}
	if len(vector) != s.cfg.VectorDim {
		return nil, opErr(op, OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", s.cfg.VectorDim, len(vector)), nil)
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
		"filter":       s.namespaceFilter(),
	}
	var raw []qdrantPoint
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/search"), req, &raw); err != nil {
		return nil, err
	}

	out := make([]vectorindex.Match, 0, len(raw))
	for _, item := range raw {
		id := extractVectorID(item)
		if id == "" {
			continue
		}
		out = append(out, vectorindex.Match{
			ID:       id,
			Score:    s.normalizeScore(item.Score),
			Metadata: publicPayload(item.Payload),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, ids []string) error {
	const op = "delete"
	pointIDs := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		vectorID := strings.TrimSpace(id)
		if vectorID == "" {
			continue
		}
		pointID := s.pointID(vectorID)
		if _, exists := seen[pointID]; exists {
			continue
		}
		seen[pointID] = struct{}{}
		pointIDs = append(pointIDs, pointID)
	}
	if len(pointIDs) == 0 {
		return nil
	}
	return s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/delete?wait=true"), map[string]any{"points": pointIDs}, nil)
}

// DeleteAll removes every point in this store's namespace; other namespaces sharing the collection are untouched.
func (s *vectorStore) DeleteAll(ctx context.Context) error {
	return s.doJSON(ctx, "delete_all", http.MethodPost, s.collectionPath("/points/delete?wait=true"),
		map[string]any{"filter": s.namespaceFilter()}, nil)
}

func (s *vectorStore) ListIDs(ctx context.Context) ([]string, error) {
	const op = "list"
	var (
		ids    []string
		offset any
	)
	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": []string{payloadVectorIDKey},
			"with_vector":  false,
			"filter":       s.namespaceFilter(),
		}
		if offset != nil {
			req["offset"] = offset
		}
		var page struct {
			Points         []qdrantPoint `json:"points"`
			NextPageOffset any           `json:"next_page_offset"`
		}
		if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath("/points/scroll"), req, &page); err != nil {
			return nil, err
		}
		for _, p := range page.Points {
			if id := extractVectorID(p); id != "" {
				ids = append(ids, id)
			}
		}
		if page.NextPageOffset == nil || len(page.Points) == 0 {
			break
		}
		offset = page.NextPageOffset
	}
	return ids, nil
}

func (s *vectorStore) Stats(ctx context.Context) (vectorindex.Stats, error) {
	var res struct {
		Count int64 `json:"count"`
	}
	req := map[string]any{"exact": true, "filter": s.namespaceFilter()}
	if err := s.doJSON(ctx, "count", http.MethodPost, s.collectionPath("/points/count"), req, &res); err != nil {
		return vectorindex.Stats{}, err
	}
	return vectorindex.Stats{TotalRecordCount: res.Count, Dimension: s.cfg.VectorDim}, nil
}

func (s *vectorStore) verifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"

	readyReq, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	s.authorize(readyReq)
	readyResp, err := s.http.Do(readyReq)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = readyResp.Body.Close()
	if readyResp.StatusCode < 200 || readyResp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: readyResp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", readyResp.StatusCode),
		}
	}

	var result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	if err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(""), nil, &result); err != nil {
		return err
	}
	size := result.Config.Params.Vectors.Size
	if size != 0 && size != s.cfg.VectorDim {
		return &OperationError{
			Code:      OperationErrorValidation,
			Operation: op,
			Message:   fmt.Sprintf("qdrant collection %q vector size mismatch: expected=%d actual=%d", s.cfg.Collection, s.cfg.VectorDim, size),
		}
	}
	s.distance = strings.TrimSpace(result.Config.Params.Vectors.Distance)
	return nil
}

func (s *vectorStore) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}
	if out == nil || len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func (s *vectorStore) authorize(req *http.Request) {
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}
}

func classifyHTTPCallError(op, message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}
	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}
	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil && strings.TrimSpace(statusObject.Error) != "" {
		return strings.TrimSpace(statusObject.Error)
	}
	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func clonePayload(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+2)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// publicPayload strips the adapter's bookkeeping keys.
func publicPayload(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if k == payloadNamespaceKey || k == payloadVectorIDKey {
			continue
		}
		out[k] = v
	}
	return out
}

func qualifyNamespace(prefix, ns string) string {
	prefix = strings.TrimSpace(prefix)
	ns = strings.TrimSpace(ns)
	switch {
	case prefix == "":
		return ns
	case ns == "":
		return prefix
	default:
		return prefix + ":" + ns
	}
}

func (s *vectorStore) namespaceFilter() map[string]any {
	return map[string]any{
		"must": []any{
			map[string]any{"key": payloadNamespaceKey, "match": map[string]any{"value": s.namespace}},
		},
	}
}

func (s *vectorStore) pointID(vectorID string) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(s.namespace+"|"+vectorID)).String()
}

func (s *vectorStore) collectionPath(suffix string) string {
	return "/collections/" + s.cfg.Collection + suffix
}

func extractVectorID(item qdrantPoint) string {
	if payloadID, ok := item.Payload[payloadVectorIDKey].(string); ok {
		if id := strings.TrimSpace(payloadID); id != "" {
			return id
		}
	}
	return decodePointID(item.ID)
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}

func (s *vectorStore) normalizeScore(score float64) float64 {
	switch strings.ToLower(s.distance) {
	case "euclid", "manhattan":
		if score < 0 {
			score = -score
		}
		return 1.0 / (1.0 + score)
	default:
		return score
	}
}
