package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Dim is the fixed dimensionality of the summary index. Vectors of any other
// length are truncated or zero-padded before storage; this normalization is
// lossy and intentional for index compatibility.
const Dim = 1024

// PineconeIndex is a REST client for a single Pinecone serverless index.
type PineconeIndex struct {
	HTTPClient *http.Client
	APIKey     string
	Host       string
}

// Match is one query result.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type upsertVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors []upsertVector `json:"vectors"`
}

type queryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	IncludeMetadata bool           `json:"includeMetadata"`
	Filter          map[string]any `json:"filter,omitempty"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

func NewPineconeIndex(apiKey, host string) *PineconeIndex {
	return &PineconeIndex{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		APIKey:     apiKey,
		Host:       host,
	}
}

// NormalizeDim forces a vector to exactly Dim entries, truncating long
// vectors and zero-padding short ones.
func NormalizeDim(values []float32) []float32 {
	if len(values) == Dim {
		return values
	}
	out := make([]float32, Dim)
	copy(out, values)
	return out
}

// Upsert stores one vector with metadata. The vector is normalized to Dim.
func (p *PineconeIndex) Upsert(ctx context.Context, id string, values []float32, metadata map[string]any) error {
	body := upsertRequest{Vectors: []upsertVector{{ID: id, Values: NormalizeDim(values), Metadata: metadata}}}
	var out json.RawMessage
	return p.post(ctx, "/vectors/upsert", body, &out)
}

// Query returns the topK nearest matches with metadata. The query vector is
// normalized to Dim so it matches what was stored.
func (p *PineconeIndex) Query(ctx context.Context, values []float32, topK int, filter map[string]any) ([]Match, error) {
	body := queryRequest{Vector: NormalizeDim(values), TopK: topK, IncludeMetadata: true, Filter: filter}
	var out queryResponse
	if err := p.post(ctx, "/query", body, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

func (p *PineconeIndex) post(ctx context.Context, path string, body, out any) error {
	if p.APIKey == "" {
		return fmt.Errorf("pinecone api key missing")
	}
	if p.Host == "" {
		return fmt.Errorf("pinecone index host missing")
	}
	reqBody, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://"+p.Host+path, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pinecone error: status=%d body=%s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
