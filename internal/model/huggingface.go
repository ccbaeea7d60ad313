package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxResponseBytes = 1 << 20

// HuggingFace calls a Hugging Face inference endpoint serving a
// summarization model.
type HuggingFace struct {
	endpoint string
	token    string
	client   *http.Client
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxLength           int   `json:"max_length"`
	NumBeams            int   `json:"num_beams"`
	EarlyStopping       bool  `json:"early_stopping"`
	GlobalAttentionMask []int `json:"global_attention_mask,omitempty"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type hfResult struct {
	SummaryText   string `json:"summary_text"`
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

// NewHuggingFace targets baseURL/modelID. A nil client uses a plain
// http.Client with no timeout.
func NewHuggingFace(baseURL, modelID, token string, client *http.Client) (*HuggingFace, error) {
	if modelID == "" {
		return nil, fmt.Errorf("model id required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid inference url %q", baseURL)
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HuggingFace{
		endpoint: strings.TrimRight(baseURL, "/") + "/" + modelID,
		token:    token,
		client:   client,
	}, nil
}

func (h *HuggingFace) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	body, err := json.Marshal(hfRequest{
		Inputs: req.Text,
		Parameters: hfParameters{
			MaxLength:           req.MaxOutputTokens,
			NumBeams:            req.NumBeams,
			EarlyStopping:       req.EarlyStopping,
			GlobalAttentionMask: req.GlobalAttentionMask,
		},
		Options: hfOptions{WaitForModel: true, UseCache: false},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("huggingface: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("huggingface: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr hfError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("huggingface: status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("huggingface: status %d", resp.StatusCode)
	}

	var results []hfResult
	if err := json.Unmarshal(data, &results); err != nil {
		return "", fmt.Errorf("huggingface: decode response: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("huggingface: no results returned")
	}
	if results[0].SummaryText != "" {
		return results[0].SummaryText, nil
	}
	return results[0].GeneratedText, nil
}
