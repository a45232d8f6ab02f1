package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"dirmetrics/src/config"
	"dirmetrics/src/model"
	"dirmetrics/src/util"
)

// AnalyzeRequest is the body sent to the remote analysis service
type AnalyzeRequest struct {
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// RemoteAnalyzer posts file contents to an HTTP analysis service
type RemoteAnalyzer struct {
	baseURL    string
	httpClient *http.Client
	retryConf  config.RetryConfig
}

// NewRemoteAnalyzer creates a new remote analyzer client
func NewRemoteAnalyzer(cfg config.RemoteAnalyzerConfig) *RemoteAnalyzer {
	return &RemoteAnalyzer{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retryConf: cfg.Retry,
	}
}

// Name returns the backend name
func (c *RemoteAnalyzer) Name() string {
	return "remote"
}

// Analyze uploads absPath and returns the service's analysis
func (c *RemoteAnalyzer) Analyze(ctx context.Context, absPath string) (*FileAnalysis, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", absPath, err)
	}

	req := AnalyzeRequest{
		FilePath: absPath,
		FileName: filepath.Base(absPath),
		Language: model.LanguageForPath(absPath),
		Content:  string(content),
	}

	var resp FileAnalysis
	if err := c.post(ctx, "/api/v1/analyze", req, &resp); err != nil {
		util.Debug("Remote analysis failed for %s: %v", absPath, err)
		return nil, err
	}

	if resp.Metrics.FunctionCount == 0 && len(resp.Functions) > 0 {
		resp.Metrics = Summarize(resp.Functions)
	}
	return &resp, nil
}

func (c *RemoteAnalyzer) post(ctx context.Context, path string, body any, result any) error {
	var lastErr error

	for attempt := 0; attempt <= c.retryConf.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			util.Warn("Retrying request to %s (attempt %d/%d) after %v", path, attempt+1, c.retryConf.MaxAttempts+1, delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.doPost(ctx, path, body, result)
		if err == nil {
			return nil
		}

		lastErr = err
		if !c.shouldRetry(err) {
			break
		}
	}

	return lastErr
}

func (c *RemoteAnalyzer) doPost(ctx context.Context, path string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func (c *RemoteAnalyzer) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryConf.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= c.retryConf.BackoffFactor
	}
	if c.retryConf.MaxDelay > 0 && delay > float64(c.retryConf.MaxDelay) {
		delay = float64(c.retryConf.MaxDelay)
	}
	return time.Duration(delay)
}

func (c *RemoteAnalyzer) shouldRetry(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		for _, code := range c.retryConf.RetryOnStatus {
			if apiErr.StatusCode == code {
				return true
			}
		}
	}
	return false
}

// APIError represents an error response from the analysis service
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("analysis service error (status %d): %s", e.StatusCode, e.Body)
}
