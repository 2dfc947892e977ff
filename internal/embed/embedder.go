package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Kubana90/operator-996-cognitive-os/internal/logging"
)

// ═══════════════════════════════════════════════════════════════════════════════
// EMBEDDER INTERFACE
// ═══════════════════════════════════════════════════════════════════════════════

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// Dimension returns the embedding dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Available returns true if the embedder is ready to use. Callers
	// check this before embedding; false is a normal degraded state.
	Available() bool
}

// ═══════════════════════════════════════════════════════════════════════════════
// OLLAMA EMBEDDER
// ═══════════════════════════════════════════════════════════════════════════════

// DefaultModel is the default embedding model.
const DefaultModel = "nomic-embed-text"

// DefaultHost is the default Ollama API endpoint.
const DefaultHost = "http://127.0.0.1:11434"

// OllamaEmbedder generates embeddings using Ollama's local models.
type OllamaEmbedder struct {
	host      string
	model     string
	dimension int
	client    *http.Client
	log       *logging.Logger

	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration

	available     bool
	availableMu   sync.RWMutex
	lastCheck     time.Time
	checkInterval time.Duration

	cache *embeddingCache
}

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	Host          string        // Ollama API host (default: http://127.0.0.1:11434)
	Model         string        // Embedding model (default: nomic-embed-text)
	Timeout       time.Duration // HTTP request timeout (default: 30s)
	MaxRetries    int           // Number of retries on failure (default: 1)
	RetryDelay    time.Duration // Delay between retries (default: 2s)
	CheckInterval time.Duration // How often to re-check availability (default: 5m)
	CacheSize     int           // Max cached embeddings, 0 disables (default: 1000)
}

// NewOllamaEmbedder creates a new Ollama-based embedder and probes the
// backend once for availability.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	if cfg == nil {
		cfg = &OllamaConfig{}
	}

	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 1
	}

	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = 2 * time.Second
	}

	checkInterval := cfg.CheckInterval
	if checkInterval == 0 {
		checkInterval = 5 * time.Minute
	}

	cacheSize := cfg.CacheSize
	if cacheSize == 0 {
		cacheSize = 1000
	}
	var cache *embeddingCache
	if cacheSize > 0 {
		cache = newEmbeddingCache(cacheSize)
	}

	e := &OllamaEmbedder{
		host:      host,
		model:     model,
		dimension: DefaultDim,
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: timeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
			},
		},
		log:           logging.Global().WithComponent("embedder"),
		timeout:       timeout,
		maxRetries:    maxRetries,
		retryDelay:    retryDelay,
		checkInterval: checkInterval,
		cache:         cache,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if e.checkAvailability(ctx) {
		e.available = true
		e.log.Info("Model %s available at %s", model, host)
	} else {
		e.log.Warn("Embedding backend unavailable; semantic search degrades gracefully")
	}

	return e
}

// Embed generates an embedding for a single text.
// Implements retry logic for transient failures.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) (Embedding, error) {
	if !e.Available() {
		return nil, fmt.Errorf("embedder not available")
	}

	if e.cache != nil {
		if cached := e.cache.get(text); cached != nil {
			return cached, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			e.log.Info("Retry attempt %d/%d after error: %v", attempt, e.maxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			case <-time.After(e.retryDelay):
			}
		}

		embedding, err := e.doEmbedRequest(ctx, text)
		if err == nil {
			if e.cache != nil {
				e.cache.put(text, embedding)
			}
			return embedding, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	return nil, lastErr
}

// doEmbedRequest performs the actual HTTP request to Ollama.
func (e *OllamaEmbedder) doEmbedRequest(ctx context.Context, text string) (Embedding, error) {
	reqBody := map[string]interface{}{
		"model":  e.model,
		"prompt": text,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.host+"/api/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		// Backend went away; will be re-probed after checkInterval
		e.setAvailable(false)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	embedding := make(Embedding, len(result.Embedding))
	for i, v := range result.Embedding {
		embedding[i] = float32(v)
	}

	if len(embedding) > 0 && e.dimension != len(embedding) {
		e.dimension = len(embedding)
	}

	return embedding, nil
}

// Dimension returns the embedding dimension.
func (e *OllamaEmbedder) Dimension() int {
	return e.dimension
}

// ModelName returns the name of the embedding model.
func (e *OllamaEmbedder) ModelName() string {
	return e.model
}

// Available returns true if the embedder is ready to use. An unavailable
// backend is re-probed at most once per check interval.
func (e *OllamaEmbedder) Available() bool {
	e.availableMu.RLock()
	available := e.available
	lastCheck := e.lastCheck
	e.availableMu.RUnlock()

	if !available && time.Since(lastCheck) > e.checkInterval {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if e.checkAvailability(ctx) {
			e.setAvailable(true)
			return true
		}
		e.setAvailable(false)
	}

	return available
}

func (e *OllamaEmbedder) setAvailable(available bool) {
	e.availableMu.Lock()
	e.available = available
	e.lastCheck = time.Now()
	e.availableMu.Unlock()
}

// checkAvailability checks if Ollama is running and the model is present.
func (e *OllamaEmbedder) checkAvailability(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", e.host+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	for _, m := range result.Models {
		// Handle both "nomic-embed-text" and "nomic-embed-text:latest"
		if m.Name == e.model || strings.HasPrefix(m.Name, e.model+":") {
			return true
		}
	}

	return false
}

// isRetryableError determines if an error should trigger a retry.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF")
}
