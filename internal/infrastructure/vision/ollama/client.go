package ollama

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
	"github.com/kirillkom/equipment-intake/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithExecutor routes generate calls through retries and a circuit breaker.
func (c *Client) WithExecutor(executor *resilience.Executor) *Client {
	c.executor = executor
	return c
}

// NameplateReader asks a vision model to transcribe an equipment nameplate.
type NameplateReader struct {
	client *Client
}

func NewNameplateReader(client *Client) *NameplateReader {
	return &NameplateReader{client: client}
}

func (r *NameplateReader) ReadNameplate(
	ctx context.Context,
	equipmentType domain.EquipmentType,
	image []byte,
) (*domain.NameplateReading, error) {
	if len(image) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read nameplate", errors.New("image is empty"))
	}
	if !equipmentType.Valid() {
		return nil, domain.WrapError(domain.ErrUnsupportedEquipmentType, "read nameplate", errors.New(string(equipmentType)))
	}

	reqBody := map[string]any{
		"model":   r.client.model,
		"prompt":  buildNameplatePrompt(equipmentType),
		"images":  []string{base64.StdEncoding.EncodeToString(image)},
		"stream":  false,
		"format":  "json",
		"options": map[string]any{"temperature": 0.1},
	}
	respText, err := r.client.generate(ctx, reqBody)
	if err != nil {
		return nil, err
	}
	return parseReading(respText)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	call := func(ctx context.Context) (string, error) {
		var response struct {
			Response string `json:"response"`
		}
		if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
			return "", err
		}
		return strings.TrimSpace(response.Response), nil
	}

	if c.executor == nil {
		out, err := call(ctx)
		return out, wrapTemporaryIfNeeded("ollama generate", err)
	}
	out, err := resilience.Do(ctx, c.executor, "ollama.generate", call, classifyOllamaError)
	return out, wrapTemporaryIfNeeded("ollama generate", err)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
