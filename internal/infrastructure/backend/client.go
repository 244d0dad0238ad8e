package backend

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

	"github.com/prometheus/client_golang/prometheus"

	"damage-portal/internal/domain/entity"
	"damage-portal/internal/domain/port"
	"damage-portal/internal/metrics"
	"damage-portal/internal/report"
)

const (
	opImages   = "images"
	opPredict  = "predict"
	opAnalysis = "damage-analysis"
	opChat     = "chat"
)

// Client HTTP-клиент бэкенда распознавания и анализа повреждений.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ port.ImageSource    = (*Client)(nil)
	_ port.Predictor      = (*Client)(nil)
	_ port.DamageAnalyzer = (*Client)(nil)
	_ port.ChatService    = (*Client)(nil)
)

// NewClient создаёт клиент с таймаутом на запрос.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type imagesResponse struct {
	Images []string `json:"images"`
}

// ListImages возвращает идентификаторы изображений.
func (c *Client) ListImages(ctx context.Context) ([]string, error) {
	var resp imagesResponse
	if err := c.doJSON(ctx, opImages, http.MethodGet, "/images", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Images, nil
}

// FetchImage скачивает изображение по идентификатору.
func (c *Client) FetchImage(ctx context.Context, name string) ([]byte, error) {
	body, err := c.do(ctx, opImages, http.MethodGet, "/images/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("image %q is empty", name)
	}
	return body, nil
}

// Predict запускает детекцию для изображения.
func (c *Client) Predict(ctx context.Context, imageName string, task entity.Task) (*entity.PredictionResult, error) {
	q := url.Values{}
	q.Set("task", string(task))
	q.Set("image_name", imageName)

	var res entity.PredictionResult
	if err := c.doJSON(ctx, opPredict, http.MethodPost, "/predict?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type analysisRequest struct {
	ImageName string   `json:"image_name"`
	Parts     []string `json:"parts"`
}

// Analyze запрашивает отчёт о повреждениях для найденных деталей.
func (c *Client) Analyze(ctx context.Context, imageName string, parts []string) (*entity.CanonicalReport, error) {
	if parts == nil {
		parts = []string{}
	}
	payload, err := json.Marshal(analysisRequest{ImageName: imageName, Parts: parts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	body, err := c.do(ctx, opAnalysis, http.MethodPost, "/damage-analysis", payload)
	if err != nil {
		return nil, err
	}
	rep, err := report.Parse(body)
	if err != nil {
		return nil, &entity.ServiceError{Op: opAnalysis}
	}
	return rep, nil
}

type chatRequest struct {
	ImageName string               `json:"image_name"`
	Report    reportPayload        `json:"report"`
	Messages  []entity.ChatMessage `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Reply отправляет историю диалога вместе с отчётом.
func (c *Client) Reply(ctx context.Context, req port.ChatRequest) (string, error) {
	if req.Report == nil {
		return "", entity.ErrNoReport
	}
	payload, err := json.Marshal(chatRequest{
		ImageName: req.ImageName,
		Report:    newReportPayload(req.Report),
		Messages:  req.Messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	body, err := c.do(ctx, opChat, http.MethodPost, "/chat", payload)
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil || strings.TrimSpace(resp.Reply) == "" {
		return "", &entity.ServiceError{Op: opChat}
	}
	return resp.Reply, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload []byte, out any) error {
	body, err := c.do(ctx, op, method, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &entity.ServiceError{Op: op}
	}
	return nil
}

// do выполняет запрос; не-2xx превращается в ServiceError с detail из ответа.
func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	timer := prometheus.NewTimer(metrics.BackendDurationSeconds.WithLabelValues(op))
	defer timer.ObserveDuration()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &entity.ServiceError{Op: op}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &entity.ServiceError{Op: op, Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &entity.ServiceError{Op: op, Status: resp.StatusCode, Detail: errorDetail(body)}
	}
	return body, nil
}

// errorDetail достаёт строковое поле detail из тела ошибки.
func errorDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if s, ok := payload.Detail.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
