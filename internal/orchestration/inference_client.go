package orchestration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/models"
)

// InferenceClientInterface is the subset of the inference service the session core depends on
type InferenceClientInterface interface {
	Health(ctx context.Context, timeout time.Duration) Outcome[models.HealthReport]
	ModelStatus(ctx context.Context) Outcome[models.StatusSnapshot]
	ChatbotReasoning(ctx context.Context, req models.ReasoningRequest) Outcome[models.ReasoningResponse]
}

// InferenceClient exposes the inference service endpoints as typed calls. Every method
// returns an Outcome; none of them return a bare error.
type InferenceClient struct {
	gw            *RequestGateway
	probeTimeout  time.Duration
	chatTimeout   time.Duration
	uploadTimeout time.Duration
	trainTimeout  time.Duration
}

// NewInferenceClient creates a typed client on top of gw
func NewInferenceClient(gw *RequestGateway, cfg config.ServiceConfig) *InferenceClient {
	return &InferenceClient{
		gw:            gw,
		probeTimeout:  cfg.ProbeTimeout,
		chatTimeout:   cfg.ChatTimeout,
		uploadTimeout: cfg.UploadTimeout,
		trainTimeout:  cfg.TrainTimeout,
	}
}

// Health probes GET /health. It bypasses the circuit breaker so reachability is always
// measured against the live service. A non-positive timeout uses the probe timeout.
func (c *InferenceClient) Health(ctx context.Context, timeout time.Duration) Outcome[models.HealthReport] {
	if timeout <= 0 {
		timeout = c.probeTimeout
	}
	return Invoke[models.HealthReport](ctx, c.gw, Call{
		Operation: "health",
		Method:    http.MethodGet,
		Endpoint:  "/health",
		Timeout:   timeout,
	})
}

// ModelStatus fetches GET /model/status
func (c *InferenceClient) ModelStatus(ctx context.Context) Outcome[models.StatusSnapshot] {
	return Invoke[models.StatusSnapshot](ctx, c.gw, Call{
		Operation:  "model_status",
		Method:     http.MethodGet,
		Endpoint:   "/model/status",
		UseBreaker: true,
	})
}

// ChatbotReasoning fetches the full step batch for one prompt
func (c *InferenceClient) ChatbotReasoning(ctx context.Context, req models.ReasoningRequest) Outcome[models.ReasoningResponse] {
	return Invoke[models.ReasoningResponse](ctx, c.gw, Call{
		Operation:  "chatbot_reasoning",
		Method:     http.MethodPost,
		Endpoint:   "/chatbot-reasoning",
		JSON:       req,
		Timeout:    c.chatTimeout,
		UseBreaker: true,
	})
}

// UploadFile sends one training file as multipart field "file"
func (c *InferenceClient) UploadFile(ctx context.Context, filename string, content io.Reader) Outcome[models.UploadedFile] {
	body, contentType, err := multipartBody(func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, content)
		return err
	})
	if err != nil {
		return failed[models.UploadedFile](OutcomeTransportError, 0, fmt.Sprintf("failed to encode upload: %v", err))
	}

	return Invoke[models.UploadedFile](ctx, c.gw, Call{
		Operation:   "upload",
		Method:      http.MethodPost,
		Endpoint:    "/upload",
		Body:        body,
		ContentType: contentType,
		Timeout:     c.uploadTimeout,
		UseBreaker:  true,
	})
}

// ListFiles fetches GET /files
func (c *InferenceClient) ListFiles(ctx context.Context) Outcome[models.FileList] {
	return Invoke[models.FileList](ctx, c.gw, Call{
		Operation:  "list_files",
		Method:     http.MethodGet,
		Endpoint:   "/files",
		UseBreaker: true,
	})
}

// DeleteFile removes an uploaded training file
func (c *InferenceClient) DeleteFile(ctx context.Context, filename string) Outcome[models.ServiceMessage] {
	return Invoke[models.ServiceMessage](ctx, c.gw, Call{
		Operation:  "delete_file",
		Method:     http.MethodDelete,
		Endpoint:   "/files/" + url.PathEscape(filename),
		UseBreaker: true,
	})
}

// Train starts training on previously uploaded files
func (c *InferenceClient) Train(ctx context.Context, files []string, cfg models.TrainingConfig) Outcome[models.TrainingResult] {
	body, contentType, err := multipartBody(func(w *multipart.Writer) error {
		for _, name := range files {
			if err := w.WriteField("files", name); err != nil {
				return err
			}
		}
		fields := [][2]string{
			{"max_patterns", strconv.Itoa(cfg.MaxPatterns)},
			{"max_pattern_length", strconv.Itoa(cfg.MaxPatternLength)},
			{"min_frequency", strconv.Itoa(cfg.MinFrequency)},
		}
		for _, f := range fields {
			if err := w.WriteField(f[0], f[1]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return failed[models.TrainingResult](OutcomeTransportError, 0, fmt.Sprintf("failed to encode training request: %v", err))
	}

	return Invoke[models.TrainingResult](ctx, c.gw, Call{
		Operation:   "train",
		Method:      http.MethodPost,
		Endpoint:    "/train",
		Body:        body,
		ContentType: contentType,
		Timeout:     c.trainTimeout,
		UseBreaker:  true,
	})
}

// Generate requests a plain generation without reasoning playback
func (c *InferenceClient) Generate(ctx context.Context, prompt string, maxLength int, temperature float64) Outcome[models.GenerationResult] {
	body, contentType, err := multipartBody(func(w *multipart.Writer) error {
		if err := w.WriteField("prompt", prompt); err != nil {
			return err
		}
		if err := w.WriteField("max_length", strconv.Itoa(maxLength)); err != nil {
			return err
		}
		return w.WriteField("temperature", strconv.FormatFloat(temperature, 'f', -1, 64))
	})
	if err != nil {
		return failed[models.GenerationResult](OutcomeTransportError, 0, fmt.Sprintf("failed to encode generation request: %v", err))
	}

	return Invoke[models.GenerationResult](ctx, c.gw, Call{
		Operation:   "generate",
		Method:      http.MethodPost,
		Endpoint:    "/generate",
		Body:        body,
		ContentType: contentType,
		Timeout:     c.chatTimeout,
		UseBreaker:  true,
	})
}

// Reset discards the trained model on the service
func (c *InferenceClient) Reset(ctx context.Context) Outcome[models.ServiceMessage] {
	return Invoke[models.ServiceMessage](ctx, c.gw, Call{
		Operation:  "reset",
		Method:     http.MethodPost,
		Endpoint:   "/reset",
		UseBreaker: true,
	})
}

// ListModels fetches GET /models
func (c *InferenceClient) ListModels(ctx context.Context) Outcome[models.ModelList] {
	return Invoke[models.ModelList](ctx, c.gw, Call{
		Operation:  "list_models",
		Method:     http.MethodGet,
		Endpoint:   "/models",
		UseBreaker: true,
	})
}

// SaveModel persists the current model under name
func (c *InferenceClient) SaveModel(ctx context.Context, name string) Outcome[models.SavedModel] {
	return Invoke[models.SavedModel](ctx, c.gw, Call{
		Operation:   "save_model",
		Method:      http.MethodPost,
		Endpoint:    "/models/save",
		Body:        []byte(url.Values{"model_name": {name}}.Encode()),
		ContentType: "application/x-www-form-urlencoded",
		Timeout:     c.uploadTimeout,
		UseBreaker:  true,
	})
}

// LoadModel replaces the active model with a saved one
func (c *InferenceClient) LoadModel(ctx context.Context, filename string) Outcome[models.ServiceMessage] {
	return Invoke[models.ServiceMessage](ctx, c.gw, Call{
		Operation:   "load_model",
		Method:      http.MethodPost,
		Endpoint:    "/models/load",
		Body:        []byte(url.Values{"model_filename": {filename}}.Encode()),
		ContentType: "application/x-www-form-urlencoded",
		Timeout:     c.uploadTimeout,
		UseBreaker:  true,
	})
}

// DeleteModel removes a saved model
func (c *InferenceClient) DeleteModel(ctx context.Context, filename string) Outcome[models.ServiceMessage] {
	return Invoke[models.ServiceMessage](ctx, c.gw, Call{
		Operation:  "delete_model",
		Method:     http.MethodDelete,
		Endpoint:   "/models/" + url.PathEscape(filename),
		UseBreaker: true,
	})
}

func multipartBody(write func(w *multipart.Writer) error) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := write(w); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
