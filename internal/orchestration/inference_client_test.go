package orchestration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInferenceClient(t *testing.T, handler http.HandlerFunc) *InferenceClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := testServiceConfig(server.URL + "/api")
	return NewInferenceClient(NewRequestGateway(cfg, nil, nil), cfg)
}

func TestInferenceClient_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		client := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/health", r.URL.Path)
			w.Write([]byte(`{"status":"healthy","timestamp":"2024-05-01T10:00:00","model_loaded":true}`))
		})

		out := client.Health(context.Background(), 0)
		require.True(t, out.Ok())
		assert.Equal(t, "healthy", out.Value.Status)
		assert.True(t, out.Value.ModelLoaded)
	})

	t.Run("probe not answering within its timeout", func(t *testing.T) {
		client := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})

		out := client.Health(context.Background(), 50*time.Millisecond)
		assert.Equal(t, OutcomeTimeout, out.Kind)
	})
}

func TestInferenceClient_ModelStatus(t *testing.T) {
	body := `{"status":"trained","is_training":false,"progress":100,"message":"Modelo listo",
		"model_stats":{"vocab_size":1200,"is_trained":true,"name":"acuaponia"},
		"patterns_stored":345,"memory_kb":12.5,"is_trained":true}`

	client := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/model/status", r.URL.Path)
		w.Write([]byte(body))
	})

	first := client.ModelStatus(context.Background())
	require.True(t, first.Ok())
	assert.Equal(t, models.ModelTrained, first.Value.State)
	assert.Equal(t, 100, first.Value.Progress)
	assert.Equal(t, "Modelo listo", first.Value.Message)
	assert.Equal(t, map[string]float64{
		"vocab_size":      1200,
		"is_trained":      1,
		"patterns_stored": 345,
		"memory_kb":       12.5,
	}, first.Value.Metrics)

	// re-fetching an unchanged status yields an equal snapshot
	second := client.ModelStatus(context.Background())
	require.True(t, second.Ok())
	assert.Equal(t, first.Value, second.Value)
}

func TestInferenceClient_ChatbotReasoning(t *testing.T) {
	client := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chatbot-reasoning", r.URL.Path)

		var req models.ReasoningRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "¿Qué es la acuaponía?", req.Prompt)
		assert.Equal(t, 50, req.MaxLength)
		assert.Equal(t, "detailed", req.ResponseStyle)

		w.Write([]byte(`{"chatbot_messages":[
			{"type":"analysis","content":"A","timestamp":"2024-05-01T10:00:00.123456"},
			{"type":"final_response","content":"B","timestamp":"2024-05-01T10:00:01"}]}`))
	})

	out := client.ChatbotReasoning(context.Background(), models.ReasoningRequest{
		Prompt:         "¿Qué es la acuaponía?",
		MaxLength:      50,
		Temperature:    0.7,
		ReasoningDepth: 3,
		ResponseStyle:  "detailed",
	})

	require.True(t, out.Ok())
	require.Len(t, out.Value.Messages, 2)
	assert.Equal(t, models.StepAnalysis, out.Value.Messages[0].Kind)
	assert.Equal(t, "A", out.Value.Messages[0].Content)
	assert.Equal(t, models.StepFinalResponse, out.Value.Messages[1].Kind)
	assert.False(t, out.Value.Messages[1].ProducedAt.IsZero())
}

func TestInferenceClient_UploadFile(t *testing.T) {
	client := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, err := io.ReadAll(file)
		require.NoError(t, err)

		assert.Equal(t, "corpus.txt", header.Filename)
		assert.Equal(t, "peces y plantas", string(content))

		w.Write([]byte(`{"filename":"corpus.txt","size_bytes":15}`))
	})

	out := client.UploadFile(context.Background(), "corpus.txt", strings.NewReader("peces y plantas"))
	require.True(t, out.Ok())
	assert.Equal(t, int64(15), out.Value.SizeBytes)
}

func TestInferenceClient_Train(t *testing.T) {
	client := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/train", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, []string{"a.txt", "b.txt"}, r.MultipartForm.Value["files"])
		assert.Equal(t, "10000", r.FormValue("max_patterns"))
		assert.Equal(t, "8", r.FormValue("max_pattern_length"))
		assert.Equal(t, "1", r.FormValue("min_frequency"))

		w.Write([]byte(`{"message":"Entrenamiento completado","training_data":{"files":2},"model_stats":{"patterns":10}}`))
	})

	out := client.Train(context.Background(), []string{"a.txt", "b.txt"}, models.DefaultTrainingConfig())
	require.True(t, out.Ok())
	assert.Equal(t, float64(2), out.Value.TrainingData["files"])
}

func TestInferenceClient_Generate(t *testing.T) {
	client := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "hola", r.FormValue("prompt"))
		assert.Equal(t, "20", r.FormValue("max_length"))
		assert.Equal(t, "0.7", r.FormValue("temperature"))
		w.Write([]byte(`{"prompt":"hola","generated_text":"hola mundo"}`))
	})

	out := client.Generate(context.Background(), "hola", 20, 0.7)
	require.True(t, out.Ok())
	assert.Equal(t, "hola mundo", out.Value.GeneratedText)
}

func TestInferenceClient_Collaborators(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		reply        string
		status       int
		call         func(c *InferenceClient) (OutcomeKind, string)
		expectedKind OutcomeKind
	}{
		{
			name:   "list_files",
			method: http.MethodGet,
			path:   "/api/files",
			reply:  `{"files":[{"filename":"a.txt","size_bytes":3}]}`,
			call: func(c *InferenceClient) (OutcomeKind, string) {
				out := c.ListFiles(context.Background())
				if len(out.Value.Files) == 0 {
					return out.Kind, ""
				}
				return out.Kind, out.Value.Files[0].Filename
			},
			expectedKind: OutcomeOK,
		},
		{
			name:   "delete_file_escapes_name",
			method: http.MethodDelete,
			path:   "/api/files/mi archivo.txt",
			reply:  `{"message":"deleted"}`,
			call: func(c *InferenceClient) (OutcomeKind, string) {
				out := c.DeleteFile(context.Background(), "mi archivo.txt")
				return out.Kind, out.Value.Message
			},
			expectedKind: OutcomeOK,
		},
		{
			name:   "delete_missing_file",
			method: http.MethodDelete,
			path:   "/api/files/missing.txt",
			reply:  `{"detail":"File not found"}`,
			status: http.StatusNotFound,
			call: func(c *InferenceClient) (OutcomeKind, string) {
				out := c.DeleteFile(context.Background(), "missing.txt")
				return out.Kind, out.Detail
			},
			expectedKind: OutcomeServiceError,
		},
		{
			name:   "reset",
			method: http.MethodPost,
			path:   "/api/reset",
			reply:  `{"message":"reset"}`,
			call: func(c *InferenceClient) (OutcomeKind, string) {
				out := c.Reset(context.Background())
				return out.Kind, out.Value.Message
			},
			expectedKind: OutcomeOK,
		},
		{
			name:   "list_models",
			method: http.MethodGet,
			path:   "/api/models",
			reply:  `{"models":[{"filename":"m.pkl","model_name":"m"}]}`,
			call: func(c *InferenceClient) (OutcomeKind, string) {
				out := c.ListModels(context.Background())
				if len(out.Value.Models) == 0 {
					return out.Kind, ""
				}
				return out.Kind, out.Value.Models[0].ModelName
			},
			expectedKind: OutcomeOK,
		},
		{
			name:   "delete_model",
			method: http.MethodDelete,
			path:   "/api/models/m.pkl",
			reply:  `{"message":"deleted"}`,
			call: func(c *InferenceClient) (OutcomeKind, string) {
				out := c.DeleteModel(context.Background(), "m.pkl")
				return out.Kind, out.Value.Message
			},
			expectedKind: OutcomeOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.method, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				w.Write([]byte(tt.reply))
			})

			kind, value := tt.call(client)
			assert.Equal(t, tt.expectedKind, kind)
			assert.NotEmpty(t, value)
		})
	}
}

func TestInferenceClient_SaveAndLoadModel(t *testing.T) {
	client := newTestInferenceClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/api/models/save":
			assert.Equal(t, "acuaponia", r.PostForm.Get("model_name"))
			w.Write([]byte(`{"filename":"acuaponia.pkl","size_bytes":2048,"model_name":"acuaponia"}`))
		case "/api/models/load":
			assert.Equal(t, "acuaponia.pkl", r.PostForm.Get("model_filename"))
			w.Write([]byte(`{"message":"Modelo cargado"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	saved := client.SaveModel(context.Background(), "acuaponia")
	require.True(t, saved.Ok())
	assert.Equal(t, "acuaponia.pkl", saved.Value.Filename)

	loaded := client.LoadModel(context.Background(), saved.Value.Filename)
	require.True(t, loaded.Ok())
	assert.Equal(t, "Modelo cargado", loaded.Value.Message)
}
