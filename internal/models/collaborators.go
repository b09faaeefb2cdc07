package models

// UploadedFile represents a training file stored by the service
type UploadedFile struct {
	Filename   string `json:"filename"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedAt string `json:"uploaded_at"`
}

// FileList represents the reply of GET /files
type FileList struct {
	Files []UploadedFile `json:"files"`
}

// SavedModel represents a persisted model known to the service
type SavedModel struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at"`
	ModelName string `json:"model_name"`
}

// ModelList represents the reply of GET /models
type ModelList struct {
	Models []SavedModel `json:"models"`
}

// TrainingConfig holds the tunables sent with POST /train
type TrainingConfig struct {
	MaxPatterns      int `json:"max_patterns"`
	MaxPatternLength int `json:"max_pattern_length"`
	MinFrequency     int `json:"min_frequency"`
}

// DefaultTrainingConfig returns the settings the training form starts with
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		MaxPatterns:      10000,
		MaxPatternLength: 8,
		MinFrequency:     1,
	}
}

// TrainingResult represents the reply of POST /train
type TrainingResult struct {
	Message      string             `json:"message"`
	TrainingData map[string]float64 `json:"training_data"`
	ModelStats   map[string]float64 `json:"model_stats"`
}

// GenerationResult represents the reply of POST /generate
type GenerationResult struct {
	Prompt           string         `json:"prompt"`
	GeneratedText    string         `json:"generated_text"`
	BaseResponse     string         `json:"base_response,omitempty"`
	ReasonedResponse string         `json:"reasoned_response,omitempty"`
	Parameters       map[string]any `json:"parameters,omitempty"`
}

// ServiceMessage is the generic {message} acknowledgement returned by mutating endpoints
type ServiceMessage struct {
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
}
