package scripts

// TranscriptionResult is the output of transcribe.py
type TranscriptionResult struct {
	Text      string  `json:"text"`
	ModelName string  `json:"model_name"`
	Language  string  `json:"language,omitempty"`
	Duration  float64 `json:"duration"`
	Error     string  `json:"error,omitempty"`
}

// SummaryResult is the output of summarize.py
type SummaryResult struct {
	Summary   string `json:"summary"`
	ModelName string `json:"model_name"`
	Error     string `json:"error,omitempty"`
}

// WindowSummaryResult is the output of summarize.py when given token windows.
// Summaries holds one fragment per window, in order.
type WindowSummaryResult struct {
	Summaries []string `json:"summaries"`
	ModelName string   `json:"model_name"`
	Error     string   `json:"error,omitempty"`
}

// TokenizeResult is the output of tokenize.py. IDs is set when encoding and
// Text when decoding.
type TokenizeResult struct {
	IDs   []int  `json:"ids,omitempty"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

type TranscribeOptions struct {
	Model    string
	Language string
}

type SummarizeOptions struct {
	Model     string
	MaxLength int
	MinLength int
	Sample    bool
}
