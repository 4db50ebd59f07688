package chi

// errorCode is the machine-readable "code" field of an error body.
type errorCode string

const (
	codeValidationFailed errorCode = "validation_failed"
	codeNotFound         errorCode = "not_found"
	codeInternalError    errorCode = "internal_error"
)

// Fixed client-facing messages.
const (
	msgNoSuitableBook = "No suitable book found. Please add more context."
	msgRephrase       = "Please rephrase your question."
	msgSTTPrefix      = "STT error: "
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code   errorCode `json:"code"`
	Detail string    `json:"detail"`
}

// softErrorResponse is returned with 200 when the query was refused.
type softErrorResponse struct {
	Error string `json:"error"`
}

type ttsRequest struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
}

type ttsResponse struct {
	AudioBase64 string `json:"audio_base64"`
}

// recommendRequest keeps Query a pointer so that an empty string passes
// "required" while a missing field does not.
type recommendRequest struct {
	Query *string `json:"query" validate:"required"`
}

type recommendResponse struct {
	Title          string  `json:"title"`
	Recommendation string  `json:"recommendation"`
	FullSummary    string  `json:"full_summary"`
	Score          float64 `json:"score"`
	ImageBase64    *string `json:"image_base64"`
}

type sttResponse struct {
	Text string `json:"text"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
