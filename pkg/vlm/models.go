package vlm

// chatRequest is the OpenAI-compatible chat-completions payload the
// scoring endpoint accepts.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is a single conversation turn
type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// contentPart is one element of a multimodal message. Type is "text" or
// "image_url" and exactly one of Text and ImageURL is populated.
type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

// imageURL carries an image as a data URL. Detail controls how many
// vision tokens the endpoint spends on it.
type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ChatResponse is the subset of the chat-completions response the
// scorer reads.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one generated completion
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ResponseMessage carries the model output. Reasoning models place the
// final answer in Content and the chain of thought in ReasoningContent,
// and some return only the latter when the answer budget runs out.
type ResponseMessage struct {
	Role             string `json:"role"`
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// Usage reports token consumption for a single request
type Usage struct {
	PromptTokens            int                      `json:"prompt_tokens"`
	CompletionTokens        int                      `json:"completion_tokens"`
	TotalTokens             int                      `json:"total_tokens"`
	CompletionTokensDetails *CompletionTokensDetails `json:"completion_tokens_details,omitempty"`
}

// CompletionTokensDetails breaks completion tokens down further
type CompletionTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

// ReasoningTokens returns the reasoning token count, or zero when the
// endpoint does not report the breakdown.
func (u Usage) ReasoningTokens() int {
	if u.CompletionTokensDetails == nil {
		return 0
	}
	return u.CompletionTokensDetails.ReasoningTokens
}

// Evaluation is the parsed scoring verdict for one image. The JSON tags
// match the sidecar result format written next to scored images.
type Evaluation struct {
	IsAIGenerated     bool    `json:"is_ai_generated"`
	WatermarkPresent  bool    `json:"watermark_present"`
	WatermarkLocation string  `json:"watermark_location"`
	Score             float64 `json:"score"`
	Feedback          string  `json:"feedback"`

	// Filled in by the client after a successful call.
	Usage    Usage  `json:"api_usage"`
	Provider string `json:"api_provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// apiErrorBody covers the error shapes scoring endpoints return, either
// a top-level message or one nested under "error".
type apiErrorBody struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
