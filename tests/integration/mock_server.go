package integration

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MockVLMServer simulates an OpenAI-compatible chat-completions scoring
// endpoint with realistic behavior: canned verdicts, injectable errors,
// response delays, and periodic rate limiting.
type MockVLMServer struct {
	server        *httptest.Server
	requestCount  int32
	rateLimitHits int32

	mu             sync.RWMutex
	delay          time.Duration
	errorCode      int
	errorRemaining int
	rateLimitEvery int // every Nth request gets a 429, 0 disables
	rawContent     string
	replyScore     float64
	replyAI        bool
	replyWatermark bool
	replyFeedback  string
	promptTokens   int
	completion     int
	reasoning      int
	lastRequest    *ScoreRequestInfo
}

// ScoreRequestInfo is the decoded shape of the last scoring request the
// mock received, for asserting what the client put on the wire.
type ScoreRequestInfo struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Detail      string
	PromptText  string
	ImageBytes  int
}

// scoreRequest mirrors the chat-completions payload the client sends
type scoreRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL *struct {
				URL    string `json:"url"`
				Detail string `json:"detail"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// NewMockVLMServer creates a mock scoring endpoint returning a fixed
// verdict until configured otherwise
func NewMockVLMServer() *MockVLMServer {
	m := &MockVLMServer{
		replyScore:    8.5,
		replyFeedback: "Sharp, well composed frame with natural lighting.",
		promptTokens:  500,
		completion:    120,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/chat/completions", m.handleChatCompletions)

	m.server = httptest.NewServer(mux)
	return m
}

// handleChatCompletions handles scoring requests
func (m *MockVLMServer) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	count := atomic.AddInt32(&m.requestCount, 1)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Simulate delay if configured
	if delay := m.getDelay(); delay > 0 {
		time.Sleep(delay)
	}

	// The real endpoints reject missing bearer tokens before anything else
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		m.sendError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	// Check for configured errors
	if code := m.takeErrorResponse(); code > 0 {
		m.sendError(w, code, "injected failure")
		return
	}

	// Simulate periodic rate limiting
	if every := m.getRateLimitEvery(); every > 0 && int(count)%every == 0 {
		atomic.AddInt32(&m.rateLimitHits, 1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": "requests per minute exceeded",
				"type":    "rate_limit_error",
			},
		})
		return
	}

	// Decode and validate the request shape
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.sendError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Model == "" || len(req.Messages) == 0 {
		m.sendError(w, http.StatusBadRequest, "model and messages are required")
		return
	}

	info := &ScoreRequestInfo{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, part := range req.Messages[0].Content {
		switch part.Type {
		case "text":
			info.PromptText = part.Text
		case "image_url":
			if part.ImageURL == nil || !strings.HasPrefix(part.ImageURL.URL, "data:image/") {
				m.sendError(w, http.StatusBadRequest, "image_url must be a data URL")
				return
			}
			info.Detail = part.ImageURL.Detail
			if i := strings.Index(part.ImageURL.URL, ","); i > 0 {
				decoded, err := base64.StdEncoding.DecodeString(part.ImageURL.URL[i+1:])
				if err != nil {
					m.sendError(w, http.StatusBadRequest, "image payload is not valid base64")
					return
				}
				info.ImageBytes = len(decoded)
			}
		}
	}
	if info.ImageBytes == 0 {
		m.sendError(w, http.StatusBadRequest, "no image content in request")
		return
	}

	m.mu.Lock()
	m.lastRequest = info
	content := m.rawContent
	if content == "" {
		content = m.verdictContent()
	}
	usage := map[string]interface{}{
		"prompt_tokens":     m.promptTokens,
		"completion_tokens": m.completion,
		"total_tokens":      m.promptTokens + m.completion + m.reasoning,
	}
	if m.reasoning > 0 {
		usage["completion_tokens_details"] = map[string]interface{}{
			"reasoning_tokens": m.reasoning,
		}
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":    fmt.Sprintf("chatcmpl-mock-%d", count),
		"model": req.Model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": usage,
	})
}

// verdictContent renders the canned model output: prose analysis followed
// by the XML result block. Callers must hold m.mu.
func (m *MockVLMServer) verdictContent() string {
	return fmt.Sprintf(`The image shows good technical quality overall.

<result>
<is_ai_generated>%t</is_ai_generated>
<watermark_present>%t</watermark_present>
<watermark_location>none</watermark_location>
<score>%.1f</score>
<feedback>%s</feedback>
</result>`, m.replyAI, m.replyWatermark, m.replyScore, m.replyFeedback)
}

// sendError sends an error response in the shape real endpoints use
func (m *MockVLMServer) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "invalid_request_error",
			"code":    fmt.Sprintf("%d", code),
		},
	})
}

// SetReply changes the canned verdict returned for every request
func (m *MockVLMServer) SetReply(score float64, aiGenerated, watermarkPresent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replyScore = score
	m.replyAI = aiGenerated
	m.replyWatermark = watermarkPresent
}

// SetRawContent makes the mock return arbitrary model output instead of
// the canned verdict, for exercising parser recovery paths.
func (m *MockVLMServer) SetRawContent(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rawContent = content
}

// SetUsage changes the token usage reported with every response
func (m *MockVLMServer) SetUsage(prompt, completion, reasoning int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promptTokens = prompt
	m.completion = completion
	m.reasoning = reasoning
}

// SetErrorResponse makes the next count requests fail with the given
// status code
func (m *MockVLMServer) SetErrorResponse(code, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCode = code
	m.errorRemaining = count
}

// ClearErrorResponses removes any configured error injection
func (m *MockVLMServer) ClearErrorResponses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCode = 0
	m.errorRemaining = 0
}

// takeErrorResponse consumes one injected error, returning 0 when none
// remain
func (m *MockVLMServer) takeErrorResponse() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errorRemaining <= 0 {
		return 0
	}
	m.errorRemaining--
	return m.errorCode
}

// SetDelay configures a response delay for every request
func (m *MockVLMServer) SetDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
}

// RateLimitEvery makes every Nth request return a 429. Zero disables
// rate limiting, which is the default so tests stay deterministic.
func (m *MockVLMServer) RateLimitEvery(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitEvery = n
}

func (m *MockVLMServer) getDelay() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.delay
}

func (m *MockVLMServer) getRateLimitEvery() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rateLimitEvery
}

// URL returns the full chat-completions endpoint URL of the mock server
func (m *MockVLMServer) URL() string {
	return m.server.URL + "/api/v3/chat/completions"
}

// LastRequest returns the decoded shape of the most recent scoring
// request, or nil when none decoded successfully yet.
func (m *MockVLMServer) LastRequest() *ScoreRequestInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequest
}

// GetRequestCount returns the total number of requests received
func (m *MockVLMServer) GetRequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// GetRateLimitHits returns the number of rate limit responses served
func (m *MockVLMServer) GetRateLimitHits() int {
	return int(atomic.LoadInt32(&m.rateLimitHits))
}

// ResetCounters resets all request counters
func (m *MockVLMServer) ResetCounters() {
	atomic.StoreInt32(&m.requestCount, 0)
	atomic.StoreInt32(&m.rateLimitHits, 0)
}

// Close shuts down the mock server
func (m *MockVLMServer) Close() {
	m.server.Close()
}
