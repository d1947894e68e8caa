package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/symptom-checker/internal/audit"
	"github.com/vcscsvcscs/symptom-checker/internal/handler"
	"github.com/vcscsvcscs/symptom-checker/internal/llm"
	"github.com/vcscsvcscs/symptom-checker/internal/service"
	"github.com/vcscsvcscs/symptom-checker/pkg/model"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, analysis, report llm.Completer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	validator, err := handler.NewRequestValidator()
	require.NoError(t, err)

	symptoms := service.NewSymptomService(analysis, llm.AnalysisGenerationConfig(), logger)
	reports := service.NewReportService(report, llm.ReportGenerationConfig(), logger)

	return NewRouter(RouterOptions{
		Symptoms:    handler.NewSymptomHandler(symptoms, reports, validator, audit.NewLogger(nil, logger), logger),
		Health:      handler.NewHealthHandler(symptoms, reports, nil, "test", logger),
		ServiceName: "symptom-checker",
		Logger:      logger,
	})
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()
	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, handler.AnalyzeSymptomsPath, nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type, apikey")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "apikey")
}

func TestRouter_PlainOptionsWithoutKeys(t *testing.T) {
	r := newRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, handler.GenerateMedicalReportPath, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_PanicBecomesInternalError(t *testing.T) {
	mock := llm.NewMockCompleter(llm.MockResponse{Panic: "gateway exploded"})
	r := newRouter(t, mock, nil)

	w := post(r, handler.AnalyzeSymptomsPath, `{"symptoms": "dizziness"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, model.ErrorCodeInternalError, resp.Code)
	assert.Equal(t, "gateway exploded", resp.Details)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RequestIDAndHealth(t *testing.T) {
	r := newRouter(t, nil, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["analysisConfigured"])
	assert.Equal(t, "disabled", body["database"])
}

func TestRouter_EndToEndWithGemini(t *testing.T) {
	var calls int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "analysis-key", r.Header.Get("x-goog-api-key"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), "sore throat")

		text, _ := json.Marshal("```json\n" + `{"conditions":[{"name":"Pharyngitis","probability":"65%"}],"recommendations":["Warm fluids"],"warnings":[],"urgency":"low"}` + "\n```")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%s}]},"finishReason":"STOP"}]}`, text)
	}))
	defer upstream.Close()

	client, err := llm.NewGeminiClient(llm.GeminiOptions{
		APIKey:     "analysis-key",
		BaseURL:    upstream.URL,
		HTTPClient: upstream.Client(),
	}, zap.NewNop())
	require.NoError(t, err)

	r := newRouter(t, client, nil)
	w := post(r, handler.AnalyzeSymptomsPath, `{"symptoms": "sore throat and mild fever"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, calls)

	var resp struct {
		Success  bool           `json:"success"`
		Analysis model.Analysis `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Analysis.Conditions, 1)
	assert.Equal(t, "Pharyngitis", resp.Analysis.Conditions[0].Name)
	assert.Equal(t, 65, resp.Analysis.Conditions[0].Probability)
	assert.Equal(t, []string{}, resp.Analysis.Warnings)
}

// Every failure path answers with an envelope whose code is in the closed set
// and whose status matches the code.
func TestProperty_ErrorEnvelope(t *testing.T) {
	statusByCode := map[model.ErrorCode]int{
		model.ErrorCodeInvalidInput:   http.StatusBadRequest,
		model.ErrorCodeAPIKeyMissing:  http.StatusInternalServerError,
		model.ErrorCodeSafetyBlock:    http.StatusBadRequest,
		model.ErrorCodeMaxTokens:      http.StatusBadRequest,
		model.ErrorCodeGeminiAPIError: http.StatusInternalServerError,
		model.ErrorCodeAnalysisError:  http.StatusInternalServerError,
		model.ErrorCodeInternalError:  http.StatusInternalServerError,
	}

	responses := map[string]llm.MockResponse{
		"safety":    {Completion: &llm.Completion{FinishReason: llm.FinishSafetyBlocked}},
		"truncated": {Completion: &llm.Completion{FinishReason: llm.FinishLengthTruncated}},
		"empty":     {Completion: &llm.Completion{FinishReason: llm.FinishNone}},
		"upstream":  {Err: &llm.ModelServiceError{StatusCode: http.StatusBadGateway}},
		"structure": {Completion: llm.NewTextCompletion(`[1, 2, 3]`)},
		"panic":     {Panic: "boom"},
	}

	properties := gopter.NewProperties(nil)
	properties.Property("failures always produce a well-formed envelope", prop.ForAll(
		func(kind string, configured bool, symptoms string) bool {
			var client llm.Completer
			if configured {
				client = llm.NewMockCompleter(responses[kind])
			}
			r := newRouter(t, client, nil)

			body, _ := json.Marshal(map[string]string{"symptoms": symptoms})
			w := post(r, handler.AnalyzeSymptomsPath, string(body))

			var resp model.APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Logf("not an envelope: %s", w.Body.String())
				return false
			}
			if resp.Success || resp.Error == "" {
				return false
			}
			status, known := statusByCode[resp.Code]
			return known && status == w.Code && w.Header().Get("Access-Control-Allow-Origin") == "*"
		},
		gen.OneConstOf("safety", "truncated", "empty", "upstream", "structure", "panic"),
		gen.Bool(),
		gen.OneGenOf(gen.Const(""), gen.Const("   "), gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
