package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interviewfriend/relay/backend/internal/config"
	"github.com/interviewfriend/relay/backend/internal/integrations/nim"
	promptmodel "github.com/interviewfriend/relay/backend/internal/model/prompt"
	"github.com/interviewfriend/relay/backend/internal/observability"
	"github.com/interviewfriend/relay/backend/internal/service/ai"
)

const origin = "https://interview-friend.ai-lab1.com"

func newTestRouter(serverCfg config.ServerConfig) http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(serverCfg, nil, observability.NewMetrics(reg), reg)
}

func TestRouterHealthWithoutService(t *testing.T) {
	r := newTestRouter(config.ServerConfig{AllowedOrigin: origin})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.JSONEq(t, `{"nim_ready":false}`, resp.Body.String())
}

func TestRouterHealthIgnoresBackendReachability(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	unreachable := upstream.URL
	upstream.Close()

	chatModel, err := nim.NewChatModel(&nim.Config{
		BaseURL: unreachable + "/v1",
		APIKey:  "test-key",
		Model:   "meta/llama-3.1-8b-instruct",
	})
	require.NoError(t, err)
	svc, err := ai.NewService(context.Background(), chatModel, promptmodel.Defaults())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	r := NewRouter(config.ServerConfig{AllowedOrigin: origin}, svc, observability.NewMetrics(reg), reg)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"nim_ready":true}`, resp.Body.String())
}

func TestRouterChatWithoutService(t *testing.T) {
	r := newTestRouter(config.ServerConfig{AllowedOrigin: origin})

	req := httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"role":"interviewer","messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Origin", origin)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, origin, resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterChatPreflight(t *testing.T) {
	r := newTestRouter(config.ServerConfig{AllowedOrigin: origin})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, origin, resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterRateLimit(t *testing.T) {
	r := newTestRouter(config.ServerConfig{AllowedOrigin: origin, RateLimit: 1, RateBurst: 1})

	codes := make([]int, 0, 2)
	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{}`))
		req.RemoteAddr = "198.51.100.4:4000"
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestRouterMetrics(t *testing.T) {
	r := newTestRouter(config.ServerConfig{AllowedOrigin: origin})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{}`)))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `interview_relay_chat_requests_total{role="unknown",status="invalid"} 1`)
}
