package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSSEChunk(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, SendSSEChunk(rec, rec, map[string]string{"chunk": "Hel"}))
	require.NoError(t, SendSSEChunk(rec, rec, map[string]string{"chunk": "lo"}))

	assert.Equal(t, "data: {\"chunk\":\"Hel\"}\n\ndata: {\"chunk\":\"lo\"}\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestSendSSEChunkMarshalError(t *testing.T) {
	rec := httptest.NewRecorder()

	err := SendSSEChunk(rec, rec, map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
	assert.Empty(t, rec.Body.String())
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestSendSSEChunkWriteError(t *testing.T) {
	w := failingWriter{httptest.NewRecorder()}
	assert.Error(t, SendSSEChunk(w, w, map[string]string{"chunk": "x"}))
}

func TestSendSSEEvent(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, SendSSEEvent(rec, rec, "error", map[string]string{"chunk": "", "error": "stream interrupted"}))

	assert.Equal(t, "event: error\ndata: {\"chunk\":\"\",\"error\":\"stream interrupted\"}\n\n", rec.Body.String())
}

func TestSetupSSEHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusBadRequest, "Invalid role")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Invalid role"}`, rec.Body.String())
}
