package chat

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/interviewfriend/relay/backend/internal/model/chat"
	"github.com/interviewfriend/relay/backend/internal/observability"
	chatService "github.com/interviewfriend/relay/backend/internal/service/chat"
	"github.com/interviewfriend/relay/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Streamer opens a completion stream for a validated request.
// *ai.Service satisfies it.
type Streamer interface {
	Stream(ctx context.Context, role chat.RequestRole, history []chat.RawMessage) (iter.Seq2[chat.Fragment, error], error)
}

// errorFrame is the terminal frame written when a stream fails after the
// response has started. Chunk stays empty so clients that concatenate
// chunks are unaffected.
type errorFrame struct {
	Chunk string `json:"chunk"`
	Error string `json:"error"`
}

// Handler serves the streaming chat endpoint.
type Handler struct {
	streamer Streamer
	metrics  *observability.Metrics
}

// New creates the chat handler. A nil streamer makes every valid request
// fail with 503.
func New(streamer Streamer, metrics *observability.Metrics) *Handler {
	return &Handler{
		streamer: streamer,
		metrics:  metrics,
	}
}

// RegisterRoutes mounts POST /chat.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.WithError(err).WithField("component", "chat").Debug("failed to read request body")
		body = nil
	}

	req, err := chatService.Validate(body)
	if err != nil {
		h.metrics.ObserveRequest(roleLabel(req.Role), observability.StatusInvalid)
		utils.RespondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	role := roleLabel(req.Role)

	if h.streamer == nil {
		h.metrics.ObserveRequest(role, observability.StatusUnavailable)
		utils.RespondError(w, http.StatusServiceUnavailable, "inference backend unavailable")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	streamID := uuid.NewString()
	logger := log.WithFields(log.Fields{
		"component": "chat",
		"stream_id": streamID,
		"role":      role,
	})

	start := time.Now()
	fragments, err := h.streamer.Stream(r.Context(), req.Role, req.Messages)
	if err != nil {
		logger.WithError(err).Error("failed to open completion stream")
		h.metrics.ObserveRequest(role, observability.StatusUpstream)
		utils.RespondError(w, http.StatusBadGateway, "failed to reach inference backend")
		return
	}

	finish := h.metrics.StreamStarted(role)
	utils.SetupSSEHeaders(w)
	w.Header().Set("X-Stream-ID", streamID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	status, count := h.relay(r.Context(), w, flusher, logger, role, start, fragments)
	finish(status)

	logger.WithFields(log.Fields{
		"status":    status,
		"fragments": count,
		"elapsed":   time.Since(start).String(),
	}).Info("chat stream finished")
}

// relay forwards fragments as SSE frames until the sequence ends, fails, or
// the client goes away.
func (h *Handler) relay(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, logger *log.Entry, role string, start time.Time, fragments iter.Seq2[chat.Fragment, error]) (string, int) {
	count := 0
	for frag, err := range fragments {
		if err != nil {
			if ctx.Err() != nil {
				return observability.StatusCanceled, count
			}
			logger.WithError(err).Error("completion stream interrupted")
			if werr := utils.SendSSEEvent(w, flusher, "error", errorFrame{Error: "stream interrupted"}); werr != nil {
				logger.WithError(werr).Debug("failed to write error frame")
			}
			return observability.StatusInterrupted, count
		}

		if count == 0 {
			h.metrics.ObserveFirstFragment(role, start)
		}
		if err := utils.SendSSEChunk(w, flusher, frag); err != nil {
			logger.WithError(err).Debug("client stopped reading")
			return observability.StatusCanceled, count
		}
		count++
		h.metrics.ObserveFragment(role)
	}

	if ctx.Err() != nil {
		return observability.StatusCanceled, count
	}
	return observability.StatusOK, count
}

func validationMessage(err error) string {
	var verr *chatService.ValidationError
	if errors.As(err, &verr) {
		return verr.Message()
	}
	return "Invalid request"
}

func roleLabel(role chat.RequestRole) string {
	if role == "" {
		return "unknown"
	}
	return string(role)
}
