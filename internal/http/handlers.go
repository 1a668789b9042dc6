package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/chat"
)

// ChatRequest is the request body shared by every chat workflow endpoint.
type ChatRequest struct {
	Messages              []chat.Message `json:"messages"`
	ShowIntermediateSteps bool           `json:"show_intermediate_steps"`
}

// TraceResponse is the full-trace agent response body.
type TraceResponse struct {
	Messages []chat.Message `json:"messages"`
}

// IngestRequest is the request body for POST /api/retrieval/ingest.
type IngestRequest struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IngestResponse reports what ingestion stored.
type IngestResponse struct {
	IDs    []string `json:"ids"`
	Chunks int      `json:"chunks"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// bindChatRequest decodes and validates the shared chat request shape.
func (s *Server) bindChatRequest(c echo.Context) (*ChatRequest, error) {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid request body", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := chat.ValidateMessages(req.Messages); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return &req, nil
}

// startStream returns a chunk writer that serves the response as a
// plain-text token stream. The response is committed on the first chunk,
// not before: a failure that produces no output must still reach the
// error handler as a JSON error body.
func (s *Server) startStream(c echo.Context) func(ctx context.Context, chunk []byte) error {
	return func(_ context.Context, chunk []byte) error {
		if !c.Response().Committed {
			c.Response().Header().Set(echo.HeaderContentType, "text/plain; charset=utf-8")
			c.Response().WriteHeader(http.StatusOK)
		}
		if _, err := c.Response().Write(chunk); err != nil {
			return err
		}
		c.Response().Flush()
		return nil
	}
}

// handleChat streams a plain chat completion.
func (s *Server) handleChat(c echo.Context) error {
	req, err := s.bindChatRequest(c)
	if err != nil {
		return err
	}

	_, err = s.services.Chat.Stream(c.Request().Context(), req.Messages, s.startStream(c))
	return err
}

// handleStructuredOutput runs the extraction workflow. Not streamed.
func (s *Server) handleStructuredOutput(c echo.Context) error {
	req, err := s.bindChatRequest(c)
	if err != nil {
		return err
	}

	extraction, err := s.services.Extract.Extract(c.Request().Context(), req.Messages)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, extraction)
}

// handleAgents runs the tool agent: streamed final answer by default,
// full message trace when show_intermediate_steps is set.
func (s *Server) handleAgents(c echo.Context) error {
	return s.runAgent(c, s.services.Agent)
}

// handleRetrievalAgents runs the agent whose tool searches the vector store.
func (s *Server) handleRetrievalAgents(c echo.Context) error {
	return s.runAgent(c, s.services.RetrievalAgent)
}

func (s *Server) runAgent(c echo.Context, a interface {
	Run(ctx context.Context, messages []chat.Message) ([]chat.Message, error)
	Stream(ctx context.Context, messages []chat.Message, onChunk func(ctx context.Context, chunk []byte) error) (string, error)
}) error {
	req, err := s.bindChatRequest(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if req.ShowIntermediateSteps {
		trace, err := a.Run(ctx, req.Messages)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, TraceResponse{Messages: trace})
	}

	_, err = a.Stream(ctx, req.Messages, s.startStream(c))
	return err
}

// handleRetrieval runs the RAG pipeline. Retrieval completes before the
// first body byte so the source headers are final when streaming starts.
func (s *Server) handleRetrieval(c echo.Context) error {
	req, err := s.bindChatRequest(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	retrieval, err := s.services.Pipeline.Retrieve(ctx, req.Messages)
	if err != nil {
		return err
	}

	sources, err := encodeSources(retrieval.Sources)
	if err != nil {
		return err
	}
	c.Response().Header().Set(headerMessageIndex, strconv.Itoa(len(req.Messages)-1))
	c.Response().Header().Set(headerSources, sources)

	_, err = s.services.Pipeline.Stream(ctx, retrieval, s.startStream(c))
	return err
}

// handleIngest splits and stores raw text.
func (s *Server) handleIngest(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid ingest request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text field is required")
	}

	ids, err := s.services.Ingest.IngestText(c.Request().Context(), req.Text, req.Metadata)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, IngestResponse{IDs: ids, Chunks: len(ids)})
}
