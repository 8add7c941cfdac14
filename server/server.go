// Package server exposes the leasing assistant over HTTP: conversation
// lifecycle endpoints plus the SSE reply stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/rs/zerolog/log"

	contractx "github.com/brookfield-ai/leasing-assistant/assistant/contract"
	streamx "github.com/brookfield-ai/leasing-assistant/assistant/stream"
	qstashx "github.com/brookfield-ai/leasing-assistant/pkg/qstash"
	storex "github.com/brookfield-ai/leasing-assistant/store"
)

type Config struct {
	Host           string        `split_words:"true" default:"0.0.0.0"`
	Port           int           `split_words:"true" default:"8080"`
	RequestTimeout time.Duration `split_words:"true" default:"60s"`

	// HandoffWebhookURL receives a QStash notification whenever a turn
	// ends in a human handoff. Empty disables the notification.
	HandoffWebhookURL string `split_words:"true"`
}

// InquiryHandler is the orchestration core the server delegates turns to.
type InquiryHandler interface {
	HandleInquiry(ctx context.Context, inq contractx.Inquiry) (contractx.ActionDecision, error)
}

type Server struct {
	echo     *echo.Echo
	http     *http.Server
	cfg      Config
	store    *storex.Store
	handler  InquiryHandler
	streamer *streamx.Streamer
	notifier *qstashx.Client
}

func New(cfg Config, st *storex.Store, handler InquiryHandler, streamer *streamx.Streamer, notifier *qstashx.Client) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is required", contractx.ErrValidation)
	}
	if handler == nil {
		return nil, fmt.Errorf("%w: inquiry handler is required", contractx.ErrValidation)
	}
	if streamer == nil {
		streamer = streamx.New()
	}

	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:     e,
		cfg:      cfg,
		store:    st,
		handler:  handler,
		streamer: streamer,
		notifier: notifier,
	}
	s.registerChatRoutes(e)

	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: e,
	}
	return s, nil
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
