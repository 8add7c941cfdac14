package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	inquiryx "github.com/brookfield-ai/leasing-assistant/assistant/inquiry"
	llmx "github.com/brookfield-ai/leasing-assistant/assistant/llm"
	streamx "github.com/brookfield-ai/leasing-assistant/assistant/stream"
	toolx "github.com/brookfield-ai/leasing-assistant/assistant/tool"
	configx "github.com/brookfield-ai/leasing-assistant/pkg/config"
	_ "github.com/brookfield-ai/leasing-assistant/pkg/logger/autoload"
	openaix "github.com/brookfield-ai/leasing-assistant/pkg/openaix"
	qstashx "github.com/brookfield-ai/leasing-assistant/pkg/qstash"
	serverx "github.com/brookfield-ai/leasing-assistant/server"
	storex "github.com/brookfield-ai/leasing-assistant/store"
)

func main() {
	storeCfg := configx.MustNew[storex.Config]("DATABASE")
	openaiCfg := configx.MustNew[openaix.Config]("OPENAI")
	serverCfg := configx.MustNew[serverx.Config]("SERVER")

	st, err := storex.Open(*storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	client := openaix.NewClient(*openaiCfg)
	if client == nil {
		log.Fatal().Msg("openai client not configured, set OPENAI_API_KEY")
	}
	gateway, err := llmx.NewGateway(client, *openaiCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build model gateway")
	}

	lookups := &toolx.Lookups{
		Units:    st.Units,
		Policies: st.PetPolicies,
		Pricing:  st.Pricing,
		Slots:    st.TourSlots,
	}
	registry, err := toolx.NewRegistry(lookups, st.ToolCalls)
	if err != nil {
		log.Fatal().Err(err).Msg("build tool registry")
	}

	orchestrator, err := inquiryx.New(gateway, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	// The handoff notifier is optional; the assistant runs without it.
	var notifier *qstashx.Client
	if qstashCfg, err := configx.New[qstashx.Config]("QSTASH"); err == nil {
		if notifier, err = qstashx.NewClient(*qstashCfg); err != nil {
			log.Warn().Err(err).Msg("qstash notifier disabled")
		}
	} else {
		log.Info().Msg("qstash not configured, handoff notifications disabled")
	}

	srv, err := serverx.New(*serverCfg, st, orchestrator, streamx.New(), notifier)
	if err != nil {
		log.Fatal().Err(err).Msg("build http server")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("http server stopped")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}
