// avatar-gateway serves the HTTP gateway for the avatar front-end:
// WebSocket endpoint discovery, TTS proxy, auth callback bridge, and
// optionally a simulated AI pipeline for local development.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avarynx/avatarlink/internal/config"
	"github.com/avarynx/avatarlink/internal/log"
	"github.com/avarynx/avatarlink/pkg/tts"
	"github.com/avarynx/avatarlink/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	simulate := flag.Bool("simulate", false, "Serve a simulated pipeline at /ws/pipeline")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *simulate {
		cfg.Pipeline.Simulate = true
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	speech := buildSpeech(&cfg)
	server := web.NewServer(&cfg, speech, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
		if speech != nil {
			speech.Close()
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
}

// buildSpeech wires the TTS provider chain: ElevenLabs when an API key
// is configured, StreamElements as the free fallback.
func buildSpeech(cfg *config.Config) tts.Provider {
	logger := log.L()

	var providers []tts.Provider
	if cfg.TTS.ElevenLabsAPIKey != "" {
		eleven, err := tts.NewElevenLabs(
			tts.WithAPIKey(cfg.TTS.ElevenLabsAPIKey),
			tts.WithVoice(cfg.TTS.DefaultVoice),
			tts.WithLogger(logger),
		)
		if err != nil {
			logger.Warn("ElevenLabs unavailable", "error", err)
		} else {
			providers = append(providers, eleven)
		}
	}
	providers = append(providers, tts.NewStreamElements(tts.WithLogger(logger)))

	chain, err := tts.NewChainWithLogger(logger, providers...)
	if err != nil {
		logger.Warn("no TTS providers configured")
		return nil
	}
	return chain
}
