package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/tcpcalc/internal/config"
	"github.com/danmuck/tcpcalc/internal/observability"
	"github.com/danmuck/tcpcalc/internal/server"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a TOML server config")
		listenAddr  = flag.String("listen", "", "listen address, overrides config")
		adminAddr   = flag.String("admin", "", "admin/metrics HTTP address, overrides config")
		messageLast = flag.Bool("message-last", false, "place the diagnostic after the accumulator in answers")
	)
	flag.Parse()

	logger := observability.InitLogger("calcd")

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load server config")
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded server config")
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *adminAddr != "" {
		cfg.AdminAddr = *adminAddr
	}
	if *messageLast {
		cfg.AnswerOrder = "message-last"
	}
	if err := config.ValidateServerConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid server config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AdminAddr != "" {
		admin := observability.NewAdmin("calcd", cfg.AdminAddr, cfg.CorsOrigins)
		go func() {
			if err := admin.Serve(ctx); err != nil {
				log.Error().Err(err).Msg("admin endpoint stopped")
			}
		}()
		log.Info().Str("addr", cfg.AdminAddr).Msg("admin endpoint enabled")
	}

	svc := server.New(server.Config{
		ListenAddr:      cfg.ListenAddr,
		Order:           cfg.Order(),
		ReadBufferBytes: cfg.ReadBufferBytes,
	}, logger)

	if err := svc.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("calculator stopped")
	}
}
