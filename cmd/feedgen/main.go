// Command feedgen generates and serves the church media feeds.
//
//	build    Fetch the provider catalog and write the base Roku feed + video podcast RSS
//	enhance  Read the base Roku feed and write the enhanced/publisher feeds
//	audio    Extract the phone-quality MP3 from the newest episode
//	run      Full pipeline: build, enhance, audio, run summary. For cron/CI.
//	serve    Serve the generated files over HTTP with /healthz and /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heritagemedia/feedgen/internal/config"
	"github.com/heritagemedia/feedgen/internal/log"
	"github.com/heritagemedia/feedgen/internal/pipeline"
	"github.com/heritagemedia/feedgen/internal/server"
)

func main() {
	buildCmd := flag.NewFlagSet("build", flag.ExitOnError)
	buildDir := buildCmd.String("config", "", "directory holding config.json (default: working directory)")

	enhanceCmd := flag.NewFlagSet("enhance", flag.ExitOnError)
	enhanceDir := enhanceCmd.String("config", "", "directory holding config.json")

	audioCmd := flag.NewFlagSet("audio", flag.ExitOnError)
	audioDir := audioCmd.String("config", "", "directory holding config.json")

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	runDir := runCmd.String("config", "", "directory holding config.json")

	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	serveDir := serveCmd.String("config", "", "directory holding config.json")
	serveListen := serveCmd.String("listen", "", "listen address (overrides config)")

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <build|enhance|audio|run|serve> [flags]\n", os.Args[0])
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		_ = buildCmd.Parse(os.Args[2:])
		cfg := mustLoad(*buildDir)
		p := pipeline.New(cfg)
		summary := pipeline.NewRunSummary(time.Now())
		ctx, stop := signalContext()
		defer stop()
		if _, err := p.Build(ctx, summary); err != nil {
			fail(err)
		}

	case "enhance":
		_ = enhanceCmd.Parse(os.Args[2:])
		cfg := mustLoad(*enhanceDir)
		p := pipeline.New(cfg)
		summary := pipeline.NewRunSummary(time.Now())
		ctx, stop := signalContext()
		defer stop()
		res, err := p.Enhance(ctx, summary)
		if err != nil {
			fail(err)
		}
		logger := log.Base()
		logger.Info().
			Int("total", res.Summary.TotalMovies).
			Bool("live", res.Summary.IsLiveServiceTime).
			Msg("enhancement complete")

	case "audio":
		_ = audioCmd.Parse(os.Args[2:])
		cfg := mustLoad(*audioDir)
		summary := pipeline.NewRunSummary(time.Now())
		ctx, stop := signalContext()
		defer stop()
		if err := pipeline.New(cfg).AudioFromDisk(ctx, summary); err != nil {
			fail(err)
		}

	case "run":
		_ = runCmd.Parse(os.Args[2:])
		cfg := mustLoad(*runDir)
		ctx, stop := signalContext()
		defer stop()
		summary, err := pipeline.New(cfg).Run(ctx)
		if err != nil {
			fail(err)
		}
		logger := log.Base()
		for name, result := range summary.Outputs {
			logger.Info().Str("output", name).Str("status", string(result.Status)).Msg("run result")
		}

	case "serve":
		_ = serveCmd.Parse(os.Args[2:])
		cfg := mustLoad(*serveDir)
		if *serveListen != "" {
			cfg.Server.Listen = *serveListen
		}
		srv := server.New(cfg)
		ctx, stop := signalContext()
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger := log.Base()
		logger.Info().Str("listen", cfg.Server.Listen).Msg("serving feeds")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fail(err)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

func mustLoad(dir string) *config.Config {
	cfg, err := config.Load(dir)
	if err != nil {
		fail(err)
	}
	log.Configure(log.Config{Level: cfg.Logging.Level, Console: cfg.Logging.Console})
	return cfg
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func fail(err error) {
	logger := log.Base()
	logger.Error().Err(err).Msg("feedgen failed")
	os.Exit(1)
}
