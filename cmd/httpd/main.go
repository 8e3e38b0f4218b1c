package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go/config"
	"github.com/nczempin/httpd-go/resolver"
	"github.com/nczempin/httpd-go/server"
	"github.com/nczempin/httpd-go/transport"
)

const (
	defaultHost    = "0.0.0.0"
	defaultBacklog = 10
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [config-file]\n", os.Args[0])
	}
	flag.Parse()

	path := config.DefaultPath
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := run(path, log); err != nil {
		log.Error().Err(err).Msg("startup failed")
		os.Exit(1)
	}
}

func run(path string, log zerolog.Logger) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.GetDefault(config.KeyLogLevel, "info"))
	if err != nil {
		return err
	}
	log = log.Level(level)

	port, err := cfg.Port()
	if err != nil {
		return err
	}
	backlog, err := cfg.Int(config.KeyBacklog, defaultBacklog)
	if err != nil {
		return err
	}
	bufferSize, err := cfg.Int(config.KeyBufferSize, server.DefaultBufferSize)
	if err != nil {
		return err
	}

	backend := cfg.GetDefault(config.KeyIoBackend, transport.BackendSyscall)
	tr, err := transport.New(backend)
	if err != nil {
		return err
	}
	defer tr.Destroy()

	l, err := transport.Listen(cfg.GetDefault(config.KeyHost, defaultHost), port, backlog)
	if err != nil {
		return err
	}

	handler := server.NewStaticHandler(resolver.New(cfg, nil), log)
	reactor, err := server.New(l, tr, handler, server.Options{
		BufferSize: bufferSize,
		Logger:     log,
	})
	if err != nil {
		l.Close()
		return err
	}
	defer reactor.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("addr", reactor.Addr()).
		Str("root", cfg.Get(config.KeyRoot)).
		Str("backend", backend).
		Msg("listening")

	if err := reactor.Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}
