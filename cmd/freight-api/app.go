package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fofoo/freightdesk/internal/api/freight_api"
)

type freightAPIOpts struct {
	httpAddr string

	onListen func(httpAddr string)
}

func runFreightAPI(ctx context.Context, opts freightAPIOpts, api *freight_api.API) error {
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: api.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
