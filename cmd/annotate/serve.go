package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akeil/annotate/internal/logging"
	"github.com/akeil/annotate/pkg/session"
)

func doServe(s settings, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := session.New(s.options())
	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		srv.Run(ctx)
		return nil
	})
	group.Go(func() error {
		fmt.Printf("Serving on http://%v/\n", addr)
		err := hs.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		logging.Info("Shutting down")
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdown)
	})

	return group.Wait()
}
