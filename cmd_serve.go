package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hub/realtime"
	"hub/router"
	"hub/services"
	"hub/tools"
	"hub/workers"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.Close()
	log := env.log

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if setup, _ := cmd.Flags().GetBool("setup"); setup {
		if err := env.adminServices().Setup.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	audit := workers.StartAuditWriter(env.store, env.conf.Workers.AuditBuffer, log.Component("audit"))
	hub := realtime.NewHub(log.Component("realtime"))
	deps := services.Deps{
		Auditor:   audit,
		Publisher: hub,
		Mailer:    tools.NewResendMailer(env.conf.Resend.URL, env.conf.Resend.APIKey, env.conf.Resend.From, env.conf.AppURL, log.Component("mail")),
	}
	umami := tools.NewUmamiClient(env.conf.Umami.URL, env.conf.Umami.Username, env.conf.Umami.Password,
		env.conf.Umami.WebsiteID, time.Duration(env.conf.Umami.TokenTTLHour)*time.Hour)
	if umami.Configured() {
		deps.Analytics = umami
	} else {
		log.Warn().Msg("umami not configured, analytics disabled")
	}
	svc := services.New(env.store, env.conf, deps, log.Component("services"))

	if env.conf.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	router.Initialize(r, svc, hub, env.conf, log.Component("http"))
	srv := &http.Server{
		Addr:              ":" + env.conf.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitor := workers.NewSessionJanitor(env.store,
		time.Duration(env.conf.Workers.SessionCleanupSeconds)*time.Second,
		env.conf.Workers.SessionCleanupPageSize,
		log.Component("sessions"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		janitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("store", env.conf.Store).Msg("hub listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		hub.Close()
		err := srv.Shutdown(shutdownCtx)
		if cerr := audit.Close(shutdownCtx); cerr != nil {
			log.Error().Err(cerr).Msg("audit queue not drained")
		}
		return err
	})
	return g.Wait()
}
