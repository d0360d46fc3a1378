package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"streamfinder/internal/api"
	"streamfinder/internal/logging"
	"streamfinder/internal/metrics"
	"streamfinder/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var noEventLog bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stream resolution HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if trimmed := strings.TrimSpace(bind); trimmed != "" {
				cfg.Paths.APIBind = trimmed
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			if !noEventLog {
				teed, eventLog, err := logging.OpenEventLog(logger, cfg.LogDir(), cfg.Logging.Level, cfg.Logging.RetentionDays, time.Now())
				if err != nil {
					logging.WarnWithContext(logger, "event log unavailable", "event_log_unavailable",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check state_dir permissions"),
						logging.String(logging.FieldImpact, "serve logs only go to the console"),
					)
				} else {
					defer eventLog.Close()
					logger = teed
				}
			}
			if cfg.TMDB.APIKey == "" {
				logging.WarnWithContext(logger, "tmdb api key missing", "tmdb_unconfigured",
					logging.String(logging.FieldErrorHint, "set TMDB_API_KEY or tmdb.api_key"),
					logging.String(logging.FieldImpact, "requests must supply title or original_title"),
				)
			}

			recorder := metrics.New()
			return ctx.withService(cmd, logger, recorder, func(svc *api.StreamService) error {
				srv, err := server.New(cfg, svc, recorder, logger)
				if err != nil {
					return err
				}
				if err := srv.Start(signalCtx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s (auth required: %s)\n", srv.Addr(), yesNo(cfg.Paths.APIToken != ""))
				<-signalCtx.Done()
				srv.Stop()
				logger.Info("api server stopped")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	cmd.Flags().BoolVar(&noEventLog, "no-event-log", false, "Do not write the JSON event log under <state_dir>/logs")
	return cmd
}
