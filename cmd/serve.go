package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/batch"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/validate"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for validation requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		batchCfg := cfg.Batch
		batchCfg.Actor = "webhook"
		runner := batch.New(st, validate.New(cfg.Validation), initEnricher(false), batchCfg)
		mux := buildMux(ctx, runner)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			if err := gracefulShutdown(srv, shutdownTimeout); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownTimeout bounds the drain of in-flight requests on SIGTERM.
const shutdownTimeout = 10 * time.Second

// gracefulShutdown drains in-flight requests on a fresh context; the
// cancelled signal context would abort them immediately.
func gracefulShutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

// validateRequest is the webhook payload for a validation run.
type validateRequest struct {
	Name    string           `json:"name"`
	Source  string           `json:"source"`
	Records []model.Provider `json:"records"`
}

func buildMux(ctx context.Context, runner *batch.Runner) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /webhook/validate", func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		source, ok := model.ParseSource(req.Source)
		if !ok {
			http.Error(w, `{"error":"source must be web, mobile, or print"}`, http.StatusBadRequest)
			return
		}
		if len(req.Records) == 0 {
			http.Error(w, `{"error":"records are required"}`, http.StatusBadRequest)
			return
		}

		name := req.Name
		if name == "" {
			name = "webhook"
		}

		records := make([]*model.Provider, 0, len(req.Records))
		for i := range req.Records {
			// server-assigned fields are never taken from the payload
			req.Records[i].ID = ""
			req.Records[i].Status = ""
			req.Records[i].Source = source
			records = append(records, &req.Records[i])
		}

		// Validate asynchronously; the caller polls records by batch.
		go func() {
			summary, err := runner.Run(ctx, name, "webhook", source, records)
			if err != nil {
				zap.L().Error("webhook validation failed",
					zap.String("name", name),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("webhook validation complete",
				zap.String("batch_id", summary.BatchID),
				zap.Int("validated", summary.Validated),
				zap.Int("flagged", summary.Flagged),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "accepted",
			"records": len(records),
		})
	})

	return mux
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
