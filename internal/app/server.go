package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/procbridge/internal/ctxlog"
	"github.com/vk/procbridge/internal/proc"
	"github.com/vk/procbridge/internal/registry"
	"github.com/vk/procbridge/internal/signature"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// MaxCallBodyBytes caps the JSON argument array accepted by POST /call.
const MaxCallBodyBytes = 1 << 20

// Handler returns the HTTP surface of the application.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.metrics.Gatherer(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /procedures", a.proceduresHandler)
	mux.HandleFunc("POST /call/{name}", a.callHandler)
	return mux
}

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

type procedureInfo struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

func (a *App) proceduresHandler(w http.ResponseWriter, r *http.Request) {
	procs := a.registry.Procedures()
	out := make([]procedureInfo, 0, len(procs))
	for _, p := range procs {
		out = append(out, procedureInfo{Name: p.Name(), Signature: p.String()})
	}
	writeJSON(w, http.StatusOK, out)
}

type callResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// callHandler invokes a procedure with a JSON array of positional arguments.
func (a *App) callHandler(w http.ResponseWriter, r *http.Request) {
	ctx := ctxlog.WithLogger(r.Context(), a.logger)
	name := r.PathValue("name")

	var raw []json.RawMessage
	body := http.MaxBytesReader(w, r.Body, MaxCallBodyBytes)
	if err := json.NewDecoder(body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be a JSON array: " + err.Error()})
		return
	}
	args, err := jsonArgs(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := a.executor.Call(ctx, name, args)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, callResponse{Columns: res.Columns, Rows: res.Rows})
}

func jsonArgs(raw []json.RawMessage) ([]cty.Value, error) {
	out := make([]cty.Value, 0, len(raw))
	for i, msg := range raw {
		ty, err := ctyjson.ImpliedType(msg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		if ty == cty.DynamicPseudoType {
			// Only a JSON null has no implied type.
			out = append(out, cty.NullVal(cty.DynamicPseudoType))
			continue
		}
		v, err := ctyjson.Unmarshal(msg, ty)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, signature.ErrArgument):
		return http.StatusBadRequest
	case errors.Is(err, proc.ErrOutOfRange), errors.Is(err, proc.ErrKeyNotFound):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the HTTP surface on addr until ctx is cancelled, then shuts the
// server down gracefully.
func (a *App) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return a.serve(ctx, ln)
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	a.httpServer = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting.", "address", ln.Addr().String())
		errCh <- a.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Info("Shutting down server...")
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown failed", "error", err)
		return err
	}
	a.logger.Debug("Server shut down gracefully.")
	return nil
}
