package server

import (
	"context"
	"encoding/json"

	"github.com/VictoriaMetrics/metrics"
	"github.com/borislavv/framering/pkg/config"
	"github.com/borislavv/framering/pkg/model"
	"github.com/borislavv/framering/pkg/ring"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// Debug exposes the diagnostic surface of a frame ring over fasthttp:
// /metrics (Prometheus text format), /ring (slot order dump), /stats (JSON
// ring counters) and /healthz. It is a development aid, not a data path —
// frames never travel through it.
type Debug struct {
	cfg *config.Capture
	buf *ring.Buffer[*model.Frame]
}

func NewDebug(cfg *config.Capture, buf *ring.Buffer[*model.Frame]) *Debug {
	return &Debug{cfg: cfg, buf: buf}
}

// Handler routes debug endpoints.
func (d *Debug) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/metrics":
		ctx.SetContentType("text/plain; charset=utf-8")
		metrics.WritePrometheus(ctx, true)
	case "/ring":
		ctx.SetContentType("text/plain; charset=utf-8")
		_, _ = ctx.WriteString(d.buf.Dump() + "\n")
	case "/stats":
		ctx.SetContentType("application/json")
		_ = json.NewEncoder(ctx).Encode(d.buf.Stat())
	case "/healthz":
		_, _ = ctx.WriteString("ok")
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

// Run serves the debug endpoints until the context is done.
func (d *Debug) Run(ctx context.Context) error {
	if !d.cfg.Capture.Debug.Enabled {
		return nil
	}

	srv := &fasthttp.Server{
		Handler: d.Handler,
		Name:    "framering-debug",
	}

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			log.Error().Err(err).Msg("[debug] server shutdown error")
		}
	}()

	addr := d.cfg.Capture.Debug.Addr
	log.Info().Msgf("[debug] serving on %s", addr)
	return srv.ListenAndServe(addr)
}
