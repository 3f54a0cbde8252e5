// Package probe runs a single websocket connectivity check: connect, wait for
// an unsolicited message, send a minimal config message, wait for a reply.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/suyog1pathak/wsprobe/internal/model"
	"github.com/suyog1pathak/wsprobe/pkg/logger"
)

// Reporter receives the human-readable status lines of a run
type Reporter interface {
	Progress(format string, args ...any)
	Success(format string, args ...any)
	Notice(format string, args ...any)
	Warning(format string, args ...any)
	Failure(format string, args ...any)
}

type runner struct {
	cfg Config
	rep Reporter
	log *slog.Logger
	res *Result
}

// Run executes the probe sequence once. It never returns an error: failures,
// closures and timeouts are all reported through rep and described by the Result.
func Run(ctx context.Context, cfg Config, rep Reporter) Result {
	start := time.Now()
	res := Result{RunID: uuid.NewString()}

	r := &runner{
		cfg: cfg,
		rep: rep,
		log: logger.With("run_id", res.RunID, "url", cfg.URL),
		res: &res,
	}
	r.log.Debug("Starting probe", "idle_wait", cfg.IdleWait, "response_wait", cfg.ResponseWait, "insecure", cfg.Insecure)

	r.execute(ctx)

	res.Duration = time.Since(start)
	attrs := []any{"outcome", res.Outcome, "stage", res.Stage, "duration", res.Duration}
	if res.Outcome == OutcomeClosed {
		attrs = append(attrs, "close_code", res.CloseCode, "close_reason", res.CloseReason)
	}
	if res.Err != nil {
		attrs = append(attrs, "error", res.Err)
	}
	r.log.Info("Probe finished", attrs...)
	return res
}

func (r *runner) execute(ctx context.Context) {
	r.rep.Progress("Connecting to %s...", r.cfg.URL)
	ch, err := Dial(ctx, r.cfg)
	if err != nil {
		r.fail(ctx, CodeDialFailed, StageConnect, err)
		return
	}
	defer func() {
		if err := ch.Close(); err != nil {
			r.log.Debug("Error closing channel", "error", err)
		}
	}()
	r.rep.Success("Connected!")

	r.rep.Progress("Waiting for %s to check stability...", humanDuration(r.cfg.IdleWait))
	obs, err := ch.Await(ctx, r.cfg.IdleWait)
	if err != nil {
		r.fail(ctx, CodeReadFailed, StageIdleWait, err)
		return
	}
	switch obs.Kind {
	case ObservedMessage:
		r.received(obs)
		r.rep.Notice("Received message: %s", obs.Payload)
	case ObservedIdle:
		r.rep.Success("No message received in %s (Connection is stable idle)", humanDuration(r.cfg.IdleWait))
	case ObservedClosed:
		r.rep.Warning("Connection closed during idle wait: %d %s", obs.Code, obs.Reason)
		r.closed(StageIdleWait, obs)
		return
	}

	r.rep.Progress("")
	r.rep.Progress("Sending Minimal Config...")
	payload, err := model.NewConfigMessage().Encode()
	if err != nil {
		r.fail(ctx, CodeEncodeFailed, StageSend, err)
		return
	}
	if err := ch.Send(payload); err != nil {
		r.fail(ctx, CodeSendFailed, StageSend, err)
		return
	}
	r.res.ConfigSent = true
	r.log.Debug("Config message sent", "payload", string(payload))
	r.rep.Success("Minimal Config sent.")

	r.rep.Progress("Waiting for response (should stay open)...")
	obs, err = ch.Await(ctx, r.cfg.ResponseWait)
	if err != nil {
		r.fail(ctx, CodeReadFailed, StageResponseWait, err)
		return
	}
	switch obs.Kind {
	case ObservedMessage:
		r.received(obs)
		r.rep.Notice("Received from server: %s", obs.Payload)
	case ObservedIdle:
		r.rep.Success("No response from server (Stable Connection)")
	case ObservedClosed:
		r.rep.Warning("Connection closed after config: %d %s", obs.Code, obs.Reason)
		r.closed(StageResponseWait, obs)
		return
	}

	r.res.Outcome = OutcomeCompleted
	r.res.Stage = StageResponseWait
}

func (r *runner) received(obs Observation) {
	r.res.Received = append(r.res.Received, string(obs.Payload))
}

func (r *runner) closed(stage Stage, obs Observation) {
	r.res.Outcome = OutcomeClosed
	r.res.Stage = stage
	r.res.CloseCode = obs.Code
	r.res.CloseReason = obs.Reason
}

func (r *runner) fail(ctx context.Context, code string, stage Stage, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		code = CodeCanceled
	}
	perr := &ProbeError{Code: code, Stage: stage, Err: err}

	r.res.Outcome = OutcomeFailed
	r.res.Stage = stage
	r.res.Err = perr
	r.rep.Failure("Failed to connect or error occurred: %v", perr)
}

// humanDuration renders whole seconds as "5 seconds" and anything finer in Go notation
func humanDuration(d time.Duration) string {
	if d%time.Second != 0 {
		return d.String()
	}
	n := int64(d / time.Second)
	if n == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", n)
}
