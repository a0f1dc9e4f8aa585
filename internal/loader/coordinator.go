// Package loader owns the request lifecycle for the user list: it starts
// fetches, cancels superseded ones and applies results to the shared State,
// rendering after every transition.
//
// All methods except the Pending returned by Load must be called from one
// goroutine (the UI event loop). The Pending itself is safe to run anywhere.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jask/usercards/internal/users"
)

// Fetcher retrieves the user list. Implementations must honor ctx cancellation
// and report it as users.ErrCanceled.
type Fetcher interface {
	FetchUsers(ctx context.Context) ([]users.User, error)
}

// Renderer reflects a state snapshot into the view.
type Renderer interface {
	Render(State)
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(State)

func (f RendererFunc) Render(s State) { f(s) }

// State is the shared application state. Users is only meaningful when
// neither Loading nor Err is set.
type State struct {
	Loading bool
	Err     error
	Users   []users.User
}

// Token identifies one request attempt. Supersession is detected by pointer
// identity against the coordinator's active token.
type Token struct {
	ID      string
	cancel  context.CancelFunc
	started time.Time
	settled bool
}

// Result is what a Pending produces once its fetch returns.
type Result struct {
	token *Token
	Users []users.User
	Err   error
}

// Token returns the request the result belongs to.
func (r Result) Token() *Token { return r.token }

// Pending is a suspended fetch. Run it off the event loop and pass its Result
// to Settle.
type Pending func() Result

// Coordinator drives State through Idle -> Loading -> Idle.
type Coordinator struct {
	state  *State
	fetch  Fetcher
	view   Renderer
	active *Token
	log    *slog.Logger
}

// New wires a coordinator around an existing state. A nil logger discards logs.
func New(state *State, fetch Fetcher, view Renderer, logger *slog.Logger) *Coordinator {
	if state == nil {
		state = &State{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{state: state, fetch: fetch, view: view, log: logger}
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() State { return *c.state }

// Active reports the in-flight token, if any.
func (c *Coordinator) Active() *Token {
	if c.active == nil || c.active.settled {
		return nil
	}
	return c.active
}

// Render pushes the current state to the renderer without a transition.
// Used once at startup before the first load.
func (c *Coordinator) Render() { c.render() }

// Load supersedes any in-flight request and enters Loading. The returned
// Pending performs the fetch bound to the new token.
func (c *Coordinator) Load(ctx context.Context) Pending {
	if c.active != nil {
		c.active.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	tok := &Token{ID: uuid.NewString(), cancel: cancel, started: time.Now()}
	c.active = tok

	c.state.Loading = true
	c.state.Err = nil
	c.log.Debug("load started", "request_id", tok.ID)
	c.render()

	fetch := c.fetch
	return func() Result {
		list, err := fetch.FetchUsers(reqCtx)
		return Result{token: tok, Users: list, Err: err}
	}
}

// Settle applies a finished request. Results from superseded or canceled
// requests are discarded without touching state or rendering.
func (c *Coordinator) Settle(r Result) Outcome {
	tok := r.token
	out := Outcome{Status: StatusSuperseded}
	if tok == nil {
		return out
	}
	out.RequestID = tok.ID
	out.Elapsed = time.Since(tok.started)

	if tok != c.active || tok.settled {
		tok.cancel()
		c.log.Debug("load discarded", "request_id", tok.ID, "reason", "superseded")
		return out
	}
	tok.settled = true
	defer tok.cancel()

	if errors.Is(r.Err, users.ErrCanceled) {
		out.Status = StatusCanceled
		c.log.Debug("load discarded", "request_id", tok.ID, "reason", "canceled")
		return out
	}

	if r.Err != nil {
		c.state.Err = r.Err
		out.Status = StatusFailed
		out.ErrKind = users.Kind(r.Err)
		out.Err = r.Err
		c.log.Error("load failed", "request_id", tok.ID, "kind", out.ErrKind, "err", r.Err)
	} else {
		c.state.Users = r.Users
		out.Status = StatusSucceeded
		out.Count = len(r.Users)
		c.log.Info("load succeeded", "request_id", tok.ID, "count", out.Count, "elapsed", out.Elapsed)
	}
	c.state.Loading = false
	c.render()
	return out
}

// Run loads and settles synchronously. For one-shot callers without an event loop.
func (c *Coordinator) Run(ctx context.Context) Outcome {
	return c.Settle(c.Load(ctx)())
}

// Cancel abandons the in-flight request, if any. Its result will be discarded.
func (c *Coordinator) Cancel() {
	if c.active == nil {
		return
	}
	c.active.cancel()
	c.active = nil
}

func (c *Coordinator) render() {
	if c.view != nil {
		c.view.Render(*c.state)
	}
}
