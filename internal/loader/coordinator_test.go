package loader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/usercards/internal/users"
)

// scriptedFetcher answers call n with replies[n]. A reply with wait=true
// blocks until its context is canceled, like an abandoned network request.
type scriptedFetcher struct {
	calls   atomic.Int32
	replies []reply
}

type reply struct {
	users []users.User
	err   error
	wait  bool
}

func (f *scriptedFetcher) FetchUsers(ctx context.Context) ([]users.User, error) {
	n := int(f.calls.Add(1)) - 1
	r := f.replies[n]
	if r.wait {
		<-ctx.Done()
		return nil, users.ErrCanceled
	}
	return r.users, r.err
}

type renderLog struct {
	states []State
}

func (l *renderLog) Render(s State) { l.states = append(l.states, s) }

func named(names ...string) []users.User {
	out := make([]users.User, 0, len(names))
	for _, n := range names {
		out = append(out, users.User{Name: n})
	}
	return out
}

func TestLoadSuccessReplacesUsers(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{{users: named("Leanne", "Ervin")}}}
	view := &renderLog{}
	c := New(nil, f, view, nil)

	out := c.Run(context.Background())

	require.Equal(t, StatusSucceeded, out.Status)
	require.Equal(t, 2, out.Count)
	require.NotEmpty(t, out.RequestID)
	st := c.State()
	require.False(t, st.Loading)
	require.NoError(t, st.Err)
	require.Equal(t, named("Leanne", "Ervin"), st.Users)

	require.Len(t, view.states, 2)
	require.True(t, view.states[0].Loading)
	require.False(t, view.states[1].Loading)
}

func TestRapidLoadsOnlyLastResultApplies(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{
		{users: named("first")},
		{users: named("second")},
		{users: named("third")},
	}}
	view := &renderLog{}
	c := New(nil, f, view, nil)
	ctx := context.Background()

	p1 := c.Load(ctx)
	p2 := c.Load(ctx)
	p3 := c.Load(ctx)

	// the stale fetches ignore cancellation and still return data
	r1, r2, r3 := p1(), p2(), p3()

	// complete out of order: newest first, then the stale ones
	require.Equal(t, StatusSucceeded, c.Settle(r3).Status)
	require.Equal(t, StatusSuperseded, c.Settle(r1).Status)
	require.Equal(t, StatusSuperseded, c.Settle(r2).Status)

	require.Equal(t, named("third"), c.State().Users)
	// three loading renders plus one for the applied result
	require.Len(t, view.states, 4)
}

func TestStaleSuccessAfterNewerLoadIsDiscarded(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{
		{users: named("stale")},
		{wait: true},
	}}
	view := &renderLog{}
	c := New(nil, f, view, nil)
	ctx := context.Background()

	p1 := c.Load(ctx)
	r1 := p1()
	c.Load(ctx)
	renders := len(view.states)

	out := c.Settle(r1)

	require.Equal(t, StatusSuperseded, out.Status)
	require.False(t, out.Applied())
	require.Len(t, view.states, renders)
	st := c.State()
	require.True(t, st.Loading)
	require.Empty(t, st.Users)
}

func TestCanceledRequestNeverRendersOrMutates(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{
		{wait: true},
		{users: named("fresh")},
	}}
	view := &renderLog{}
	c := New(nil, f, view, nil)
	ctx := context.Background()

	p1 := c.Load(ctx)
	done := make(chan Result, 1)
	go func() { done <- p1() }()

	p2 := c.Load(ctx) // cancels p1's context
	r1 := <-done
	require.ErrorIs(t, r1.Err, users.ErrCanceled)
	require.ErrorIs(t, r1.Err, context.Canceled)

	before := len(view.states)
	snapshot := c.State()
	out := c.Settle(r1)
	require.Equal(t, StatusSuperseded, out.Status)
	require.Len(t, view.states, before)
	require.Equal(t, snapshot, c.State())

	require.Equal(t, StatusSucceeded, c.Settle(p2()).Status)
	require.Equal(t, named("fresh"), c.State().Users)
}

func TestActiveRequestCanceledByParentIsDiscarded(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{{wait: true}}}
	view := &renderLog{}
	c := New(nil, f, view, nil)

	ctx, cancel := context.WithCancel(context.Background())
	p := c.Load(ctx)
	cancel()

	out := c.Settle(p())
	require.Equal(t, StatusCanceled, out.Status)
	require.Len(t, view.states, 1)
}

func TestCancelDiscardsInFlightResult(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{{users: named("late")}}}
	view := &renderLog{}
	c := New(nil, f, view, nil)

	p := c.Load(context.Background())
	c.Cancel()
	require.Nil(t, c.Active())

	out := c.Settle(p())
	require.Equal(t, StatusSuperseded, out.Status)
	require.Empty(t, c.State().Users)
}

func TestServerErrorSetsErrorAndKeepsPreviousUsers(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{
		{users: named("kept")},
		{err: &users.RequestError{StatusCode: 500, StatusText: "Internal Server Error"}},
	}}
	view := &renderLog{}
	c := New(nil, f, view, nil)
	ctx := context.Background()

	c.Run(ctx)
	out := c.Run(ctx)

	require.Equal(t, StatusFailed, out.Status)
	require.Equal(t, "request", out.ErrKind)
	st := c.State()
	require.False(t, st.Loading)
	var reqErr *users.RequestError
	require.True(t, errors.As(st.Err, &reqErr))
	require.Equal(t, 500, reqErr.StatusCode)
	require.Equal(t, "Request failed: 500 Internal Server Error", st.Err.Error())
	require.Equal(t, named("kept"), st.Users)
}

func TestFormatErrorSurfaces(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{{err: &users.FormatError{Kind: "object"}}}}
	c := New(nil, f, nil, nil)

	out := c.Run(context.Background())

	require.Equal(t, "format", out.ErrKind)
	var fmtErr *users.FormatError
	require.ErrorAs(t, c.State().Err, &fmtErr)
}

func TestLoadClearsPreviousError(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{
		{err: &users.TransportError{Op: "fetch", Err: errors.New("connection refused")}},
		{wait: true},
	}}
	view := &renderLog{}
	c := New(nil, f, view, nil)
	ctx := context.Background()

	c.Run(ctx)
	require.Error(t, c.State().Err)

	c.Load(ctx)
	st := view.states[len(view.states)-1]
	require.True(t, st.Loading)
	require.NoError(t, st.Err)
	c.Cancel()
}

func TestSettleTwiceRendersOnce(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{{users: named("once")}}}
	view := &renderLog{}
	c := New(nil, f, view, nil)

	r := c.Load(context.Background())()
	require.True(t, c.Settle(r).Applied())
	require.False(t, c.Settle(r).Applied())
	require.Len(t, view.states, 2)
	require.Nil(t, c.Active())
}

func TestRendererSeesMutationBeforeRender(t *testing.T) {
	f := &scriptedFetcher{replies: []reply{{users: named("a")}}}
	var c *Coordinator
	var seen []State
	c = New(nil, f, RendererFunc(func(s State) {
		// the snapshot handed over must already match the owned state
		require.Equal(t, c.State(), s)
		seen = append(seen, s)
	}), nil)

	c.Run(context.Background())
	require.Len(t, seen, 2)
}
