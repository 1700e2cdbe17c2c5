package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Mixer/internal/domain"
)

// loopback captures the outgoing body and feeds a synthesized response back
// through the handle's dispatcher, so operations run their full round trip
// without a transport.
type loopback struct {
	h       *Handle
	last    map[string]any
	respond func(tx string) *Envelope
}

func (s *loopback) SendRequest(_ context.Context, tx string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	s.last = map[string]any{}
	if err := json.Unmarshal(raw, &s.last); err != nil {
		return err
	}
	if s.respond != nil {
		env := s.respond(tx)
		env.Transaction = tx
		s.h.Dispatch(env)
	}
	return nil
}

func newLoopbackHandle() (*Handle, *loopback) {
	send := &loopback{}
	h := NewHandle(send, newFakeRegistry(), &fakeEmitter{})
	send.h = h
	return h, send
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestJoinSendsOnlySetFields(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	send.respond = func(string) *Envelope {
		room := domain.StringID("R1")
		id := domain.NumericID(42)
		return &Envelope{AudioBridge: tagJoined, Room: &room, ID: &id}
	}

	_, err := h.Join(testCtx(t), JoinOptions{
		Room:    domain.StringID("R1"),
		Display: Ptr("Alice"),
		Muted:   Ptr(true),
	})
	req.NoError(err)

	req.Equal("join", send.last["request"])
	req.Equal("R1", send.last["room"])
	req.Equal("Alice", send.last["display"])
	req.Equal(true, send.last["muted"])
	req.NotContains(send.last, "pin")
	req.NotContains(send.last, "token")
	req.NotContains(send.last, "quality")
	req.NotContains(send.last, "volume")
	req.NotContains(send.last, "record")

	req.Equal(domain.NumericID(42), h.Feed())
	req.Equal(domain.StringID("R1"), h.Room())
}

func TestConfigureEchoesSentFields(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	h.bind(domain.NumericID(42), domain.StringID("R1"))
	send.respond = func(string) *Envelope {
		return &Envelope{AudioBridge: tagEvent, Result: "ok"}
	}

	out, err := h.Configure(testCtx(t), ConfigureOptions{
		Muted:  Ptr(true),
		Volume: Ptr(50),
	})
	req.NoError(err)

	// The raw ack carries no payload; the result is rebuilt locally.
	req.Equal(domain.StringID("R1"), out.Room)
	req.Equal(domain.NumericID(42), out.Feed)
	req.True(*out.Muted)
	req.Equal(50, *out.Volume)
	req.Nil(out.Display)
	req.Nil(out.Quality)

	req.Equal("configure", send.last["request"])
	req.Equal(true, send.last["muted"])
	req.Equal(float64(50), send.last["volume"])
	req.NotContains(send.last, "display")
}

func TestKickMergesTargetOntoResult(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	send.respond = func(string) *Envelope {
		room := domain.StringID("R1")
		return &Envelope{AudioBridge: tagSuccess, Room: &room}
	}

	out, err := h.Kick(testCtx(t), domain.StringID("R1"), domain.NumericID(7), nil)
	req.NoError(err)
	req.Equal(domain.StringID("R1"), out.Room)
	req.Equal(domain.NumericID(7), out.Feed)

	req.Equal("kick", send.last["request"])
	req.Equal(float64(7), send.last["id"])
	req.NotContains(send.last, "secret")
}

func TestKickSendsSecretWhenGiven(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	send.respond = func(string) *Envelope {
		return &Envelope{AudioBridge: tagSuccess}
	}

	_, err := h.Kick(testCtx(t), domain.NumericID(1), domain.NumericID(7),
		&AdminOptions{Secret: Ptr("adminpwd")})
	req.NoError(err)
	req.Equal("adminpwd", send.last["secret"])
}

func TestContractViolationOnKindMismatch(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	send.respond = func(string) *Envelope {
		// exists response where a rooms list was expected
		exists := true
		room := domain.NumericID(1)
		return &Envelope{AudioBridge: tagSuccess, Room: &room, Exists: &exists}
	}

	_, err := h.ListRooms(testCtx(t))
	req.ErrorIs(err, ErrContract)
}

func TestProtocolErrorRejectsOnlyThatRequest(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	send.respond = func(string) *Envelope {
		return &Envelope{AudioBridge: tagEvent, Error: "room exists", ErrorCode: 486}
	}

	_, err := h.Create(testCtx(t), CreateOptions{Room: domain.NumericID(1)})
	var perr *ProtocolError
	req.ErrorAs(err, &perr)
	req.Equal(486, perr.Code)
	req.Equal("room exists", perr.Message)
}

func TestCreateSendsOptionalFields(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	send.respond = func(string) *Envelope {
		room := domain.NumericID(1)
		perm := true
		return &Envelope{AudioBridge: tagCreated, Room: &room, Permanent: &perm}
	}

	out, err := h.Create(testCtx(t), CreateOptions{
		Room:         domain.NumericID(1),
		Description:  Ptr("standup"),
		SamplingRate: Ptr(16000),
		Permanent:    Ptr(true),
		Groups:       []string{"a", "b"},
	})
	req.NoError(err)
	req.True(out.Permanent)
	req.Equal(domain.NumericID(1), out.Room)

	req.Equal("create", send.last["request"])
	req.Equal("standup", send.last["description"])
	req.Equal(float64(16000), send.last["sampling_rate"])
	req.Equal([]any{"a", "b"}, send.last["groups"])
	req.NotContains(send.last, "pin")
	req.NotContains(send.last, "secret")
}

func TestAllowCarriesTokenList(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	send.respond = func(string) *Envelope {
		room := domain.NumericID(1)
		return &Envelope{AudioBridge: tagSuccess, Room: &room, Allowed: []string{"tok1", "tok2"}}
	}

	out, err := h.Allow(testCtx(t), AllowOptions{
		Room:    domain.NumericID(1),
		Action:  "add",
		Allowed: []string{"tok1", "tok2"},
	})
	req.NoError(err)
	req.Equal([]string{"tok1", "tok2"}, out.Allowed)

	req.Equal("allowed", send.last["request"])
	req.Equal("add", send.last["action"])
}

func TestForwardRoundTrip(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	send.respond = func(string) *Envelope {
		room := domain.NumericID(1)
		stream := domain.NumericID(77)
		return &Envelope{
			AudioBridge: tagSuccess,
			Room:        &room,
			Host:        "10.0.0.1",
			Port:        5002,
			StreamID:    &stream,
		}
	}

	out, err := h.StartForward(testCtx(t), ForwardOptions{
		Room: domain.NumericID(1),
		Host: "10.0.0.1",
		Port: 5002,
	})
	req.NoError(err)
	req.Equal(domain.NumericID(77), out.StreamID)
	req.Equal("rtp_forward", send.last["request"])

	stopped, err := h.StopForward(testCtx(t), domain.NumericID(1), domain.NumericID(77), nil)
	req.NoError(err)
	req.Equal(domain.NumericID(77), stopped.StreamID)
	req.Equal("stop_rtp_forward", send.last["request"])
	req.Equal(float64(77), send.last["stream_id"])
}

func TestLeaveClearsBinding(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	h.bind(domain.NumericID(42), domain.StringID("R1"))
	send.respond = func(string) *Envelope {
		room := domain.StringID("R1")
		id := domain.NumericID(42)
		return &Envelope{AudioBridge: tagLeft, Room: &room, ID: &id}
	}

	out, err := h.Leave(testCtx(t))
	req.NoError(err)
	req.Equal(domain.NumericID(42), out.Feed)
	req.True(h.Feed().IsZero())
	req.True(h.Room().IsZero())
}

func TestOperationTimesOutWithoutResponse(t *testing.T) {
	req := require.New(t)
	h, send := newLoopbackHandle()
	send.respond = nil // gateway never answers

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.Exists(ctx, domain.NumericID(1))
	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestOperationOnDetachedHandle(t *testing.T) {
	req := require.New(t)
	h, _ := newLoopbackHandle()
	h.Detach()

	_, err := h.ListRooms(testCtx(t))
	req.ErrorIs(err, ErrDetached)
}
