package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Mixer/internal/bridge"
	"github.com/dkeye/Mixer/internal/domain"
	"github.com/dkeye/Mixer/internal/emitter"
	"github.com/dkeye/Mixer/internal/registry"
)

// fakeGateway upgrades one connection and answers every request through
// respond, echoing the transaction the client stamped.
type fakeGateway struct {
	t       *testing.T
	srv     *httptest.Server
	respond func(request map[string]any) map[string]any
	push    chan map[string]any
}

func newFakeGateway(t *testing.T, respond func(map[string]any) map[string]any) *fakeGateway {
	t.Helper()
	g := &fakeGateway{t: t, respond: respond, push: make(chan map[string]any, 8)}
	upgrader := websocket.Upgrader{}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Single writer goroutine; push carries both canned responses
		// and unsolicited events.
		go func() {
			for msg := range g.push {
				data, _ := json.Marshal(msg)
				_ = conn.WriteMessage(websocket.TextMessage, data)
			}
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req map[string]any
			if err := json.Unmarshal(data, &req); err != nil {
				continue
			}
			if g.respond == nil {
				continue
			}
			// Answer concurrently so a slow response does not delay
			// later ones.
			go func(req map[string]any) {
				resp := g.respond(req)
				if resp == nil {
					return
				}
				resp["transaction"] = req["transaction"]
				g.push <- resp
			}(req)
		}
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGateway) url() string {
	return "ws" + strings.TrimPrefix(g.srv.URL, "http")
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRequestRoundTripOverWebSocket(t *testing.T) {
	req := require.New(t)
	seenCh := make(chan map[string]any, 1)
	gw := newFakeGateway(t, func(r map[string]any) map[string]any {
		seenCh <- r
		return map[string]any{"audiobridge": "success", "room": r["room"], "exists": true}
	})

	client, err := Dial(testCtx(t), gw.url(), Options{})
	req.NoError(err)
	defer client.Close()

	h := client.Attach(registry.New(), emitter.New())
	out, err := h.Exists(testCtx(t), domain.NumericID(1))
	req.NoError(err)
	req.True(out.Exists)
	req.Equal(domain.NumericID(1), out.Room)

	seen := <-seenCh
	req.Equal("exists", seen["request"])
	req.NotEmpty(seen["transaction"])
}

func TestPushNotificationReachesSubscriber(t *testing.T) {
	req := require.New(t)
	gw := newFakeGateway(t, nil)

	client, err := Dial(testCtx(t), gw.url(), Options{})
	req.NoError(err)
	defer client.Close()

	emit := emitter.New()
	client.Attach(registry.New(), emit)
	events, stop := emit.Subscribe(4)
	defer stop()

	gw.push <- map[string]any{
		"audiobridge":  "joined",
		"room":         "R1",
		"participants": []map[string]any{{"id": 9, "display": "Bob"}},
	}

	select {
	case n := <-events:
		req.Equal(bridge.EventPeerJoined, n.Kind)
		peer := n.Data.(*bridge.PeerData)
		req.Equal(domain.NumericID(9), peer.Feed)
		req.Equal("Bob", peer.Display)
	case <-time.After(2 * time.Second):
		t.Fatal("push notification never arrived")
	}
}

func TestResponsesCorrelateByTransactionNotOrder(t *testing.T) {
	req := require.New(t)
	// Answer "exists" slowly and "list" immediately, so the second
	// request's response arrives first.
	gw := newFakeGateway(t, func(r map[string]any) map[string]any {
		if r["request"] == "exists" {
			time.Sleep(100 * time.Millisecond)
			return map[string]any{"audiobridge": "success", "room": r["room"], "exists": true}
		}
		return map[string]any{"audiobridge": "success", "list": []map[string]any{{"room": 1}}}
	})

	client, err := Dial(testCtx(t), gw.url(), Options{})
	req.NoError(err)
	defer client.Close()

	h := client.Attach(registry.New(), emitter.New())
	ctx := testCtx(t)

	existsErr := make(chan error, 1)
	go func() {
		_, err := h.Exists(ctx, domain.NumericID(1))
		existsErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	list, err := h.ListRooms(ctx)
	req.NoError(err)
	req.Len(list, 1)
	req.NoError(<-existsErr)
}

func TestClosedClientRefusesRequests(t *testing.T) {
	req := require.New(t)
	gw := newFakeGateway(t, nil)

	client, err := Dial(testCtx(t), gw.url(), Options{})
	req.NoError(err)

	h := client.Attach(registry.New(), emitter.New())
	client.Close()

	_, err = h.Exists(testCtx(t), domain.NumericID(1))
	req.ErrorIs(err, ErrClosed)
}
