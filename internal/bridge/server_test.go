package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/env"
	"jordanella.com/kanjuden-gym/internal/input"
)

type fakeEnv struct {
	actions  []input.Action
	rendered []string
}

func (f *fakeEnv) Reset(ctx context.Context) (cv.Frame, error) {
	return cv.Zeros([]int{2, 3})
}

func (f *fakeEnv) Step(ctx context.Context, action input.Action) (env.StepResult, error) {
	f.actions = append(f.actions, action)
	frame := cv.Frame{Width: 3, Height: 2, Channels: 1, Pix: []uint8{1, 2, 3, 4, 5, 6}}
	if action == 4 {
		return env.StepResult{Observation: frame, Reward: -100, Done: true,
			Info: map[string]interface{}{"event": "mission_incomplete"}}, nil
	}
	return env.StepResult{Observation: frame, Info: map[string]interface{}{}}, nil
}

func (f *fakeEnv) Render(ctx context.Context, mode string) error {
	if mode != env.RenderModeHuman {
		return env.ErrUnsupportedMode
	}
	f.rendered = append(f.rendered, mode)
	return nil
}

func (f *fakeEnv) ActionSpace() int        { return 18 }
func (f *fakeEnv) ObservationShape() []int { return []int{2, 3} }
func (f *fakeEnv) State() env.State        { return env.StateReady }

// blockingEnv holds Step until its context ends
type blockingEnv struct {
	fakeEnv
	entered chan struct{}
	result  chan error
}

func (b *blockingEnv) Step(ctx context.Context, action input.Action) (env.StepResult, error) {
	close(b.entered)
	<-ctx.Done()
	b.result <- ctx.Err()
	return env.StepResult{}, ctx.Err()
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/env"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	return conn
}

func call(t *testing.T, conn *websocket.Conn, req Request) Response {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return resp
}

func TestBridgeCommands(t *testing.T) {
	fe := &fakeEnv{}
	srv := NewServer(fe, DefaultConfig("127.0.0.1:0"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	spec := call(t, conn, Request{Cmd: CmdSpec})
	if spec.ActionSpace != 18 || len(spec.ObservationShape) != 2 {
		t.Errorf("Unexpected spec response: %+v", spec)
	}

	reset := call(t, conn, Request{Cmd: CmdReset})
	if reset.Error != "" || reset.Observation == nil || len(reset.Observation.Data) != 6 {
		t.Fatalf("Unexpected reset response: %+v", reset)
	}
	for _, v := range reset.Observation.Data {
		if v != 0 {
			t.Fatalf("Expected zero observation, got %v", reset.Observation.Data)
		}
	}

	step := call(t, conn, Request{Cmd: CmdStep, Action: 3})
	if step.Done || step.Reward != 0 || string(step.Observation.Data) != string([]byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("Unexpected step response: %+v", step)
	}

	terminal := call(t, conn, Request{Cmd: CmdStep, Action: 4})
	if !terminal.Done || terminal.Reward != -100 || terminal.Info["event"] != "mission_incomplete" {
		t.Errorf("Unexpected terminal response: %+v", terminal)
	}

	render := call(t, conn, Request{Cmd: CmdRender, Mode: "rgb_array"})
	if !strings.Contains(render.Error, env.ErrUnsupportedMode.Error()) {
		t.Errorf("Expected unsupported mode error, got %+v", render)
	}
	if r := call(t, conn, Request{Cmd: CmdRender}); r.Error != "" {
		t.Errorf("Expected human render to succeed, got %q", r.Error)
	}

	unknown := call(t, conn, Request{Cmd: "close"})
	if unknown.Error == "" {
		t.Error("Expected error for unknown command")
	}

	if len(fe.actions) != 2 || fe.actions[0] != 3 || fe.actions[1] != 4 {
		t.Errorf("Unexpected actions forwarded: %v", fe.actions)
	}
	if srv.Handled() != 7 {
		t.Errorf("Expected 7 handled requests, got %d", srv.Handled())
	}
}

func TestBridgeRejectsSecondClient(t *testing.T) {
	srv := NewServer(&fakeEnv{}, DefaultConfig("127.0.0.1:0"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	first := dial(t, ts)
	defer first.Close()
	// Round trip so the first connection is registered
	call(t, first, Request{Cmd: CmdSpec})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/env"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Expected second dial to fail")
	}
	if !errors.Is(err, websocket.ErrBadHandshake) || resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 bad handshake, got %v", err)
	}
}

func TestBridgeInvalidJSON(t *testing.T) {
	srv := NewServer(&fakeEnv{}, DefaultConfig("127.0.0.1:0"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Error, "invalid request") {
		t.Errorf("Expected invalid request error, got %+v", resp)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := NewServer(&fakeEnv{}, DefaultConfig("127.0.0.1:0"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["state"] != "ready" || body["handled"] != float64(0) {
		t.Errorf("Unexpected health body: %v", body)
	}
}

func TestBridgeRejectsOutOfRangeAction(t *testing.T) {
	fe := &fakeEnv{}
	srv := NewServer(fe, DefaultConfig("127.0.0.1:0"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()

	for _, action := range []int{18, -1} {
		resp := call(t, conn, Request{Cmd: CmdStep, Action: action})
		if !strings.Contains(resp.Error, "outside 0..17") || resp.Observation != nil {
			t.Errorf("Action %d: expected range error, got %+v", action, resp)
		}
	}
	if len(fe.actions) != 0 {
		t.Errorf("Out of range actions reached the environment: %v", fe.actions)
	}

	if resp := call(t, conn, Request{Cmd: CmdStep, Action: 17}); resp.Error != "" {
		t.Errorf("Expected last action to be accepted, got %q", resp.Error)
	}
}

func TestBridgeStepStopsWithServerContext(t *testing.T) {
	be := &blockingEnv{entered: make(chan struct{}), result: make(chan error, 1)}
	srv := NewServer(be, DefaultConfig("127.0.0.1:0"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := httptest.NewUnstartedServer(nil)
	ts.Config = srv.httpServer(ctx)
	ts.Start()
	defer ts.Close()

	conn := dial(t, ts)
	defer conn.Close()
	if err := conn.WriteJSON(Request{Cmd: CmdStep, Action: 2}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-be.entered:
	case <-time.After(time.Second):
		t.Fatal("Step was not called")
	}
	cancel()

	select {
	case err := <-be.result:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Step did not observe the server context ending")
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var resp Response
	// the reply may race the close; either way no result is delivered
	if err := conn.ReadJSON(&resp); err == nil && resp.Error == "" {
		t.Errorf("Expected an error or a closed connection, got %+v", resp)
	}
}
