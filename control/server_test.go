package control

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.viam.com/test"
	"go.viam.com/utils"

	"go.inkdrive.dev/plotterd/config"
	"go.inkdrive.dev/plotterd/device"
	"go.inkdrive.dev/plotterd/driver"
	"go.inkdrive.dev/plotterd/logging"
	"go.inkdrive.dev/plotterd/planner"
)

func newTestServer(t *testing.T) (*Server, *driver.Driver) {
	t.Helper()
	mock := &device.Mock{RealTime: false}
	d := driver.New(mock, config.Default(), logging.TestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	utils.PanicCapturingGo(func() { d.Run(ctx) })
	return New(d, logging.TestLogger(t)), d
}

// TestStartWithoutJobIsRejected covers handleStart's precondition: the
// Control Service refuses to start the Driver until a Job has been loaded
// via POST /jobs.
func TestStartWithoutJobIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/start", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	test.That(t, rec.Code, test.ShouldEqual, http.StatusBadRequest)
}

// TestLoadThenStartJobRunsToCompletion covers the POST /jobs -> POST
// /start happy path: a loaded Job can be started and the Driver runs it to
// completion, ending Idle at the origin.
func TestLoadThenStartJobRunsToCompletion(t *testing.T) {
	srv, d := newTestServer(t)

	cfg := config.Default()
	job, err := planner.Plan([]planner.Polyline{{{X: 1, Y: 1}, {X: 2, Y: 0.5}}}, cfg)
	test.That(t, err, test.ShouldBeNil)

	body, err := json.Marshal(job)
	test.That(t, err, test.ShouldBeNil)

	loadReq := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	loadRec := httptest.NewRecorder()
	srv.router.ServeHTTP(loadRec, loadReq)
	test.That(t, loadRec.Code, test.ShouldEqual, http.StatusAccepted)

	startReq := httptest.NewRequest(http.MethodPost, "/start", nil)
	startRec := httptest.NewRecorder()
	srv.router.ServeHTTP(startRec, startReq)
	test.That(t, startRec.Code, test.ShouldEqual, http.StatusAccepted)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && d.Snapshot().Phase != driver.Idle {
		time.Sleep(time.Millisecond)
	}
	test.That(t, d.Snapshot().Phase, test.ShouldEqual, driver.Idle)
	test.That(t, d.Snapshot().Position.X, test.ShouldEqual, int32(0))
	test.That(t, d.Snapshot().Position.Y, test.ShouldEqual, int32(0))
}

// TestCancelWhenIdleIsRejected covers handleCommand's generic error
// mapping: commands invalid for the Driver's current state surface as a
// 409 rather than a 500.
func TestCancelWhenIdleIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/cancel", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	test.That(t, rec.Code, test.ShouldEqual, http.StatusConflict)
}

// TestWebsocketFanOutToMultipleSubscribers covers SPEC_FULL.md §5
// "Subscriber set": two concurrent /ws clients must each see the full
// event stream, not split it between them.
func TestWebsocketFanOutToMultipleSubscribers(t *testing.T) {
	srv, d := newTestServer(t)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn1, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	test.That(t, err, test.ShouldBeNil)
	defer conn1.Close()
	conn2, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	test.That(t, err, test.ShouldBeNil)
	defer conn2.Close()

	// Give the server a moment to register both subscribers before the
	// Driver starts emitting, so neither misses the first event.
	time.Sleep(20 * time.Millisecond)

	cfg := config.Default()
	job, err := planner.Plan([]planner.Polyline{{{X: 1, Y: 1}, {X: 2, Y: 0.5}}}, cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.Start(job), test.ShouldBeNil)

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		test.That(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)), test.ShouldBeNil)
		_, _, err := conn.ReadMessage()
		test.That(t, err, test.ShouldBeNil)
	}
}
