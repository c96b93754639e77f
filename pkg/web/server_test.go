package web

import (
	"encoding/json"
	"image/color"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/teslashibe/eyesim/pkg/control"
	"github.com/teslashibe/eyesim/pkg/eye"
	"github.com/teslashibe/eyesim/pkg/hub"
	"github.com/teslashibe/eyesim/pkg/pipeline"
)

func newTestServer(t *testing.T) (*Server, *control.State) {
	t.Helper()
	ctl := control.New(eye.DefaultPalette())
	return NewServer(":0", "test-session", ctl), ctl
}

func do(t *testing.T, s *Server, method, path, body string) (int, StateResponse) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out StateResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t)
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "/ws/preview")
}

func TestGetState(t *testing.T) {
	s, _ := newTestServer(t)
	code, st := do(t, s, http.MethodGet, "/api/state", "")

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "#ffffff", st.ScleraColor)
	assert.Equal(t, "#00ff00", st.IrisColor)
	assert.Equal(t, "#000000", st.PupilColor)
	assert.True(t, st.TrackingEnabled)
	assert.Equal(t, control.LabelStop, st.ToggleLabel)
	assert.Equal(t, "test-session", st.SessionID)
}

func TestSetColor(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantIris color.RGBA
	}{
		{"hex", "/api/colors/iris", `{"color":"#0000ff"}`, http.StatusOK, color.RGBA{B: 255, A: 255}},
		{"named", "/api/colors/iris", `{"color":"red"}`, http.StatusOK, color.RGBA{R: 255, A: 255}},
		{"cancelled flag", "/api/colors/iris", `{"cancelled":true,"color":"#0000ff"}`, http.StatusOK, color.RGBA{G: 255, A: 255}},
		{"empty color", "/api/colors/iris", `{"color":""}`, http.StatusOK, color.RGBA{G: 255, A: 255}},
		{"no body", "/api/colors/iris", "", http.StatusOK, color.RGBA{G: 255, A: 255}},
		{"invalid color", "/api/colors/iris", `{"color":"#zz"}`, http.StatusBadRequest, color.RGBA{G: 255, A: 255}},
		{"malformed body", "/api/colors/iris", `{`, http.StatusBadRequest, color.RGBA{G: 255, A: 255}},
		{"unknown part", "/api/colors/eyelid", `{"color":"#0000ff"}`, http.StatusNotFound, color.RGBA{G: 255, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ctl := newTestServer(t)
			code, _ := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantIris, ctl.Color(eye.Iris))
		})
	}
}

func TestSetColor_EyeAlias(t *testing.T) {
	s, ctl := newTestServer(t)
	code, st := do(t, s, http.MethodPost, "/api/colors/eye", `{"color":"#123456"}`)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "#123456", st.ScleraColor)
	assert.Equal(t, color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 255}, ctl.Color(eye.Sclera))
}

func TestToggle(t *testing.T) {
	s, ctl := newTestServer(t)

	code, st := do(t, s, http.MethodPost, "/api/tracking/toggle", "")
	require.Equal(t, http.StatusOK, code)
	assert.False(t, st.TrackingEnabled)
	assert.Equal(t, control.LabelStart, st.ToggleLabel)
	assert.False(t, ctl.TrackingEnabled())

	_, st = do(t, s, http.MethodPost, "/api/tracking/toggle", "")
	assert.True(t, st.TrackingEnabled)
	assert.Equal(t, control.LabelStop, st.ToggleLabel)
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/stats", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	s.StatsFunc = func() pipeline.Stats {
		return pipeline.Stats{State: "running", FramesRead: 12, FramesProcessed: 10, FramesPaused: 2}
	}
	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/api/stats", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SessionID string         `json:"session_id"`
		Pipeline  pipeline.Stats `json:"pipeline"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "test-session", body.SessionID)
	assert.EqualValues(t, 10, body.Pipeline.FramesProcessed)
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t)
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/ws/status", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestStatusWebsocket(t *testing.T) {
	s, ctl := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go s.Serve(ln)
	defer s.Shutdown()

	url := "ws://" + ln.Addr().String() + "/ws/status"
	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()

	read := func() StateResponse {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var st StateResponse
		require.NoError(t, conn.ReadJSON(&st))
		return st
	}

	first := read()
	assert.True(t, first.TrackingEnabled)
	assert.Equal(t, "test-session", first.SessionID)

	require.Eventually(t, func() bool { return s.StatusHub().ClientCount() == 1 }, time.Second, time.Millisecond)
	ctl.SetTracking(false)

	next := read()
	assert.False(t, next.TrackingEnabled)
	assert.Equal(t, control.LabelStart, next.ToggleLabel)
}

func TestPreviewSink(t *testing.T) {
	h := hub.New("preview", 4) // not running: queued messages stay put
	sink := NewPreviewSink(h)

	frame := gocv.NewMatWithSize(108, 192, gocv.MatTypeCV8UC3)
	defer frame.Close()

	// No clients: nothing is encoded or queued.
	require.NoError(t, sink.Write(frame))
	assert.Zero(t, sink.Sent())
	assert.NoError(t, sink.Close())
}
