package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"fleetmind.ai/internal/protocol"
	"fleetmind.ai/internal/sim/session"
	"fleetmind.ai/internal/sim/tuning"
	"fleetmind.ai/internal/store"
)

type stubProcessor struct {
	result protocol.CommandResult
}

func (p *stubProcessor) Process(_ context.Context, _ string) protocol.CommandResult {
	return p.result
}

func dialTestServer(t *testing.T, proc session.CommandProcessor) *websocket.Conn {
	t.Helper()
	sess := session.New(session.Config{
		Room:         "ws-test",
		LocalRobotID: "A",
		Tuning:       tuning.Defaults(),
		Seed:         1,
		Processor:    proc,
		Store:        store.NewMemory(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = sess.Run(ctx) }()
	t.Cleanup(cancel)

	logger := log.New(os.Stdout, "[test] ", log.LstdFlags)
	srv := httptest.NewServer(NewServer(sess, logger).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsgOfType(t *testing.T, conn *websocket.Conn, msgType string) []byte {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		if base.Type == msgType {
			return msg
		}
	}
	t.Fatalf("no %s message received", msgType)
	return nil
}

func TestHandshake_Welcome(t *testing.T) {
	conn := dialTestServer(t, &stubProcessor{})

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, Name: "browser"}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("send HELLO: %v", err)
	}

	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(readMsgOfType(t, conn, protocol.TypeWelcome), &welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	if welcome.Room != "ws-test" || welcome.SessionID == "" || len(welcome.Robots) != 2 {
		t.Fatalf("welcome: %+v", welcome)
	}
}

func TestCommand_ResultDelivered(t *testing.T) {
	c := [3]float64{3, 0, 3}
	proc := &stubProcessor{result: protocol.CommandResult{Missions: []protocol.Mission{
		{RobotID: "A", Action: protocol.ActionMove, Coordinates: &c, Message: "moving"},
	}}}
	conn := dialTestServer(t, proc)

	_ = conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version})
	readMsgOfType(t, conn, protocol.TypeWelcome)

	_ = conn.WriteJSON(protocol.CommandMsg{
		Type:            protocol.TypeCommand,
		ProtocolVersion: protocol.Version,
		Command:         "Robot A go",
	})

	var result protocol.ResultMsg
	if err := json.Unmarshal(readMsgOfType(t, conn, protocol.TypeResult), &result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(result.Result.Missions) != 1 {
		t.Fatalf("result: %+v", result.Result)
	}
}

func TestHandshake_RejectsNonHello(t *testing.T) {
	conn := dialTestServer(t, &stubProcessor{})
	_ = conn.WriteJSON(protocol.CommandMsg{Type: protocol.TypeCommand, ProtocolVersion: protocol.Version, Command: "hi"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return // connection closed as expected
		}
	}
}
