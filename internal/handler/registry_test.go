package handler

import (
	"net"
	"testing"

	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
	"go.uber.org/zap"
)

func pipeSession(t *testing.T) *gonet.Session {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() {
		serverSide.Close()
		clientSide.Close()
	})
	return gonet.NewSession(serverSide, 1, 8, 8, zap.NewNop())
}

func TestDispatchHonorsSessionState(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	calls := 0
	r.Register(proto.PGMsgWalk, []SessionState{StatePlaying}, func(*Deps, *gonet.Session, *proto.MessageIn) {
		calls++
	})

	sess := pipeSession(t)
	frame := proto.NewMessageOut(proto.PGMsgWalk)
	frame.WriteInt16(10)
	frame.WriteInt16(10)

	// Connecting state: the playing-only handler must not run.
	r.Dispatch(nil, sess, frame.Bytes())
	if calls != 0 {
		t.Fatal("handler ran in a disallowed state")
	}

	r.SetState(sess.ID, StatePlaying)
	r.Dispatch(nil, sess, frame.Bytes())
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.Register(proto.PGMsgSay, []SessionState{StateConnecting}, func(*Deps, *gonet.Session, *proto.MessageIn) {
		panic("handler bug")
	})

	sess := pipeSession(t)
	frame := proto.NewMessageOut(proto.PGMsgSay)
	frame.WriteString("hi")
	r.Dispatch(nil, sess, frame.Bytes()) // must not crash the caller
}

func TestRepeatedProtocolErrorsDisconnect(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	sess := pipeSession(t)

	unknown := proto.NewMessageOut(0x7ABC)
	for i := 0; i < maxProtocolStrikes; i++ {
		r.Dispatch(nil, sess, unknown.Bytes())
	}
	if !sess.IsClosed() {
		t.Error("session survived repeated protocol errors")
	}
}
