package system

import (
	"net"
	"testing"
	"time"

	"github.com/emberfall/server/internal/component"
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/geom"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/net/proto"
	"go.uber.org/zap"
)

// attachSession wires a pipe-backed session to a character so the
// awareness pass treats it as an observer. Returns the frames the client
// side of the pipe receives.
func attachSession(t *testing.T, f *fixture, id uint64, observer ecs.EntityID) chan []byte {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	sess := gonet.NewSession(serverSide, id, 128, 256, zap.NewNop())
	sess.Start()

	f.deps.Sessions[id] = sess
	f.deps.Players[id] = observer
	f.deps.State.Stores.Characters.MustGet(observer).SessionID = id

	frames := make(chan []byte, 256)
	go func() {
		for {
			payload, err := gonet.ReadFrame(clientSide)
			if err != nil {
				close(frames)
				return
			}
			frames <- payload
		}
	}()
	t.Cleanup(func() {
		sess.Close()
		clientSide.Close()
	})
	return frames
}

// waitForMessage ticks the simulation until a frame with the wanted id
// arrives or the tick budget runs out.
func waitForMessage(t *testing.T, f *fixture, frames chan []byte, want uint16, maxTicks int) *proto.MessageIn {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		f.tick(1)
		deadline := time.After(50 * time.Millisecond)
	drain:
		for {
			select {
			case data, ok := <-frames:
				if !ok {
					t.Fatal("session closed while waiting")
				}
				msg := proto.NewMessageIn(data)
				if msg.ID() == want {
					return msg
				}
			case <-deadline:
				break drain
			}
		}
	}
	t.Fatalf("message 0x%04X not received within %d ticks", want, maxTicks)
	return nil
}

func TestAwarenessEnterAndActionChange(t *testing.T) {
	f := newFixture(t, 40, 10) // 1280x320 px
	st := f.deps.State

	walker := f.addCharacter(t, "walker", geom.Point{X: 100, Y: 100}, 100)
	observer := f.addCharacter(t, "watcher", geom.Point{X: 900, Y: 100}, 100)
	f.tick(1)

	frames := attachSession(t, f, 1, observer)

	// 800 px apart: beyond the 320 px visual range, so the first enter the
	// observer receives is itself.
	enter := waitForMessage(t, f, frames, proto.GPMsgBeingEnter, 5)
	if name := readEnterName(enter); name != "watcher" {
		t.Fatalf("first enter = %q, want the observer itself", name)
	}

	// Walk toward the observer until the range closes.
	being := st.Stores.Beings.MustGet(walker)
	being.Destination = geom.Point{X: 700, Y: 100}
	being.Action = component.ActionWalk

	enter = waitForMessage(t, f, frames, proto.GPMsgBeingEnter, 40)
	if name := readEnterName(enter); name != "walker" {
		t.Fatalf("enter name = %q, want walker", name)
	}

	// When the walker stops, the observer gets an ACTION_CHANGE to STAND.
	msg := waitForMessage(t, f, frames, proto.GPMsgBeingActionChange, 40)
	msg.ReadInt16() // public id
	if action := component.Action(msg.ReadUint8()); action != component.ActionStand {
		t.Errorf("action change = %v, want STAND", action)
	}
}

func TestAwarenessLeaveOnRemoval(t *testing.T) {
	f := newFixture(t, 40, 10)
	st := f.deps.State

	other := f.addCharacter(t, "other", geom.Point{X: 150, Y: 100}, 100)
	observer := f.addCharacter(t, "watcher", geom.Point{X: 100, Y: 100}, 100)
	f.tick(1)

	frames := attachSession(t, f, 1, observer)
	enter := waitForMessage(t, f, frames, proto.GPMsgBeingEnter, 5)
	_ = enter

	st.EnqueueRemove(other)
	st.ECS.MarkForDestruction(other)

	leave := waitForMessage(t, f, frames, proto.GPMsgBeingLeave, 5)
	if leave == nil {
		t.Fatal("no leave message after removal")
	}
}

// readEnterName unpacks the character tail of a BEING_ENTER frame.
func readEnterName(msg *proto.MessageIn) string {
	msg.ReadUint8() // entity type
	msg.ReadInt16() // public id
	msg.ReadUint8() // action
	msg.ReadInt16() // x
	msg.ReadInt16() // y
	msg.ReadUint8() // direction
	return msg.ReadString()
}
