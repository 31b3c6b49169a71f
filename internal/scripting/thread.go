package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ThreadStatus describes a dialogue thread's lifecycle.
type ThreadStatus int

const (
	ThreadRunning ThreadStatus = iota
	ThreadSuspended
	ThreadDone
)

// Thread is a suspended script conversation (NPC dialogue). It belongs to
// one character; the tick loop resumes it when the character answers and
// drops it on disconnect. Resumption happens only at tick boundaries, so a
// thread never observes mid-step state.
type Thread struct {
	ID     int
	engine *Engine
	co     *lua.LState
	fn     *lua.LFunction
	status ThreadStatus
	// Owner is the entity handle the thread was started for.
	Owner uint64
}

// StartThread launches a callback as a coroutine. If the script yields the
// thread suspends; if it returns the thread is done.
func (e *Engine) StartThread(ref Ref, owner uint64, args ...Arg) (*Thread, error) {
	fn, ok := e.refs[ref]
	if !ok {
		return nil, fmt.Errorf("scripting: invalid callback ref %d", ref)
	}
	co, _ := e.vm.NewThread()
	e.nextThreadID++
	t := &Thread{
		ID:     e.nextThreadID,
		engine: e,
		co:     co,
		fn:     fn,
		status: ThreadRunning,
		Owner:  owner,
	}
	e.threads[t.ID] = t

	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = a.push(e.vm)
	}
	if err := t.resume(largs...); err != nil {
		return nil, err
	}
	return t, nil
}

// Thread returns a live thread by id.
func (e *Engine) Thread(id int) (*Thread, bool) {
	t, ok := e.threads[id]
	return t, ok
}

// DropThread abandons a thread without resuming it (owner disconnected).
func (e *Engine) DropThread(id int) {
	delete(e.threads, id)
}

func (t *Thread) Status() ThreadStatus { return t.status }

// Resume continues a suspended thread with the character's answer: an
// integer, a string, or a selection index.
func (t *Thread) Resume(answer Arg) error {
	if t.status != ThreadSuspended {
		return fmt.Errorf("scripting: resume of thread %d in status %d", t.ID, t.status)
	}
	var largs []lua.LValue
	if answer != nil {
		largs = []lua.LValue{answer.push(t.engine.vm)}
	}
	return t.resume(largs...)
}

func (t *Thread) resume(args ...lua.LValue) error {
	st, err, _ := t.engine.vm.Resume(t.co, t.fn, args...)
	switch st {
	case lua.ResumeYield:
		t.status = ThreadSuspended
		return nil
	case lua.ResumeOK:
		t.status = ThreadDone
		delete(t.engine.threads, t.ID)
		return nil
	default:
		t.status = ThreadDone
		delete(t.engine.threads, t.ID)
		return fmt.Errorf("scripting: thread %d: %w", t.ID, err)
	}
}
