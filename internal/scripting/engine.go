package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Slot names the core invokes. Scripts fill them with server.register.
const (
	SlotAbilityUse             = "ability.use"
	SlotAbilityRecharged       = "ability.recharged"
	SlotNPCTalk                = "npc.talk"
	SlotNPCUpdate              = "npc.update"
	SlotMonsterDamaged         = "monster.damaged"
	SlotCharacterDeath         = "character.death"
	SlotCharacterDeathAccepted = "character.death_accepted"
	SlotCharacterLogin         = "character.login"
	SlotQuestReply             = "quest_reply"
	SlotPostReply              = "post_reply"
	SlotDeathNotification      = "death_notification"
	SlotRemoveNotification     = "remove_notification"
	SlotTriggerAction          = "trigger.script_action"
)

// Item is one inventory stack pushed to script callbacks.
type Item struct {
	ItemID int
	Amount int
}

// Arg is a typed value pushed to a callback: entity handle, integer,
// string, or item list.
type Arg interface{ push(vm *lua.LState) lua.LValue }

// Entity pushes an entity handle. Scripts treat it as opaque.
type Entity uint64

func (e Entity) push(vm *lua.LState) lua.LValue { return lua.LNumber(e) }

// Int pushes an integer argument.
type Int int

func (i Int) push(vm *lua.LState) lua.LValue { return lua.LNumber(i) }

// String pushes a string argument.
type String string

func (s String) push(vm *lua.LState) lua.LValue { return lua.LString(s) }

// Items pushes an inventory list as an array of {item_id, amount} tables.
type Items []Item

func (its Items) push(vm *lua.LState) lua.LValue {
	t := vm.NewTable()
	for _, it := range its {
		e := vm.NewTable()
		e.RawSetString("item_id", lua.LNumber(it.ItemID))
		e.RawSetString("amount", lua.LNumber(it.Amount))
		t.Append(e)
	}
	return t
}

// Engine wraps a single Lua VM. Single-goroutine access only (the
// simulation thread).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	refs    map[Ref]*lua.LFunction
	nextRef Ref

	slots map[string]Ref

	threads      map[int]*Thread
	nextThreadID int
}

// NewEngine creates the VM, installs the host table, and loads every .lua
// file under scriptsDir (missing directory is fine: an empty world).
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	e := &Engine{
		vm:      vm,
		log:     log,
		refs:    make(map[Ref]*lua.LFunction),
		nextRef: 1,
		slots:   make(map[string]Ref),
		threads: make(map[int]*Thread),
	}

	host := vm.NewTable()
	vm.SetGlobal("server", host)
	vm.SetField(host, "register", vm.NewFunction(e.luaRegister))

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) Close() { e.vm.Close() }

// InstallFunc exposes a host function to scripts under server.<name>.
// The game service wires world accessors through this at startup.
func (e *Engine) InstallFunc(name string, fn func(vm *lua.LState) int) {
	host := e.vm.GetGlobal("server").(*lua.LTable)
	e.vm.SetField(host, name, e.vm.NewFunction(fn))
}

// luaRegister implements server.register(slot, fn).
func (e *Engine) luaRegister(vm *lua.LState) int {
	slot := vm.CheckString(1)
	fn := vm.CheckFunction(2)
	e.slots[slot] = e.RegisterCallback(fn)
	return 0
}

// RegisterCallback turns a Lua function into an opaque handle the core can
// store on components and definitions.
func (e *Engine) RegisterCallback(fn *lua.LFunction) Ref {
	ref := e.nextRef
	e.nextRef++
	e.refs[ref] = fn
	return ref
}

// Slot returns the callback bound to a named slot, zero when unbound.
func (e *Engine) Slot(name string) Ref { return e.slots[name] }

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := e.loadDir(path); err != nil {
				return err
			}
			continue
		}
		if filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded script", zap.String("file", path))
	}
	return nil
}

// Call invokes a callback with the given arguments and returns its single
// integer result (0 when the script returns nothing). A script error is
// returned to the caller, which treats the originating action as a no-op.
func (e *Engine) Call(ref Ref, args ...Arg) (int, error) {
	fn, ok := e.refs[ref]
	if !ok {
		return 0, fmt.Errorf("scripting: invalid callback ref %d", ref)
	}
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = a.push(e.vm)
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, largs...); err != nil {
		return 0, fmt.Errorf("scripting: callback %d: %w", ref, err)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if n, ok := ret.(lua.LNumber); ok {
		return int(n), nil
	}
	return 0, nil
}

// GlobalInt reads an integer global from the VM, for host inspection.
func (e *Engine) GlobalInt(name string) (int, error) {
	if n, ok := e.vm.GetGlobal(name).(lua.LNumber); ok {
		return int(n), nil
	}
	return 0, fmt.Errorf("scripting: global %q is not a number", name)
}

// CallSlot invokes a named slot if bound; unbound slots are a no-op.
func (e *Engine) CallSlot(name string, args ...Arg) (int, error) {
	ref, ok := e.slots[name]
	if !ok {
		return 0, nil
	}
	return e.Call(ref, args...)
}
