package component

import "github.com/emberfall/server/internal/scripting"

// NPC marks an entity as script-driven. The callbacks are registered by the
// script that created the NPC.
type NPC struct {
	ScriptID int
	Enabled  bool

	TalkRef   scripting.Ref
	UpdateRef scripting.Ref
}
