package handler

import (
	"github.com/emberfall/server/internal/core/ecs"
	"github.com/emberfall/server/internal/geom"
	"go.uber.org/zap"
)

// BeginMigration starts the cross-shard handoff for a character whose warp
// target lives on another game service:
//
//  1. flush the record (with the target map and point already applied),
//  2. ask the account service for a redirect,
//  3. on the response, hand the client its token and drop the entity here.
//
// Steps 1 and 2 happen now; step 3 runs in HandleAccountMessage.
func BeginMigration(deps *Deps, e ecs.EntityID, targetMapID int, targetPoint geom.Point) {
	ch, ok := deps.State.Stores.Characters.Get(e)
	if !ok {
		return
	}

	record := ExtractCharacter(deps, e)
	record.MapID = int16(targetMapID)
	record.X = int16(targetPoint.X)
	record.Y = int16(targetPoint.Y)
	deps.Account.FlushPlayer(ch.DBID, record)
	deps.Account.Redirect(ch.DBID, ch.SessionID)

	deps.Log.Info("migration started",
		zap.Int("character", ch.DBID),
		zap.Int("target_map", targetMapID),
	)
}
