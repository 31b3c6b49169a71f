package system

import (
	"net"
	"testing"
	"time"

	"github.com/emberfall/server/internal/gamesrv"
	"github.com/emberfall/server/internal/handler"
	gonet "github.com/emberfall/server/internal/net"
	"github.com/emberfall/server/internal/serialize"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestInstallExtractRoundTrip loads a handed-off record into components and
// reads it back: the record must survive unchanged except for one tick of
// status effect ageing.
func TestInstallExtractRoundTrip(t *testing.T) {
	f := newFixture(t, 32, 32)

	record := serialize.NewCharacterData()
	record.AccountLevel = 5
	record.Gender = 1
	record.HairStyle = 3
	record.HairColor = 7
	record.Level = 9
	record.CharacterPoints = 2
	record.CorrectionPoints = 1
	record.Attributes[1] = serialize.AttributeValue{Base: 80, Modified: 80}
	record.Attributes[2] = serialize.AttributeValue{Base: 100, Modified: 120}
	record.Skills[2] = 555
	record.StatusEffects[4] = 30
	record.MapID = 1
	record.X = 96
	record.Y = 128
	record.KillCount[1002] = 12
	record.Equipment = []serialize.EquipEntry{{EquipSlot: 1, InvSlot: 0}}
	record.Inventory = []serialize.InventoryEntry{
		{Slot: 0, ItemID: 101, Amount: 1},
		{Slot: 3, ItemID: 50, Amount: 9},
	}

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	sess := gonet.NewSession(serverSide, 9, 8, 8, zap.NewNop())
	f.deps.Sessions[9] = sess

	pending := &gamesrv.PendingPlayer{
		Token:       "tok",
		CharacterID: 1234,
		Name:        "alice",
		Data:        record,
		Deadline:    time.Now().Add(time.Minute),
	}
	e := handler.InstallCharacter(f.deps, sess, pending)
	f.tick(1) // apply the insert

	got := handler.ExtractCharacter(f.deps, e)
	require.Equal(t, record.AccountLevel, got.AccountLevel)
	require.Equal(t, record.Gender, got.Gender)
	require.Equal(t, record.HairStyle, got.HairStyle)
	require.Equal(t, record.HairColor, got.HairColor)
	require.Equal(t, record.Level, got.Level)
	require.Equal(t, record.CharacterPoints, got.CharacterPoints)
	require.Equal(t, record.CorrectionPoints, got.CorrectionPoints)
	require.Equal(t, record.Attributes, got.Attributes)
	require.Equal(t, record.Skills, got.Skills)
	// One tick elapsed, so the status effect aged by exactly one tick.
	require.Equal(t, int16(29), got.StatusEffects[4])
	require.Equal(t, record.MapID, got.MapID)
	require.Equal(t, record.X, got.X)
	require.Equal(t, record.Y, got.Y)
	require.Equal(t, record.KillCount, got.KillCount)
	require.Equal(t, record.Equipment, got.Equipment)
	require.Equal(t, record.Inventory, got.Inventory)
}
