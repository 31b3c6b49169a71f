package serialize

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleCharacter() *CharacterData {
	d := NewCharacterData()
	d.AccountLevel = 10
	d.Gender = 1
	d.HairStyle = 4
	d.HairColor = 2
	d.Level = 12
	d.CharacterPoints = 3
	d.CorrectionPoints = 1
	d.Attributes[1] = AttributeValue{Base: 20, Modified: 24.5}
	d.Attributes[7] = AttributeValue{Base: 5, Modified: 5}
	d.Skills[2] = 1500
	d.StatusEffects[9] = 120
	d.MapID = 1
	d.X = 512
	d.Y = 256
	d.KillCount[1002] = 37
	d.Abilities = []int32{1, 4}
	d.Equipment = []EquipEntry{{EquipSlot: 1, InvSlot: 0}, {EquipSlot: 3, InvSlot: 2}}
	d.Inventory = []InventoryEntry{
		{Slot: 0, ItemID: 101, Amount: 1},
		{Slot: 2, ItemID: 205, Amount: 1},
		{Slot: 5, ItemID: 50, Amount: 30},
	}
	return d
}

func TestCharacterBlobRoundTrip(t *testing.T) {
	d := sampleCharacter()
	got, err := FromBlob(d.Blob())
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestCharacterBlobDeterministic(t *testing.T) {
	// Map iteration order must not leak into the blob.
	a := sampleCharacter().Blob()
	for i := 0; i < 8; i++ {
		if !bytes.Equal(a, sampleCharacter().Blob()) {
			t.Fatal("equal records produced different blobs")
		}
	}
}

func TestCharacterBlobTruncated(t *testing.T) {
	blob := sampleCharacter().Blob()
	_, err := FromBlob(blob[:7])
	require.Error(t, err)
}

func TestEmptyCharacterRoundTrip(t *testing.T) {
	d := NewCharacterData()
	got, err := FromBlob(d.Blob())
	require.NoError(t, err)
	require.Equal(t, d, got)
}
