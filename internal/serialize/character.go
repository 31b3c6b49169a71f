// Package serialize defines the character record blob exchanged between the
// account and game services. The layout is bit-exact on both sides; the
// account service stores it opaquely and the game service unpacks it into
// components.
package serialize

import (
	"fmt"
	"sort"

	"github.com/emberfall/server/internal/net/proto"
)

// AttributeValue is one serialized attribute entry.
type AttributeValue struct {
	Base     float64
	Modified float64
}

// InventoryEntry is one inventory slot in the blob's trailing section.
type InventoryEntry struct {
	Slot   int16
	ItemID int16
	Amount int16
}

// EquipEntry maps an equip slot to the inventory slot filling it.
type EquipEntry struct {
	EquipSlot int8
	InvSlot   int16
}

// CharacterData is the wire form of one character record.
type CharacterData struct {
	AccountLevel int8
	Gender       int8 // 0 male, 1 female
	HairStyle    int8
	HairColor    int8

	Level            int16
	CharacterPoints  int16
	CorrectionPoints int16

	Attributes map[int16]AttributeValue
	// Skills maps skill id to experience.
	Skills map[int16]int32
	// StatusEffects maps status id to remaining ticks.
	StatusEffects map[int16]int16

	MapID int16
	X     int16
	Y     int16

	// KillCount maps monster class id to kills.
	KillCount map[int16]int32
	// Abilities known, by id.
	Abilities []int32

	Equipment []EquipEntry
	Inventory []InventoryEntry
}

func NewCharacterData() *CharacterData {
	return &CharacterData{
		Attributes:    make(map[int16]AttributeValue),
		Skills:        make(map[int16]int32),
		StatusEffects: make(map[int16]int16),
		KillCount:     make(map[int16]int32),
	}
}

// Write appends the blob to msg. Map sections are written in ascending key
// order so equal records serialize identically.
func (d *CharacterData) Write(msg *proto.MessageOut) {
	msg.WriteInt8(d.AccountLevel)
	msg.WriteInt8(d.Gender)
	msg.WriteInt8(d.HairStyle)
	msg.WriteInt8(d.HairColor)
	msg.WriteInt16(d.Level)
	msg.WriteInt16(d.CharacterPoints)
	msg.WriteInt16(d.CorrectionPoints)

	msg.WriteInt16(int16(len(d.Attributes)))
	for _, id := range d.attrKeys() {
		av := d.Attributes[id]
		msg.WriteInt16(id)
		msg.WriteFloat64(av.Base)
		msg.WriteFloat64(av.Modified)
	}

	msg.WriteInt16(int16(len(d.Skills)))
	for _, id := range d.skillKeys() {
		msg.WriteInt16(id)
		msg.WriteInt32(d.Skills[id])
	}

	msg.WriteInt16(int16(len(d.StatusEffects)))
	for _, id := range d.statusKeys() {
		msg.WriteInt16(id)
		msg.WriteInt16(d.StatusEffects[id])
	}

	msg.WriteInt16(d.MapID)
	msg.WriteInt16(d.X)
	msg.WriteInt16(d.Y)

	msg.WriteInt16(int16(len(d.KillCount)))
	for _, id := range d.killKeys() {
		msg.WriteInt16(id)
		msg.WriteInt32(d.KillCount[id])
	}

	msg.WriteInt16(int16(len(d.Abilities)))
	for _, id := range d.Abilities {
		msg.WriteInt32(id)
	}

	msg.WriteInt16(int16(len(d.Equipment)))
	for _, eq := range d.Equipment {
		msg.WriteInt8(eq.EquipSlot)
		msg.WriteInt16(eq.InvSlot)
	}

	// Inventory is last: its length is the frame remainder.
	for _, it := range d.Inventory {
		msg.WriteInt16(it.Slot)
		msg.WriteInt16(it.ItemID)
		msg.WriteInt16(it.Amount)
	}
}

// Read parses the blob from msg, replacing d's contents.
func Read(msg *proto.MessageIn) (*CharacterData, error) {
	d := NewCharacterData()
	d.AccountLevel = msg.ReadInt8()
	d.Gender = msg.ReadInt8()
	d.HairStyle = msg.ReadInt8()
	d.HairColor = msg.ReadInt8()
	d.Level = msg.ReadInt16()
	d.CharacterPoints = msg.ReadInt16()
	d.CorrectionPoints = msg.ReadInt16()

	nAttr := int(msg.ReadInt16())
	for i := 0; i < nAttr; i++ {
		id := msg.ReadInt16()
		base := msg.ReadFloat64()
		mod := msg.ReadFloat64()
		d.Attributes[id] = AttributeValue{Base: base, Modified: mod}
	}

	nSkill := int(msg.ReadInt16())
	for i := 0; i < nSkill; i++ {
		id := msg.ReadInt16()
		d.Skills[id] = msg.ReadInt32()
	}

	nStatus := int(msg.ReadInt16())
	for i := 0; i < nStatus; i++ {
		id := msg.ReadInt16()
		d.StatusEffects[id] = msg.ReadInt16()
	}

	d.MapID = msg.ReadInt16()
	d.X = msg.ReadInt16()
	d.Y = msg.ReadInt16()

	nKills := int(msg.ReadInt16())
	for i := 0; i < nKills; i++ {
		id := msg.ReadInt16()
		d.KillCount[id] = msg.ReadInt32()
	}

	nAbility := int(msg.ReadInt16())
	for i := 0; i < nAbility; i++ {
		d.Abilities = append(d.Abilities, msg.ReadInt32())
	}

	nEquip := int(msg.ReadInt16())
	for i := 0; i < nEquip; i++ {
		slot := msg.ReadInt8()
		inv := msg.ReadInt16()
		d.Equipment = append(d.Equipment, EquipEntry{EquipSlot: slot, InvSlot: inv})
	}

	// Inventory runs to the end of the frame.
	for msg.Remaining() >= 6 {
		slot := msg.ReadInt16()
		item := msg.ReadInt16()
		amount := msg.ReadInt16()
		d.Inventory = append(d.Inventory, InventoryEntry{Slot: slot, ItemID: item, Amount: amount})
	}

	if msg.Bad() {
		return nil, fmt.Errorf("serialize: truncated character blob")
	}
	return d, nil
}

// Blob serializes the record standalone (for DB storage), without a
// message id context.
func (d *CharacterData) Blob() []byte {
	msg := proto.NewMessageOut(proto.MsgInvalid)
	d.Write(msg)
	return msg.Bytes()[2:]
}

// FromBlob parses a standalone record produced by Blob.
func FromBlob(blob []byte) (*CharacterData, error) {
	framed := make([]byte, 2+len(blob))
	copy(framed[2:], blob)
	return Read(proto.NewMessageIn(framed))
}

func (d *CharacterData) attrKeys() []int16 {
	keys := make([]int16, 0, len(d.Attributes))
	for k := range d.Attributes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (d *CharacterData) skillKeys() []int16 {
	keys := make([]int16, 0, len(d.Skills))
	for k := range d.Skills {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (d *CharacterData) statusKeys() []int16 {
	keys := make([]int16, 0, len(d.StatusEffects))
	for k := range d.StatusEffects {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (d *CharacterData) killKeys() []int16 {
	keys := make([]int16, 0, len(d.KillCount))
	for k := range d.KillCount {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
