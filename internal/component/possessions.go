package component

import "fmt"

// InventoryItem is one stack in an inventory slot.
type InventoryItem struct {
	ItemID int
	Amount int
}

// Possessions is a character's inventory and equipment. Equipment entries
// reference inventory slots; the invariants are checked by Check after
// deserialization and before flushes.
type Possessions struct {
	// Inventory maps slot id to its stack. Amount is always >= 1.
	Inventory map[int]InventoryItem
	// Equipment maps equip slot to the inventory slots filling it. A slot
	// type may hold several pieces (two rings), hence the multimap.
	Equipment map[int][]int
}

func NewPossessions() *Possessions {
	return &Possessions{
		Inventory: make(map[int]InventoryItem),
		Equipment: make(map[int][]int),
	}
}

// Insert adds amount of itemID, stacking onto an existing slot of the same
// item or claiming the lowest free slot. Returns the slot used.
func (p *Possessions) Insert(itemID, amount int) int {
	for slot, it := range p.Inventory {
		if it.ItemID == itemID {
			it.Amount += amount
			p.Inventory[slot] = it
			return slot
		}
	}
	slot := 0
	for {
		if _, used := p.Inventory[slot]; !used {
			break
		}
		slot++
	}
	p.Inventory[slot] = InventoryItem{ItemID: itemID, Amount: amount}
	return slot
}

// Remove takes amount out of the slot, deleting it when emptied. Equipment
// referencing an emptied slot is unequipped.
func (p *Possessions) Remove(slot, amount int) error {
	it, ok := p.Inventory[slot]
	if !ok {
		return fmt.Errorf("inventory slot %d empty", slot)
	}
	if it.Amount < amount {
		return fmt.Errorf("inventory slot %d holds %d, need %d", slot, it.Amount, amount)
	}
	it.Amount -= amount
	if it.Amount == 0 {
		delete(p.Inventory, slot)
		for eq, slots := range p.Equipment {
			kept := slots[:0]
			for _, s := range slots {
				if s != slot {
					kept = append(kept, s)
				}
			}
			if len(kept) == 0 {
				delete(p.Equipment, eq)
			} else {
				p.Equipment[eq] = kept
			}
		}
	} else {
		p.Inventory[slot] = it
	}
	return nil
}

// Equip records the inventory slot under the equip slot.
func (p *Possessions) Equip(equipSlot, invSlot int) error {
	if _, ok := p.Inventory[invSlot]; !ok {
		return fmt.Errorf("equip: inventory slot %d empty", invSlot)
	}
	p.Equipment[equipSlot] = append(p.Equipment[equipSlot], invSlot)
	return nil
}

func (p *Possessions) Unequip(equipSlot, invSlot int) {
	slots := p.Equipment[equipSlot]
	kept := slots[:0]
	for _, s := range slots {
		if s != invSlot {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(p.Equipment, equipSlot)
	} else {
		p.Equipment[equipSlot] = kept
	}
}

// Check verifies the §3.3 invariants: every equipment entry references a
// live inventory slot and every stack amount is positive.
func (p *Possessions) Check() error {
	for slot, it := range p.Inventory {
		if it.Amount < 1 {
			return fmt.Errorf("inventory slot %d: amount %d", slot, it.Amount)
		}
	}
	for eq, slots := range p.Equipment {
		for _, s := range slots {
			if _, ok := p.Inventory[s]; !ok {
				return fmt.Errorf("equip slot %d references empty inventory slot %d", eq, s)
			}
		}
	}
	return nil
}
