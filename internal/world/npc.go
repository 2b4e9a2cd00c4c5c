package world

import (
	"sync"
	"time"
)

// Npc is a server-controlled actor spawned from a template.
type Npc struct {
	Actor

	TemplateID   int32
	Aggro        bool
	ExpReward    int64
	SPReward     int64
	SpawnPos     Position
	RespawnDelay time.Duration

	dmgMu   sync.Mutex
	damage  map[int32]int64
	overhit int32
}

// NewNpc builds an NPC at its spawn position.
func NewNpc(id int32, name string, templateID int32, pos Position, level int16, maxHP, maxMP int32, stats CombatStats) *Npc {
	return &Npc{
		Actor:      *NewActor(id, name, pos, level, maxHP, maxMP, stats),
		TemplateID: templateID,
		SpawnPos:   pos,
		damage:     make(map[int32]int64),
	}
}

// RecordDamage credits dmg to an attacker in the kill ledger.
func (n *Npc) RecordDamage(attackerID int32, dmg int32) {
	if dmg <= 0 {
		return
	}
	n.dmgMu.Lock()
	n.damage[attackerID] += int64(dmg)
	n.dmgMu.Unlock()
}

// RecordOverhit stores damage dealt past zero HP on the killing blow.
func (n *Npc) RecordOverhit(dmg int32) {
	if dmg <= 0 {
		return
	}
	n.dmgMu.Lock()
	n.overhit = dmg
	n.dmgMu.Unlock()
}

// DamageShares snapshots and clears the ledger. Called once on death by
// the reward engine.
func (n *Npc) DamageShares() (shares map[int32]int64, overhit int32) {
	n.dmgMu.Lock()
	defer n.dmgMu.Unlock()
	shares = n.damage
	overhit = n.overhit
	n.damage = make(map[int32]int64)
	n.overhit = 0
	return shares, overhit
}

// ResetForRespawn restores HP/MP, clears the ledger and moves the NPC back
// to its spawn point.
func (n *Npc) ResetForRespawn() {
	n.dmgMu.Lock()
	n.damage = make(map[int32]int64)
	n.overhit = 0
	n.dmgMu.Unlock()

	n.mu.Lock()
	n.dead = false
	n.hp = n.maxHP
	n.mp = n.maxMP
	n.pos = n.SpawnPos
	n.targetID = 0
	n.targetedBy = make(map[int32]struct{})
	n.mu.Unlock()
}
