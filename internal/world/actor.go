package world

import (
	"sync"
	"time"
)

// WeaponKind selects the attack cycle shape in the combat engine.
type WeaponKind int

const (
	WeaponFist WeaponKind = iota
	WeaponSword
	WeaponDagger
	WeaponBlunt
	WeaponBow
	WeaponPole
	WeaponDual
)

// CombatStats are the derived combat attributes of an actor. They change
// rarely (level up, equip change) and are replaced wholesale under the
// actor mutex.
type CombatStats struct {
	PAtk         int32
	PDef         int32
	Accuracy     int32
	Evasion      int32
	CritRate     int32 // per mille
	CritDamage   int32 // flat bonus added on critical hits
	AtkSpd       int32
	CastSpd      int32
	Speed        int32 // movement units per second
	AttackRange  int32
	ShieldRate   int32 // block chance per cent, 0 = no shield
	ShieldDef    int32
	Weapon       WeaponKind
	WeaponMPCost int32 // mana drained per shot, bows only
	RandomCoeff  int32 // damage variance band, per cent
}

// Actor is a movable, killable world object. Players and NPCs embed it.
//
// Mutable state is guarded by mu; actions run on their own goroutines and
// read each other's state, so everything that moves goes through accessors.
type Actor struct {
	Object

	mu         sync.Mutex
	pos        Position
	heading    uint16
	hp         int32
	maxHP      int32
	mp         int32
	maxMP      int32
	level      int16
	stats      CombatStats
	dead       bool
	moving     bool
	attacking  bool
	targetID   int32
	targetedBy map[int32]struct{}

	nextAttackAt time.Time
}

// NewActor seeds an actor at a position with full HP.
func NewActor(id int32, name string, pos Position, level int16, maxHP, maxMP int32, stats CombatStats) *Actor {
	return &Actor{
		Object:     Object{ID: id, Name: name},
		pos:        pos,
		hp:         maxHP,
		maxHP:      maxHP,
		mp:         maxMP,
		maxMP:      maxMP,
		level:      level,
		stats:      stats,
		targetedBy: make(map[int32]struct{}),
	}
}

func (a *Actor) ObjectPos() Position {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

func (a *Actor) Pos() Position {
	return a.ObjectPos()
}

func (a *Actor) SetPos(p Position) {
	a.mu.Lock()
	a.pos = p
	a.mu.Unlock()
}

func (a *Actor) Heading() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.heading
}

func (a *Actor) SetHeading(h uint16) {
	a.mu.Lock()
	a.heading = h
	a.mu.Unlock()
}

func (a *Actor) Level() int16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.level
}

func (a *Actor) SetLevel(l int16) {
	a.mu.Lock()
	a.level = l
	a.mu.Unlock()
}

func (a *Actor) HP() (hp, max int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hp, a.maxHP
}

func (a *Actor) MP() (mp, max int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mp, a.maxMP
}

func (a *Actor) Stats() CombatStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *Actor) SetStats(s CombatStats) {
	a.mu.Lock()
	a.stats = s
	a.mu.Unlock()
}

func (a *Actor) IsDead() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dead
}

// ReduceHP subtracts dmg from HP, flooring at zero. The second return is
// true for exactly the call that drove HP to zero; the caller owning that
// result runs the death path once.
func (a *Actor) ReduceHP(dmg int32) (remaining int32, died bool) {
	if dmg < 0 {
		dmg = 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dead {
		return 0, false
	}
	a.hp -= dmg
	if a.hp <= 0 {
		a.hp = 0
		a.dead = true
		return 0, true
	}
	return a.hp, false
}

// RestoreHP adds hp up to the maximum and returns the new value. No-op on
// a dead actor.
func (a *Actor) RestoreHP(hp int32) int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dead {
		return a.hp
	}
	a.hp += hp
	if a.hp > a.maxHP {
		a.hp = a.maxHP
	}
	return a.hp
}

// SpendMP subtracts cost if enough MP is available.
func (a *Actor) SpendMP(cost int32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mp < cost {
		return false
	}
	a.mp -= cost
	return true
}

func (a *Actor) RestoreMP(mp int32) int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dead {
		return a.mp
	}
	a.mp += mp
	if a.mp > a.maxMP {
		a.mp = a.maxMP
	}
	return a.mp
}

// Revive clears the dead flag and restores the given HP fraction.
func (a *Actor) Revive(hpFraction float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.dead {
		return
	}
	a.dead = false
	a.hp = int32(float64(a.maxHP) * hpFraction)
	if a.hp < 1 {
		a.hp = 1
	}
}

func (a *Actor) IsMoving() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.moving
}

func (a *Actor) SetMoving(v bool) {
	a.mu.Lock()
	a.moving = v
	a.mu.Unlock()
}

func (a *Actor) IsAttacking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attacking
}

func (a *Actor) SetAttacking(v bool) {
	a.mu.Lock()
	a.attacking = v
	a.mu.Unlock()
}

func (a *Actor) TargetID() int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.targetID
}

func (a *Actor) setTargetID(id int32) {
	a.mu.Lock()
	a.targetID = id
	a.mu.Unlock()
}

func (a *Actor) addTargetedBy(id int32) {
	a.mu.Lock()
	a.targetedBy[id] = struct{}{}
	a.mu.Unlock()
}

func (a *Actor) removeTargetedBy(id int32) {
	a.mu.Lock()
	delete(a.targetedBy, id)
	a.mu.Unlock()
}

// TargetedBy returns a snapshot of the IDs of actors targeting this one.
func (a *Actor) TargetedBy() []int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]int32, 0, len(a.targetedBy))
	for id := range a.targetedBy {
		ids = append(ids, id)
	}
	return ids
}

// NextAttackAt returns when the next swing may start.
func (a *Actor) NextAttackAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nextAttackAt
}

func (a *Actor) SetNextAttackAt(t time.Time) {
	a.mu.Lock()
	a.nextAttackAt = t
	a.mu.Unlock()
}

// IsBehind reports whether a stands in the rear arc of other, judged by
// other's facing. The rear arc spans 60 degrees either side of dead
// behind.
func (a *Actor) IsBehind(other *Actor) bool {
	diff := a.facingDiff(other)
	return diff > 180-60 || diff < -(180-60)
}

// IsOnSideOf reports whether a stands in either flank arc of other.
func (a *Actor) IsOnSideOf(other *Actor) bool {
	diff := a.facingDiff(other)
	abs := diff
	if abs < 0 {
		abs = -abs
	}
	return abs >= 60 && abs <= 180-60
}

// facingDiff returns degrees in (-180, 180] between other's facing and the
// bearing from other to a. 0 means a is straight ahead of other.
func (a *Actor) facingDiff(other *Actor) int {
	op := other.Pos()
	bearing := int(op.HeadingTo(a.Pos())) * 360 / 65536
	facing := int(other.Heading()) * 360 / 65536
	diff := bearing - facing
	for diff > 180 {
		diff -= 360
	}
	for diff <= -180 {
		diff += 360
	}
	return diff
}
