package world

// Posture is the stance of a player, used by the regeneration tick.
type Posture int

const (
	PostureStanding Posture = iota
	PostureSitting
)

// Character is a player-controlled actor.
type Character struct {
	Actor

	AccountName string
	ClassID     int32

	Inv *Inventory

	cp      int32
	maxCP   int32
	exp     int64
	sp      int64
	karma   int32
	pkCount int32
	pvp     bool
	posture Posture

	sellStore *PrivateStoreSell
	buyStore  *PrivateStoreBuy
}

// NewCharacter builds an in-world player with an empty inventory.
func NewCharacter(id int32, name string, pos Position, level int16, maxHP, maxMP, maxCP int32, stats CombatStats) *Character {
	c := &Character{
		Actor: *NewActor(id, name, pos, level, maxHP, maxMP, stats),
		Inv:   NewInventory(),
		cp:    maxCP,
		maxCP: maxCP,
	}
	return c
}

func (c *Character) CP() (cp, max int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cp, c.maxCP
}

// ReduceCP drains CP first and returns the damage left over for HP.
func (c *Character) ReduceCP(dmg int32) (leftover int32) {
	if dmg < 0 {
		dmg = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if dmg <= c.cp {
		c.cp -= dmg
		return 0
	}
	leftover = dmg - c.cp
	c.cp = 0
	return leftover
}

func (c *Character) RestoreCP(cp int32) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return c.cp
	}
	c.cp += cp
	if c.cp > c.maxCP {
		c.cp = c.maxCP
	}
	return c.cp
}

// FullHeal restores HP, MP and CP to their maximums. Used on level up.
func (c *Character) FullHeal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return
	}
	c.hp = c.maxHP
	c.mp = c.maxMP
	c.cp = c.maxCP
}

func (c *Character) Exp() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exp
}

func (c *Character) SP() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sp
}

// AddExpSP accumulates experience and skill points, returning the new
// totals.
func (c *Character) AddExpSP(exp, sp int64) (newExp, newSP int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exp += exp
	if c.exp < 0 {
		c.exp = 0
	}
	c.sp += sp
	return c.exp, c.sp
}

func (c *Character) Karma() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.karma
}

func (c *Character) AddKarma(delta int32) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.karma += delta
	if c.karma < 0 {
		c.karma = 0
	}
	return c.karma
}

func (c *Character) PKCount() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pkCount
}

func (c *Character) IncPKCount() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pkCount++
	return c.pkCount
}

func (c *Character) SetPersisted(exp, sp int64, karma, pkCount int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exp = exp
	c.sp = sp
	c.karma = karma
	c.pkCount = pkCount
}

func (c *Character) InPvp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pvp
}

func (c *Character) SetPvp(v bool) {
	c.mu.Lock()
	c.pvp = v
	c.mu.Unlock()
}

func (c *Character) Posture() Posture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posture
}

func (c *Character) SetPosture(p Posture) {
	c.mu.Lock()
	c.posture = p
	c.mu.Unlock()
}

// SellStore returns the open sell shop, or nil.
func (c *Character) SellStore() *PrivateStoreSell {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sellStore
}

func (c *Character) SetSellStore(s *PrivateStoreSell) {
	c.mu.Lock()
	c.sellStore = s
	c.mu.Unlock()
}

// BuyStore returns the open buy shop, or nil.
func (c *Character) BuyStore() *PrivateStoreBuy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buyStore
}

func (c *Character) SetBuyStore(s *PrivateStoreBuy) {
	c.mu.Lock()
	c.buyStore = s
	c.mu.Unlock()
}
