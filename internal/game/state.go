package game

import (
	"context"
	"sync"
	"time"

	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

const (
	// combatDuration is how long an actor stays "in combat" after its
	// last exchange.
	combatDuration = 15 * time.Second
	// stateTickPeriod drives expiry of combat and pvp flags.
	stateTickPeriod = time.Second
	// regenTickPeriod drives passive HP/MP/CP recovery.
	regenTickPeriod = 3 * time.Second
)

// Posture multipliers for the regeneration tick.
const (
	regenSitting  = 1.5
	regenStanding = 1.1
	regenMoving   = 0.7
)

// tracker remembers which actors are fighting and which players carry the
// pvp flag, with per-entry expiry.
type tracker struct {
	mu       sync.Mutex
	fighting map[int32]time.Time
	pvp      map[int32]time.Time
}

func newTracker() *tracker {
	return &tracker{
		fighting: make(map[int32]time.Time),
		pvp:      make(map[int32]time.Time),
	}
}

func (t *tracker) markFighting(id int32) {
	t.mu.Lock()
	t.fighting[id] = time.Now().Add(combatDuration)
	t.mu.Unlock()
}

func (t *tracker) inCombat(id int32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	exp, ok := t.fighting[id]
	return ok && time.Now().Before(exp)
}

// drop clears the combat flag immediately. Death ends the fight; the
// entry must not linger until expiry.
func (t *tracker) drop(id int32) {
	t.mu.Lock()
	delete(t.fighting, id)
	t.mu.Unlock()
}

func (t *tracker) markPvp(id int32, d time.Duration) {
	t.mu.Lock()
	t.pvp[id] = time.Now().Add(d)
	t.mu.Unlock()
}

// expire removes stale entries and returns the IDs whose pvp flag just
// dropped.
func (t *tracker) expire(now time.Time) (pvpOver []int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, exp := range t.fighting {
		if now.After(exp) {
			delete(t.fighting, id)
		}
	}
	for id, exp := range t.pvp {
		if now.After(exp) {
			delete(t.pvp, id)
			pvpOver = append(pvpOver, id)
		}
	}
	return pvpOver
}

// InCombat reports whether the actor exchanged blows recently.
func (s *Service) InCombat(id int32) bool {
	return s.tracker.inCombat(id)
}

// markPvp raises the attacker's pvp flag. Striking a karma holder keeps
// the flag short; striking a clean player keeps it up longer.
func (s *Service) markPvp(attacker, victim *world.Character) {
	d := s.cfg.Pvp.FlagDuration
	if victim.Karma() > 0 {
		d = s.cfg.Pvp.FlagDurationVsKarma
	}
	if !attacker.InPvp() {
		attacker.SetPvp(true)
		s.broadcastNear(attacker.Pos(), proto.PvpStatus{
			ID: attacker.ID, Pvp: true, Karma: attacker.Karma(), PKCount: attacker.PKCount(),
		})
	}
	s.tracker.markPvp(attacker.ID, d)
}

// StartStateTicker runs flag expiry as a named task.
func (s *Service) StartStateTicker() {
	s.tasks.LaunchTask("state-ticker", s.runStateTicker)
}

func (s *Service) runStateTicker(ctx context.Context) {
	t := time.NewTicker(stateTickPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			for _, id := range s.tracker.expire(now) {
				c := s.world.FindCharacter(id)
				if c == nil {
					continue
				}
				c.SetPvp(false)
				s.broadcastNear(c.Pos(), proto.PvpStatus{
					ID: id, Pvp: false, Karma: c.Karma(), PKCount: c.PKCount(),
				})
			}
		}
	}
}

// StartRegenTicker runs passive recovery as a named task.
func (s *Service) StartRegenTicker() {
	s.tasks.LaunchTask("regen-ticker", s.runRegenTicker)
}

func (s *Service) runRegenTicker(ctx context.Context) {
	t := time.NewTicker(regenTickPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, c := range s.world.Characters() {
				s.regenerate(c)
			}
		}
	}
}

// regenerate applies one recovery tick to a player.
func (s *Service) regenerate(c *world.Character) {
	if c.IsDead() {
		return
	}
	mult := regenStanding
	switch {
	case c.IsMoving():
		mult = regenMoving
	case c.Posture() == world.PostureSitting:
		mult = regenSitting
	}
	if s.tracker.inCombat(c.ID) {
		mult *= 0.5
	}

	base := float64(c.Level())/2 + 3
	before, maxHP := c.HP()
	mp, maxMP := c.MP()
	cp, maxCP := c.CP()
	changed := false
	if before < maxHP {
		c.RestoreHP(int32(base * mult))
		changed = true
	}
	if mp < maxMP {
		c.RestoreMP(int32(base * mult * 0.8))
		changed = true
	}
	if cp < maxCP {
		c.RestoreCP(int32(base * mult * 1.5))
		changed = true
	}
	if changed {
		s.sendStatus(&c.Actor)
	}
}
