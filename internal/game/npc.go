package game

import (
	"context"
	"fmt"
	"time"

	"github.com/l2kgo/server/internal/data"
	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

// corpseDelay is how long a dead NPC stays visible before the body is
// removed.
const corpseDelay = 8500 * time.Millisecond

// SpawnNpc builds an NPC from its template, places it and announces it.
func (s *Service) SpawnNpc(tmpl *data.NpcTemplate, pos world.Position, respawnDelay time.Duration) *world.Npc {
	stats := world.CombatStats{
		PAtk:        tmpl.PAtk,
		PDef:        tmpl.PDef,
		Accuracy:    tmpl.Accuracy,
		Evasion:     tmpl.Evasion,
		CritRate:    tmpl.CritRate,
		AtkSpd:      tmpl.AtkSpd,
		Speed:       tmpl.Speed,
		AttackRange: tmpl.AttackRange,
		RandomCoeff: 10,
	}
	pos.Z = s.geo.NearestZ(pos.X, pos.Y, pos.Z)
	npc := world.NewNpc(world.NextObjectID(), tmpl.Name, tmpl.NpcID, pos, tmpl.Level, tmpl.HP, tmpl.MP, stats)
	npc.Aggro = tmpl.Aggro
	npc.ExpReward = tmpl.Exp
	npc.SPReward = tmpl.SP
	npc.RespawnDelay = respawnDelay
	s.world.Add(npc)
	s.broadcastNear(pos, proto.SpawnObject{ID: npc.ID, Name: npc.Name, Pos: pos})
	return npc
}

// scheduleRespawn handles the corpse and respawn timers of a dead NPC as
// a named task: body removal after the corpse delay, then a fresh spawn
// after the template delay.
func (s *Service) scheduleRespawn(npc *world.Npc) {
	name := fmt.Sprintf("npc-respawn-%d", npc.ID)
	s.tasks.LaunchTask(name, func(ctx context.Context) {
		if !sleep(ctx, corpseDelay) {
			return
		}
		lastPos := npc.Pos()
		s.world.Remove(npc.ID)
		s.broadcastNear(lastPos, proto.DeleteObject{ID: npc.ID})

		if npc.RespawnDelay <= 0 {
			return
		}
		if !sleep(ctx, npc.RespawnDelay) {
			return
		}
		npc.ResetForRespawn()
		s.world.Add(npc)
		s.broadcastNear(npc.Pos(), proto.SpawnObject{ID: npc.ID, Name: npc.Name, Pos: npc.Pos()})
	})
}
