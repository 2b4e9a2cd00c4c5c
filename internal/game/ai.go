package game

import (
	"context"
	"time"

	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/scripting"
	"github.com/l2kgo/server/internal/world"
)

const aiTickPeriod = 1 * time.Second

// StartAITicker runs the NPC brain loop as a named background task. Each
// tick asks the script what every idle NPC wants and launches the intent
// as the NPC's action. NPCs already busy with an action are skipped, so a
// long chase is never interrupted mid-tick.
func (s *Service) StartAITicker() {
	if s.scripts == nil {
		return
	}
	s.tasks.LaunchTask("npc-ai", func(ctx context.Context) {
		t := time.NewTicker(aiTickPeriod)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.tickAI()
			}
		}
	})
}

func (s *Service) tickAI() {
	for _, npc := range s.world.Npcs() {
		if npc.IsDead() || s.tasks.HasAction(npc.ID) {
			continue
		}
		intent := s.scripts.NpcIntent(s.buildAIContext(npc))
		if intent == nil {
			continue
		}
		s.applyIntent(npc, intent)
	}
}

// buildAIContext packs the NPC's surroundings for the script. The target
// slot carries the nearest living player in sight.
func (s *Service) buildAIContext(npc *world.Npc) scripting.AIContext {
	pos := npc.Pos()
	hp, maxHP := npc.HP()
	ctx := scripting.AIContext{
		NpcID:      int(npc.ID),
		TemplateID: int(npc.TemplateID),
		X:          int(pos.X),
		Y:          int(pos.Y),
		HP:         int(hp),
		MaxHP:      int(maxHP),
		Level:      int(npc.Level()),
		Aggro:      npc.Aggro,
		SpawnX:     int(npc.SpawnPos.X),
		SpawnY:     int(npc.SpawnPos.Y),
		SpawnDist:  int(pos.Distance2D(npc.SpawnPos)),
	}
	if tmpl := s.npcs.Get(npc.TemplateID); tmpl != nil {
		ctx.Script = tmpl.AIScript
	}

	var nearest *world.Character
	var nearestDist float64
	for _, c := range s.world.CharactersNear(pos, VisibilityRadius) {
		if c.IsDead() {
			continue
		}
		d := pos.Distance2D(c.Pos())
		if nearest == nil || d < nearestDist {
			nearest, nearestDist = c, d
		}
	}
	if nearest != nil {
		tp := nearest.Pos()
		ctx.TargetID = int(nearest.ID)
		ctx.TargetX = int(tp.X)
		ctx.TargetY = int(tp.Y)
		ctx.TargetDist = int(nearestDist)
	}
	return ctx
}

func (s *Service) applyIntent(npc *world.Npc, intent *scripting.Intent) {
	switch intent.Kind {
	case "say":
		if intent.Text != "" {
			s.broadcastNear(npc.Pos(), proto.NpcSay{ID: npc.ID, Text: intent.Text})
		}
	case "move":
		pos := npc.Pos()
		dest := world.Position{X: int32(intent.X), Y: int32(intent.Y), Z: pos.Z}
		s.LaunchMove(&npc.Actor, dest)
	case "attack":
		target := s.world.FindActor(int32(intent.TargetID))
		if target == nil || target.IsDead() {
			return
		}
		s.world.SetTarget(&npc.Actor, target)
		s.LaunchAttack(&npc.Actor, target)
	}
}
