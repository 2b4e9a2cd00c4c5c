package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

// AttackRequest handles a click on another actor. The first click only
// selects the target; a second click on the already selected target
// launches the attack. Clicking on a merchant never starts combat, it
// opens the shop instead.
func (s *Service) AttackRequest(c *world.Character, targetID int32) {
	if c.IsDead() {
		s.hub.SendTo(c.ID, proto.ActionFailed{})
		return
	}
	target := s.world.FindActor(targetID)
	if target == nil || target.ID == c.ID {
		s.hub.SendTo(c.ID, proto.ActionFailed{})
		return
	}
	if c.TargetID() != targetID {
		s.SelectTarget(c, target)
		return
	}
	if merchant := s.world.FindCharacter(targetID); merchant != nil {
		if merchant.SellStore() != nil || merchant.BuyStore() != nil {
			s.hub.SendTo(c.ID, proto.PrivateStoreMsg{ActorID: merchant.ID, Title: storeTitle(merchant)})
			return
		}
	}
	if target.IsDead() {
		s.hub.SendTo(c.ID, proto.ActionFailed{})
		return
	}
	s.LaunchAttack(&c.Actor, target)
}

// SelectTarget points the character at target and tells the client.
func (s *Service) SelectTarget(c *world.Character, target *world.Actor) {
	s.world.SetTarget(&c.Actor, target)
	s.hub.SendTo(c.ID, proto.TargetSelected{ActorID: c.ID, TargetID: target.ID})
	s.sendStatus(target)
}

// CancelTarget drops the current target and any running action.
func (s *Service) CancelTarget(c *world.Character) {
	s.tasks.CancelAction(c.ID)
	s.world.ClearTarget(&c.Actor)
	s.hub.SendTo(c.ID, proto.TargetUnselected{ActorID: c.ID})
}

// Interact walks the character up to an NPC and greets it. Runs as the
// character's action so it cancels any movement or attack in flight.
func (s *Service) Interact(c *world.Character, npcID int32) {
	npc := s.world.FindNpc(npcID)
	if npc == nil || npc.IsDead() {
		s.hub.SendTo(c.ID, proto.ActionFailed{})
		return
	}
	s.tasks.LaunchAction(c.ID, "interact", func(ctx context.Context) {
		if s.moveToward(ctx, &c.Actor, &npc.Actor, InteractionDistance) != moveArrived {
			return
		}
		if !s.world.Exists(npc.ID) || npc.IsDead() {
			s.hub.SendTo(c.ID, proto.ActionFailed{})
			return
		}
		c.SetHeading(c.Pos().HeadingTo(npc.Pos()))
		s.log.Debug("npc interaction",
			zap.Int32("char_id", c.ID),
			zap.Int32("npc_id", npc.ID),
			zap.Int32("template_id", npc.TemplateID))
	})
}

// ChangePosture toggles sitting. A sitting merchant cannot stand without
// closing the shop first.
func (s *Service) ChangePosture(c *world.Character) {
	if c.IsDead() {
		s.hub.SendTo(c.ID, proto.ActionFailed{})
		return
	}
	if c.SellStore() != nil || c.BuyStore() != nil {
		s.hub.SendTo(c.ID, proto.ActionFailed{})
		return
	}
	var sitting bool
	if c.Posture() == world.PostureStanding {
		s.tasks.CancelAction(c.ID)
		c.SetPosture(world.PostureSitting)
		sitting = true
	} else {
		c.SetPosture(world.PostureStanding)
	}
	s.broadcastNear(c.Pos(), proto.ChangePosture{ID: c.ID, Sitting: sitting})
}

func storeTitle(c *world.Character) string {
	if st := c.SellStore(); st != nil {
		return st.Title
	}
	if st := c.BuyStore(); st != nil {
		return st.Title
	}
	return ""
}
