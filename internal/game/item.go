package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

// PickUp walks the character to a ground item and takes it. The world
// store removal decides the winner when two players go for the same
// item; the loser sees the item vanish and gets a failure notice.
func (s *Service) PickUp(c *world.Character, itemID int32) {
	item := s.world.FindItem(itemID)
	if item == nil {
		s.hub.SendTo(c.ID, proto.ActionFailed{})
		return
	}
	s.tasks.LaunchAction(c.ID, "pickup", func(ctx context.Context) {
		if s.runMoveTo(ctx, &c.Actor, item.Pos) != moveArrived {
			return
		}
		if !c.Pos().Within2D(item.Pos, InteractionDistance) {
			s.hub.SendTo(c.ID, proto.ActionFailed{})
			return
		}
		// The removal is the claim. If another player got here first the
		// item is already gone from the store.
		if !s.world.Remove(item.ID) {
			s.hub.SendTo(c.ID, proto.ActionFailed{})
			return
		}

		if item.Persisted && s.persist != nil {
			if err := s.persist.DeleteGroundItem(context.WithoutCancel(ctx), item.ID); err != nil {
				s.log.Warn("ground item delete failed",
					zap.Int32("item_id", item.ID), zap.Error(err))
			}
		}

		got, created := c.Inv.Add(item.TemplateID, item.Count, item.Stackable, item.Weight)
		op := proto.ItemOpModify
		if created {
			op = proto.ItemOpAdd
		}
		s.broadcastNear(item.Pos, proto.PickUpItem{ActorID: c.ID, ItemID: item.ID, Pos: item.Pos})
		s.broadcastNear(item.Pos, proto.DeleteObject{ID: item.ID})
		s.hub.SendTo(c.ID, proto.ItemUpdate{Ops: []proto.ItemOp{
			{Op: op, ItemID: got.ID, TemplateID: got.TemplateID, Count: got.Count},
		}})
	})
}

// DropFromInventory puts count of an inventory item on the ground at the
// character's feet.
func (s *Service) DropFromInventory(c *world.Character, itemID int32, count int64) {
	if c.IsDead() || count <= 0 {
		s.hub.SendTo(c.ID, proto.ActionFailed{})
		return
	}
	it := c.Inv.Get(itemID)
	if it == nil || it.Count < count {
		s.systemMessage(c.ID, proto.MsgIncorrectItemCount)
		return
	}
	remaining, err := c.Inv.Remove(itemID, count)
	if err != nil {
		s.systemMessage(c.ID, proto.MsgIncorrectItemCount)
		return
	}

	name := ""
	if tmpl := s.items.Get(it.TemplateID); tmpl != nil {
		name = tmpl.Name
	}
	pos := c.Pos()
	ground := &world.GroundItem{
		Object:     world.Object{ID: world.NextObjectID(), Name: name},
		TemplateID: it.TemplateID,
		Count:      count,
		Stackable:  it.Stackable,
		Weight:     it.Weight,
		Pos:        pos,
	}
	s.world.Add(ground)
	s.broadcastNear(pos, proto.DropItem{DropperID: c.ID, ItemID: ground.ID, Pos: pos})

	op := proto.ItemOp{Op: proto.ItemOpModify, ItemID: itemID, TemplateID: it.TemplateID, Count: remaining}
	if remaining == 0 {
		op = proto.ItemOp{Op: proto.ItemOpRemove, ItemID: itemID}
	}
	s.hub.SendTo(c.ID, proto.ItemUpdate{Ops: []proto.ItemOp{op}})
}
