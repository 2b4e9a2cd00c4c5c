package game

import (
	"context"
	"time"

	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/world"
)

const (
	// moveTick is the simulation step of a travelling actor.
	moveTick = 100 * time.Millisecond
	// rotateSpeedPerSec is how fast heading converges on the movement
	// bearing, in heading units per second (65536 = a full turn).
	rotateSpeedPerSec = 65536
)

// moveResult tells the caller how a movement loop ended.
type moveResult int

const (
	moveArrived moveResult = iota
	moveCancelled
	moveBlocked
)

// LaunchMove starts travelling toward dest as the actor's action.
func (s *Service) LaunchMove(a *world.Actor, dest world.Position) {
	s.tasks.LaunchAction(a.ID, "move", func(ctx context.Context) {
		s.runMoveTo(ctx, a, dest)
	})
}

func (s *Service) runMoveTo(ctx context.Context, a *world.Actor, dest world.Position) moveResult {
	dest = s.geo.AvailableTargetPosition(a.Pos(), dest)
	s.broadcastNear(a.Pos(), proto.MoveToLocation{ID: a.ID, From: a.Pos(), Dest: dest})
	return s.moveLoop(ctx, a, func() (world.Position, int32) {
		return dest, 0
	})
}

// moveToward walks until the actor stands within "within" units of the
// (possibly moving) target, re-aiming every tick.
func (s *Service) moveToward(ctx context.Context, a, target *world.Actor, within int32) moveResult {
	s.broadcastNear(a.Pos(), proto.MoveToLocation{ID: a.ID, From: a.Pos(), Dest: target.Pos()})
	return s.moveLoop(ctx, a, func() (world.Position, int32) {
		return target.Pos(), within
	})
}

// moveLoop advances the actor toward destFn's point every tick until it
// is within the returned range, the context is cancelled, or terrain
// blocks further progress. The moving flag and the arrival broadcast are
// settled on every exit path.
func (s *Service) moveLoop(ctx context.Context, a *world.Actor, destFn func() (world.Position, int32)) (res moveResult) {
	a.SetMoving(true)
	defer func() {
		a.SetMoving(false)
		s.broadcastNear(a.Pos(), proto.StopMove{ID: a.ID, Pos: a.Pos(), Heading: a.Heading()})
	}()

	known := s.snapshotVisible(a)
	last := time.Now()
	for {
		if !sleep(ctx, moveTick) {
			return moveCancelled
		}
		now := time.Now()
		dt := now.Sub(last)
		last = now

		dest, within := destFn()
		pos := a.Pos()
		dist := pos.Distance2D(dest)
		reach := float64(within)
		if dist <= reach {
			return moveArrived
		}

		step := float64(a.Stats().Speed) * dt.Seconds()
		if step <= 0 {
			return moveBlocked
		}
		if step > dist-reach {
			step = dist - reach
		}
		f := step / dist
		next := world.Position{
			X: pos.X + int32(float64(dest.X-pos.X)*f),
			Y: pos.Y + int32(float64(dest.Y-pos.Y)*f),
		}
		next.Z = s.geo.NearestZ(next.X, next.Y, pos.Z)

		// Terrain may be narrower than the corrected destination when the
		// target is moving; clamp to the reachable point.
		open := s.geo.AvailableTargetPosition(pos, next)
		if open.X == pos.X && open.Y == pos.Y {
			return moveBlocked
		}
		a.SetPos(open)
		s.turnToward(a, dest, dt)
		known = s.tickVisibility(a, known)

		if a.Pos().Distance2D(dest) <= reach {
			return moveArrived
		}
	}
}

// turnToward rotates heading at the fixed turn rate toward the bearing of
// dest instead of snapping.
func (s *Service) turnToward(a *world.Actor, dest world.Position, dt time.Duration) {
	want := int32(a.Pos().HeadingTo(dest))
	have := int32(a.Heading())
	diff := want - have
	for diff > 32768 {
		diff -= 65536
	}
	for diff < -32768 {
		diff += 65536
	}
	maxStep := int32(float64(rotateSpeedPerSec) * dt.Seconds())
	if diff > maxStep {
		diff = maxStep
	} else if diff < -maxStep {
		diff = -maxStep
	}
	a.SetHeading(uint16((have + diff) & 0xFFFF))
}

// snapshotVisible records the IDs in sight of a.
func (s *Service) snapshotVisible(a *world.Actor) map[int32]struct{} {
	known := make(map[int32]struct{})
	for _, e := range s.world.AllNear(a.Pos(), VisibilityRadius) {
		if e.ObjectID() != a.ID {
			known[e.ObjectID()] = struct{}{}
		}
	}
	return known
}

// tickVisibility diffs sight against the previous tick. Objects dropping
// out of range stop being targets in both directions and disappear from
// the mover's client; new objects appear.
func (s *Service) tickVisibility(a *world.Actor, known map[int32]struct{}) map[int32]struct{} {
	current := s.snapshotVisible(a)

	for id := range known {
		if _, still := current[id]; still {
			continue
		}
		if other := s.world.FindActor(id); other != nil {
			if other.TargetID() == a.ID {
				s.world.ClearTarget(other)
				s.hub.SendTo(id, proto.TargetUnselected{ActorID: id})
			}
			if a.TargetID() == id {
				s.world.ClearTarget(a)
				s.hub.SendTo(a.ID, proto.TargetUnselected{ActorID: a.ID})
			}
		}
		s.hub.SendTo(a.ID, proto.DeleteObject{ID: id})
		s.hub.SendTo(id, proto.DeleteObject{ID: a.ID})
	}

	for id := range current {
		if _, had := known[id]; had {
			continue
		}
		if e := s.world.Find(id); e != nil {
			name := ""
			if act := s.world.FindActor(id); act != nil {
				name = act.Name
			}
			s.hub.SendTo(a.ID, proto.SpawnObject{ID: id, Name: name, Pos: e.ObjectPos()})
			s.hub.SendTo(id, proto.SpawnObject{ID: a.ID, Name: a.Name, Pos: a.Pos()})
		}
	}
	return current
}
