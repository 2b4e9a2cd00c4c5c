// Package game implements the in-world rules: movement, combat, skills,
// trade, rewards and NPC behaviour. Every player- or NPC-initiated
// activity runs as an action on the task scheduler; the engines here are
// the action bodies.
package game

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/l2kgo/server/internal/config"
	"github.com/l2kgo/server/internal/data"
	"github.com/l2kgo/server/internal/geo"
	"github.com/l2kgo/server/internal/proto"
	"github.com/l2kgo/server/internal/scripting"
	"github.com/l2kgo/server/internal/session"
	"github.com/l2kgo/server/internal/task"
	"github.com/l2kgo/server/internal/world"
)

const (
	// VisibilityRadius bounds broadcasts and awareness scans.
	VisibilityRadius int32 = 2000
	// InteractionDistance is how close an actor must stand to touch
	// something: pick up an item, talk to an NPC, deal with a store.
	InteractionDistance int32 = 40
)

// Persister is the slice of the storage layer the engines touch directly.
type Persister interface {
	SaveCharacter(ctx context.Context, c *world.Character) error
	DeleteGroundItem(ctx context.Context, itemID int32) error
	LogTrade(ctx context.Context, sellerID, buyerID, templateID int32, count, adena int64) error
}

// Deps collects everything the engines need. Scripts and Persist may be
// nil; the dependent features degrade to no-ops.
type Deps struct {
	Log     *zap.Logger
	Cfg     *config.Config
	World   *world.Store
	Tasks   *task.Scheduler
	Hub     *session.Hub
	Geo     geo.Oracle
	Npcs    *data.NpcTable
	Items   *data.ItemTable
	Skills  *data.SkillTable
	Drops   *data.DropTable
	Scripts *scripting.Engine
	Persist Persister
}

// Service is the single entry point for game actions.
type Service struct {
	log     *zap.Logger
	cfg     *config.Config
	world   *world.Store
	tasks   *task.Scheduler
	hub     *session.Hub
	geo     geo.Oracle
	npcs    *data.NpcTable
	items   *data.ItemTable
	skills  *data.SkillTable
	drops   *data.DropTable
	scripts *scripting.Engine
	persist Persister

	tracker *tracker

	cdMu      sync.Mutex
	cooldowns map[cooldownKey]time.Time
}

type cooldownKey struct {
	actorID int32
	skillID int32
}

func NewService(d Deps) *Service {
	return &Service{
		log:       d.Log.Named("game"),
		cfg:       d.Cfg,
		world:     d.World,
		tasks:     d.Tasks,
		hub:       d.Hub,
		geo:       d.Geo,
		npcs:      d.Npcs,
		items:     d.Items,
		skills:    d.Skills,
		drops:     d.Drops,
		scripts:   d.Scripts,
		persist:   d.Persist,
		tracker:   newTracker(),
		cooldowns: make(map[cooldownKey]time.Time),
	}
}

// broadcastNear sends a packet to every player in sight of pos.
func (s *Service) broadcastNear(pos world.Position, pkt proto.Packet) {
	s.hub.BroadcastNear(s.world, pos, VisibilityRadius, pkt)
}

// sendStatus pushes a status update for a to itself (if a player) and to
// everyone currently targeting it.
func (s *Service) sendStatus(a *world.Actor) {
	hp, maxHP := a.HP()
	mp, maxMP := a.MP()
	upd := proto.StatusUpdate{ID: a.ID, HP: hp, MaxHP: maxHP, MP: mp, MaxMP: maxMP}
	if c := s.world.FindCharacter(a.ID); c != nil {
		upd.CP, upd.MaxCP = c.CP()
		s.hub.SendTo(a.ID, upd)
	}
	for _, watcherID := range a.TargetedBy() {
		s.hub.SendTo(watcherID, upd)
	}
}

// systemMessage sends a client system message to one player.
func (s *Service) systemMessage(charID int32, msgID int32, args ...string) {
	s.hub.SendTo(charID, proto.SystemMessage{MessageID: msgID, Args: args})
}

// systemText sends a free-form system-channel notice to one player.
func (s *Service) systemText(charID int32, text string) {
	s.hub.SendTo(charID, proto.SystemMessage{Text: text})
}

// sleep waits for d or until ctx is cancelled. Returns false on cancel.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
