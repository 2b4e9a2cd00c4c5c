package world

import "sync"

// Store is the registry of everything currently in the world. Lookups are
// hot (every broadcast walks nearby objects), so it is a plain RWMutex map
// with snapshot-returning iterators.
type Store struct {
	mu      sync.RWMutex
	objects map[int32]Entity
}

func NewStore() *Store {
	return &Store{objects: make(map[int32]Entity, 1024)}
}

func (s *Store) Add(e Entity) {
	s.mu.Lock()
	s.objects[e.ObjectID()] = e
	s.mu.Unlock()
}

// Remove drops an object and repairs targeting both ways: everyone aiming
// at it loses their target, and whatever it aimed at forgets it. Returns
// false when the object was already gone, so concurrent removers can use
// the result as a claim.
func (s *Store) Remove(id int32) bool {
	s.mu.Lock()
	e, ok := s.objects[id]
	if ok {
		delete(s.objects, id)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	a := actorOf(e)
	if a == nil {
		return true
	}
	for _, watcherID := range a.TargetedBy() {
		if w := s.FindActor(watcherID); w != nil && w.TargetID() == id {
			w.setTargetID(0)
		}
		a.removeTargetedBy(watcherID)
	}
	if tid := a.TargetID(); tid != 0 {
		if t := s.FindActor(tid); t != nil {
			t.removeTargetedBy(id)
		}
		a.setTargetID(0)
	}
	return true
}

func (s *Store) Exists(id int32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[id]
	return ok
}

func (s *Store) Find(id int32) Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[id]
}

// FindActor resolves an ID to the embedded Actor of a character or NPC.
func (s *Store) FindActor(id int32) *Actor {
	s.mu.RLock()
	e := s.objects[id]
	s.mu.RUnlock()
	return actorOf(e)
}

func (s *Store) FindCharacter(id int32) *Character {
	s.mu.RLock()
	e := s.objects[id]
	s.mu.RUnlock()
	c, _ := e.(*Character)
	return c
}

func (s *Store) FindNpc(id int32) *Npc {
	s.mu.RLock()
	e := s.objects[id]
	s.mu.RUnlock()
	n, _ := e.(*Npc)
	return n
}

func (s *Store) FindItem(id int32) *GroundItem {
	s.mu.RLock()
	e := s.objects[id]
	s.mu.RUnlock()
	g, _ := e.(*GroundItem)
	return g
}

// AllNear returns every object within radius of pos.
func (s *Store) AllNear(pos Position, radius int32) []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entity
	for _, e := range s.objects {
		if pos.Within2D(e.ObjectPos(), radius) {
			out = append(out, e)
		}
	}
	return out
}

// CharactersNear returns the players within radius of pos.
func (s *Store) CharactersNear(pos Position, radius int32) []*Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Character
	for _, e := range s.objects {
		if c, ok := e.(*Character); ok && pos.Within2D(c.Pos(), radius) {
			out = append(out, c)
		}
	}
	return out
}

// Characters returns a snapshot of every player in the world.
func (s *Store) Characters() []*Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Character
	for _, e := range s.objects {
		if c, ok := e.(*Character); ok {
			out = append(out, c)
		}
	}
	return out
}

// Actors returns a snapshot of every character and NPC in the world.
func (s *Store) Actors() []*Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Actor
	for _, e := range s.objects {
		if a := actorOf(e); a != nil {
			out = append(out, a)
		}
	}
	return out
}

// Npcs returns a snapshot of every NPC in the world.
func (s *Store) Npcs() []*Npc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Npc
	for _, e := range s.objects {
		if n, ok := e.(*Npc); ok {
			out = append(out, n)
		}
	}
	return out
}

// SetTarget aims a at t, keeping the reverse index in step. Any previous
// target forgets a first.
func (s *Store) SetTarget(a, t *Actor) {
	if old := a.TargetID(); old != 0 && old != t.ID {
		if prev := s.FindActor(old); prev != nil {
			prev.removeTargetedBy(a.ID)
		}
	}
	a.setTargetID(t.ID)
	t.addTargetedBy(a.ID)
}

// ClearTarget drops a's target and the reverse index entry.
func (s *Store) ClearTarget(a *Actor) {
	old := a.TargetID()
	if old == 0 {
		return
	}
	a.setTargetID(0)
	if prev := s.FindActor(old); prev != nil {
		prev.removeTargetedBy(a.ID)
	}
}

func actorOf(e Entity) *Actor {
	switch v := e.(type) {
	case *Character:
		return &v.Actor
	case *Npc:
		return &v.Actor
	case *Actor:
		return v
	default:
		return nil
	}
}
