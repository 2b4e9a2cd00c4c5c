package world

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChar(id int32, x, y int32) *Character {
	return NewCharacter(id, "c", Position{X: x, Y: y}, 10, 100, 50, 30, CombatStats{
		PAtk: 10, PDef: 10, Accuracy: 50, Evasion: 30, AtkSpd: 300, Speed: 120, AttackRange: 40,
	})
}

func testNpc(id int32, x, y int32) *Npc {
	return NewNpc(id, "gremlin", 20001, Position{X: x, Y: y}, 5, 60, 20, CombatStats{
		PAtk: 8, PDef: 8, Accuracy: 40, Evasion: 20, AtkSpd: 250, Speed: 80, AttackRange: 36,
	})
}

func TestSetTargetKeepsReverseIndex(t *testing.T) {
	s := NewStore()
	a := testChar(1, 0, 0)
	b := testNpc(2, 50, 0)
	s.Add(a)
	s.Add(b)

	s.SetTarget(&a.Actor, &b.Actor)
	assert.Equal(t, int32(2), a.TargetID())
	assert.Equal(t, []int32{1}, b.TargetedBy())

	// Switching target drops the old reverse entry.
	c := testNpc(3, 60, 0)
	s.Add(c)
	s.SetTarget(&a.Actor, &c.Actor)
	assert.Equal(t, int32(3), a.TargetID())
	assert.Empty(t, b.TargetedBy())
	assert.Equal(t, []int32{1}, c.TargetedBy())
}

func TestClearTargetDropsBothSides(t *testing.T) {
	s := NewStore()
	a := testChar(1, 0, 0)
	b := testNpc(2, 50, 0)
	s.Add(a)
	s.Add(b)

	s.SetTarget(&a.Actor, &b.Actor)
	s.ClearTarget(&a.Actor)
	assert.Zero(t, a.TargetID())
	assert.Empty(t, b.TargetedBy())
}

func TestRemovePurgesTargeting(t *testing.T) {
	s := NewStore()
	a := testChar(1, 0, 0)
	b := testChar(2, 10, 0)
	victim := testNpc(3, 50, 0)
	s.Add(a)
	s.Add(b)
	s.Add(victim)

	s.SetTarget(&a.Actor, &victim.Actor)
	s.SetTarget(&b.Actor, &victim.Actor)
	s.SetTarget(&victim.Actor, &a.Actor)

	s.Remove(victim.ID)

	require.False(t, s.Exists(victim.ID))
	assert.Zero(t, a.TargetID())
	assert.Zero(t, b.TargetID())
	assert.NotContains(t, a.TargetedBy(), int32(3))
}

func TestFindActorResolvesEmbedded(t *testing.T) {
	s := NewStore()
	c := testChar(1, 0, 0)
	n := testNpc(2, 0, 0)
	s.Add(c)
	s.Add(n)

	require.NotNil(t, s.FindActor(1))
	require.NotNil(t, s.FindActor(2))
	assert.Same(t, &c.Actor, s.FindActor(1))
	assert.Nil(t, s.FindActor(99))
}

func TestCharactersNearFiltersByRadius(t *testing.T) {
	s := NewStore()
	near := testChar(1, 100, 100)
	far := testChar(2, 5000, 5000)
	s.Add(near)
	s.Add(far)
	s.Add(testNpc(3, 100, 100))

	got := s.CharactersNear(Position{X: 0, Y: 0}, 2000)
	require.Len(t, got, 1)
	assert.Equal(t, int32(1), got[0].ID)
}

func TestActorsSkipsGroundItems(t *testing.T) {
	s := NewStore()
	s.Add(testChar(1, 0, 0))
	s.Add(testNpc(2, 0, 0))
	s.Add(&GroundItem{Object: Object{ID: 3, Name: "adena"}, TemplateID: AdenaID, Count: 10, Stackable: true})

	actors := s.Actors()
	require.Len(t, actors, 2)
	ids := []int32{actors[0].ID, actors[1].ID}
	assert.ElementsMatch(t, []int32{1, 2}, ids)
}

func TestConcurrentTargetChurn(t *testing.T) {
	s := NewStore()
	victim := testNpc(100, 0, 0)
	s.Add(victim)

	const n = 20
	chars := make([]*Character, n)
	for i := range chars {
		chars[i] = testChar(int32(i+1), 0, 0)
		s.Add(chars[i])
	}

	var wg sync.WaitGroup
	for _, c := range chars {
		wg.Add(1)
		go func(c *Character) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.SetTarget(&c.Actor, &victim.Actor)
				s.ClearTarget(&c.Actor)
			}
		}(c)
	}
	wg.Wait()

	assert.Empty(t, victim.TargetedBy())
	for _, c := range chars {
		assert.Zero(t, c.TargetID())
	}
}
