package world

// GroundItem is an item lying in the world, waiting to be picked up.
type GroundItem struct {
	Object

	TemplateID int32
	Count      int64
	Stackable  bool
	Weight     int32
	Pos        Position
	Persisted  bool // true when backed by a DB row
}

func (g *GroundItem) ObjectPos() Position { return g.Pos }
