package event

// UnitSpawned is emitted after a unit joins a manager's live list.
type UnitSpawned struct {
	Prefab   string
	ObjectID uint64
	Count    int // live count after the spawn
}

// UnitDespawned is emitted after a unit leaves a manager's live list.
type UnitDespawned struct {
	Prefab   string
	ObjectID uint64
	Count    int
	Expired  bool // removed by lifetime expiry rather than by request
}
