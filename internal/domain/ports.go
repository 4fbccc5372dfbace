package domain

import "context"

// Catalog is the read-only view of room type definitions.
type Catalog interface {
	Get(ctx context.Context, id string) (RoomType, error)
	// List returns room types ordered by id.
	List(ctx context.Context) ([]RoomType, error)
}

// InventoryStore persists sparse overrides. A record exists only once written.
type InventoryStore interface {
	GetOverride(ctx context.Context, roomTypeID string, d Date) (Override, bool, error)
	// GetOverrides returns only dates in [start, end] that have an override.
	GetOverrides(ctx context.Context, roomTypeID string, start, end Date) (map[Date]Override, error)
	// PutOverride replaces or creates the whole record at the key.
	PutOverride(ctx context.Context, roomTypeID string, d Date, o Override) error
}

// KeyLocker serializes read-modify-write cycles on a single inventory key.
// Different keys never wait on each other.
type KeyLocker interface {
	Lock(ctx context.Context, k Key) (func(), error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models

type RoomInventory struct {
	RoomTypeID string         `json:"room_type_id"`
	Days       []DayInventory `json:"days"`
}

type RoomAvailability struct {
	RoomType     RoomType `json:"room_type"`
	Nights       int      `json:"nights"`
	MinAllotment int      `json:"min_allotment"`
	NightlyRates []int64  `json:"nightly_rates"`
	TotalRate    int64    `json:"total_rate"`
}
