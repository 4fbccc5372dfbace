package memory

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	"github.com/cockroachdb/errors"

	"hotel_inventory/internal/domain"
)

// Catalog is a fixed set of room types, typically seeded from a JSON file.
type Catalog struct {
	byID  map[string]domain.RoomType
	order []domain.RoomType
}

func NewCatalog(rooms ...domain.RoomType) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]domain.RoomType, len(rooms))}
	for _, r := range rooms {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, errors.Wrapf(domain.ErrValidation, "duplicate room type %q", r.ID)
		}
		c.byID[r.ID] = r
		c.order = append(c.order, r)
	}
	sort.Slice(c.order, func(i, j int) bool { return c.order[i].ID < c.order[j].ID })
	return c, nil
}

// SeedRoom is one entry of a catalog seed file. A nil DefaultAllotment means
// the configured global default applies.
type SeedRoom struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	BaseRate         int64  `json:"base_rate"`
	DefaultAllotment *int   `json:"default_allotment"`
}

// RoomType resolves the seed entry against the global default.
func (s SeedRoom) RoomType(defaultAllotment int) domain.RoomType {
	da := defaultAllotment
	if s.DefaultAllotment != nil {
		da = *s.DefaultAllotment
	}
	return domain.RoomType{ID: s.ID, Name: s.Name, BaseRate: s.BaseRate, DefaultAllotment: da}
}

// ReadSeedFile reads a JSON array of room types.
func ReadSeedFile(path string) ([]SeedRoom, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog file %s", path)
	}
	var seed []SeedRoom
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, errors.Wrapf(err, "parse catalog file %s", path)
	}
	return seed, nil
}

// LoadCatalogFile builds a catalog from a seed file. Rooms without a
// default_allotment get defaultAllotment.
func LoadCatalogFile(path string, defaultAllotment int) (*Catalog, error) {
	seed, err := ReadSeedFile(path)
	if err != nil {
		return nil, err
	}
	rooms := make([]domain.RoomType, 0, len(seed))
	for _, s := range seed {
		rooms = append(rooms, s.RoomType(defaultAllotment))
	}
	return NewCatalog(rooms...)
}

func (c *Catalog) Get(ctx context.Context, id string) (domain.RoomType, error) {
	r, ok := c.byID[id]
	if !ok {
		return domain.RoomType{}, domain.RoomNotFound(id)
	}
	return r, nil
}

func (c *Catalog) List(ctx context.Context) ([]domain.RoomType, error) {
	out := make([]domain.RoomType, len(c.order))
	copy(out, c.order)
	return out, nil
}
