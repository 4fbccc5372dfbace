package domain

// DefaultAllotment applies to room types that do not configure their own.
const DefaultAllotment = 5

type RoomType struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	BaseRate         int64  `json:"base_rate"`
	DefaultAllotment int    `json:"default_allotment"`
}

func (r RoomType) Validate() error {
	if r.ID == "" {
		return validationf("room type id is required")
	}
	if r.BaseRate <= 0 {
		return validationf("room type %q: base_rate must be > 0, got %d", r.ID, r.BaseRate)
	}
	if r.DefaultAllotment < 0 {
		return validationf("room type %q: default_allotment must be >= 0, got %d", r.ID, r.DefaultAllotment)
	}
	return nil
}
