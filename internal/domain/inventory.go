package domain

import (
	"encoding/json"
	"math"
)

// Override is an explicit, fully materialized record for one (room type, date).
type Override struct {
	Allotment int
	Rate      int64
	Closed    bool
}

func (o Override) Validate() error {
	if err := checkAllotment(o.Allotment); err != nil {
		return err
	}
	if o.Rate <= 0 {
		return validationf("rate must be > 0, got %d", o.Rate)
	}
	return nil
}

// MaxAllotment is the largest allotment every store can hold (a MySQL INT).
const MaxAllotment = math.MaxInt32

func checkAllotment(n int) error {
	if n < 0 {
		return validationf("allotment must be >= 0, got %d", n)
	}
	if n > MaxAllotment {
		return validationf("allotment %d out of range, max %d", n, MaxAllotment)
	}
	return nil
}

// Effective is the resolved inventory for a room type on a date.
type Effective struct {
	Allotment int   `json:"allotment"`
	Rate      int64 `json:"rate"`
	Closed    bool  `json:"is_closed"`
}

// Sellable reports whether at least one room can be sold on the date.
func (e Effective) Sellable() bool { return !e.Closed && e.Allotment > 0 }

// Merge lays an override, when present, over the room type defaults.
func Merge(rt RoomType, o Override, ok bool) Effective {
	if ok {
		return Effective{Allotment: o.Allotment, Rate: o.Rate, Closed: o.Closed}
	}
	return Effective{Allotment: rt.DefaultAllotment, Rate: rt.BaseRate, Closed: false}
}

type DayInventory struct {
	Date Date `json:"date"`
	Effective
}

// Key identifies the unit of atomicity: one room type on one date.
type Key struct {
	RoomTypeID string
	Date       Date
}

func (k Key) String() string { return k.RoomTypeID + ":" + k.Date.String() }

type Field string

const (
	FieldAllotment Field = "allotment"
	FieldRate      Field = "rate"
	FieldClosed    Field = "is_closed"
)

func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldAllotment, FieldRate, FieldClosed:
		return f, nil
	}
	return "", validationf("unsupported field %q", s)
}

// Patch holds independently optional field values. Absent fields keep the
// current effective value of whatever date the patch is applied to.
type Patch struct {
	Allotment Optional[int]   `json:"allotment"`
	Rate      Optional[int64] `json:"rate"`
	Closed    Optional[bool]  `json:"is_closed"`
}

func (p Patch) Empty() bool {
	return !p.Allotment.IsSet() && !p.Rate.IsSet() && !p.Closed.IsSet()
}

// Validate checks only the fields that are present.
func (p Patch) Validate() error {
	if v, ok := p.Allotment.Get(); ok {
		if err := checkAllotment(v); err != nil {
			return err
		}
	}
	if v, ok := p.Rate.Get(); ok && v <= 0 {
		return validationf("rate must be > 0, got %d", v)
	}
	return nil
}

// Materialize builds the full override to store: patched fields from p, the
// rest copied from cur.
func (p Patch) Materialize(cur Effective) Override {
	return Override{
		Allotment: p.Allotment.OrElse(cur.Allotment),
		Rate:      p.Rate.OrElse(cur.Rate),
		Closed:    p.Closed.OrElse(cur.Closed),
	}
}

// PatchFor turns a single-field edit into a one-field patch. value may come
// straight from a JSON decoder, so numbers can arrive as float64 or json.Number.
func PatchFor(field Field, value any) (Patch, error) {
	var p Patch
	switch field {
	case FieldAllotment:
		n, err := toInt64(field, value)
		if err != nil {
			return Patch{}, err
		}
		p.Allotment = Some(int(n))
	case FieldRate:
		n, err := toInt64(field, value)
		if err != nil {
			return Patch{}, err
		}
		p.Rate = Some(n)
	case FieldClosed:
		b, ok := value.(bool)
		if !ok {
			return Patch{}, validationf("is_closed must be a boolean, got %T", value)
		}
		p.Closed = Some(b)
	default:
		return Patch{}, validationf("unsupported field %q", field)
	}
	return p, p.Validate()
}

func toInt64(field Field, value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt64/2 {
			return 0, validationf("%s must be an integer, got %v", field, v)
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, validationf("%s must be an integer, got %s", field, v)
		}
		return n, nil
	default:
		return 0, validationf("%s must be a number, got %T", field, value)
	}
}
