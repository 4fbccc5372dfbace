package app

import (
	"context"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"hotel_inventory/internal/domain"
)

// Availability answers stay searches from effective inventory. It never writes;
// decrementing allotment on booking belongs to the reservation system.
type Availability struct {
	catalog  domain.Catalog
	resolver *Resolver
	maxDays  int
}

func NewAvailability(c domain.Catalog, r *Resolver, maxDays int) *Availability {
	return &Availability{catalog: c, resolver: r, maxDays: maxDays}
}

// Search returns the room types sellable for every night in [checkIn, checkOut).
func (a *Availability) Search(ctx context.Context, checkIn, checkOut domain.Date) ([]domain.RoomAvailability, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return nil, errors.Wrap(domain.ErrValidation, "check_in and check_out are required")
	}
	if !checkIn.Before(checkOut) {
		return nil, errors.Wrapf(domain.ErrInvalidRange, "check_out %s must be after check_in %s", checkOut, checkIn)
	}
	lastNight := checkOut.AddDays(-1)
	if err := domain.CheckRange(checkIn, lastNight, a.maxDays); err != nil {
		return nil, err
	}
	rooms, err := a.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	found := make([]*domain.RoomAvailability, len(rooms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.resolver.parallelism)
	for i, rt := range rooms {
		g.Go(func() error {
			days, err := a.resolver.resolveRange(gctx, rt, checkIn, lastNight)
			if err != nil {
				return err
			}
			found[i] = summarize(rt, days)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.RoomAvailability, 0, len(rooms))
	for _, ra := range found {
		if ra != nil {
			out = append(out, *ra)
		}
	}
	return out, nil
}

// summarize returns nil when any night is closed or sold out.
func summarize(rt domain.RoomType, nights []domain.DayInventory) *domain.RoomAvailability {
	ra := &domain.RoomAvailability{
		RoomType:     rt,
		Nights:       len(nights),
		NightlyRates: make([]int64, 0, len(nights)),
	}
	for i, n := range nights {
		if !n.Sellable() {
			return nil
		}
		if i == 0 || n.Allotment < ra.MinAllotment {
			ra.MinAllotment = n.Allotment
		}
		ra.NightlyRates = append(ra.NightlyRates, n.Rate)
		ra.TotalRate += n.Rate
	}
	return ra
}
