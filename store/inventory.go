package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

type CommunityRepo struct {
	db *bun.DB
}

func (r *CommunityRepo) List(ctx context.Context) ([]Community, error) {
	var communities []Community
	if err := r.db.NewSelect().Model(&communities).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return communities, nil
}

func (r *CommunityRepo) ByID(ctx context.Context, id string) (*Community, error) {
	community := new(Community)
	err := r.db.NewSelect().Model(community).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return community, nil
}

type UnitRepo struct {
	db *bun.DB
}

func (r *UnitRepo) AvailableUnits(ctx context.Context, communityID string) ([]Unit, error) {
	var units []Unit
	err := r.db.NewSelect().Model(&units).
		Where("community_id = ?", communityID).
		Where("is_available = TRUE").
		Order("unit_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *UnitRepo) ByBedrooms(ctx context.Context, communityID string, bedrooms int) ([]Unit, error) {
	var units []Unit
	err := r.db.NewSelect().Model(&units).
		Where("community_id = ?", communityID).
		Where("bedrooms = ?", bedrooms).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *UnitRepo) ByUnitNumber(ctx context.Context, communityID, unitNumber string) (*Unit, error) {
	unit := new(Unit)
	err := r.db.NewSelect().Model(unit).
		Where("community_id = ?", communityID).
		Where("unit_number = ?", unitNumber).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unit, nil
}

type PetPolicyRepo struct {
	db *bun.DB
}

// ByPetType returns nil without error when the community has no policy for
// the pet type; "not found" is data, not a failure.
func (r *PetPolicyRepo) ByPetType(ctx context.Context, communityID, petType string) (*PetPolicy, error) {
	policy := new(PetPolicy)
	err := r.db.NewSelect().Model(policy).
		Where("community_id = ?", communityID).
		Where("pet_type = ?", petType).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return policy, nil
}

func (r *PetPolicyRepo) AllowedPets(ctx context.Context, communityID string) ([]PetPolicy, error) {
	var policies []PetPolicy
	err := r.db.NewSelect().Model(&policies).
		Where("community_id = ?", communityID).
		Where("allowed = TRUE").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return policies, nil
}

type UnitPricingRepo struct {
	db *bun.DB
}

// CurrentPricing picks the most recent pricing row whose move-in window
// covers the requested date and whose effective/expiry window covers now.
func (r *UnitPricingRepo) CurrentPricing(ctx context.Context, unitID string, moveIn time.Time) (*UnitPricing, error) {
	now := time.Now()
	pricing := new(UnitPricing)
	err := r.db.NewSelect().Model(pricing).
		Where("unit_id = ?", unitID).
		Where("move_in_date <= ?", moveIn).
		Where("effective_date <= ?", now).
		Where("(expires_date IS NULL OR expires_date > ?)", now).
		Order("move_in_date DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pricing, nil
}

func (r *UnitPricingRepo) ActiveSpecials(ctx context.Context, unitID string) ([]UnitPricing, error) {
	now := time.Now()
	var rows []UnitPricing
	err := r.db.NewSelect().Model(&rows).
		Where("unit_id = ?", unitID).
		Where("special_offer IS NOT NULL").
		Where("effective_date <= ?", now).
		Where("(expires_date IS NULL OR expires_date > ?)", now).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type TourSlotRepo struct {
	db *bun.DB
}

func (r *TourSlotRepo) AvailableSlots(ctx context.Context, communityID string, start, end time.Time) ([]TourSlot, error) {
	var slots []TourSlot
	err := r.db.NewSelect().Model(&slots).
		Where("community_id = ?", communityID).
		Where("is_available = TRUE").
		Where("start_time >= ?", start).
		Where("end_time <= ?", end).
		Where("current_bookings < max_capacity").
		Order("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// BookSlot claims one spot; returns nil when the slot is gone or full.
func (r *TourSlotRepo) BookSlot(ctx context.Context, slotID string) (*TourSlot, error) {
	slot := new(TourSlot)
	err := r.db.NewSelect().Model(slot).Where("id = ?", slotID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if slot.CurrentBookings >= slot.MaxCapacity {
		return nil, nil
	}

	slot.CurrentBookings++
	if slot.CurrentBookings >= slot.MaxCapacity {
		slot.IsAvailable = false
	}
	_, err = r.db.NewUpdate().Model(slot).
		Column("current_bookings", "is_available").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return slot, nil
}

func (r *TourSlotRepo) CancelBooking(ctx context.Context, slotID string) (*TourSlot, error) {
	slot := new(TourSlot)
	err := r.db.NewSelect().Model(slot).Where("id = ?", slotID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if slot.CurrentBookings <= 0 {
		return nil, nil
	}

	slot.CurrentBookings--
	slot.IsAvailable = true
	_, err = r.db.NewUpdate().Model(slot).
		Column("current_bookings", "is_available").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return slot, nil
}
