package tool

import (
	"context"
	"fmt"
	"time"

	storex "github.com/brookfield-ai/leasing-assistant/store"
)

const isoDate = "2006-01-02"

// Inventory, PetPolicies, Pricing, and TourSlots are the slices of the
// domain store each lookup needs; the store's repositories satisfy them.
type Inventory interface {
	AvailableUnits(ctx context.Context, communityID string) ([]storex.Unit, error)
}

type PetPolicies interface {
	ByPetType(ctx context.Context, communityID, petType string) (*storex.PetPolicy, error)
}

type Pricing interface {
	CurrentPricing(ctx context.Context, unitID string, moveIn time.Time) (*storex.UnitPricing, error)
}

type TourSlots interface {
	AvailableSlots(ctx context.Context, communityID string, start, end time.Time) ([]storex.TourSlot, error)
}

// Lookups executes the side-effect-free queries behind the tool schemas.
type Lookups struct {
	Units    Inventory
	Policies PetPolicies
	Pricing  Pricing
	Slots    TourSlots
}

func (l *Lookups) checkAvailability(ctx context.Context, args map[string]any) (map[string]any, error) {
	communityID, err := stringArg(args, "community_id")
	if err != nil {
		return nil, err
	}
	bedrooms, err := intArg(args, "bedrooms")
	if err != nil {
		return nil, err
	}

	available, err := l.Units.AvailableUnits(ctx, communityID)
	if err != nil {
		return nil, err
	}

	units := make([]map[string]any, 0, len(available))
	for _, u := range available {
		if u.Bedrooms != bedrooms {
			continue
		}
		units = append(units, map[string]any{
			"id":           u.ID,
			"unit_number":  u.UnitNumber,
			"bedrooms":     u.Bedrooms,
			"bathrooms":    u.Bathrooms,
			"square_feet":  u.SquareFeet,
			"is_available": u.IsAvailable,
		})
	}

	return map[string]any{
		"units":              units,
		"total_count":        len(units),
		"community_id":       communityID,
		"bedrooms_requested": bedrooms,
	}, nil
}

func (l *Lookups) checkPetPolicy(ctx context.Context, args map[string]any) (map[string]any, error) {
	communityID, err := stringArg(args, "community_id")
	if err != nil {
		return nil, err
	}
	petType, err := stringArg(args, "pet_type")
	if err != nil {
		return nil, err
	}

	policy, err := l.Policies.ByPetType(ctx, communityID, petType)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		// Absent policy is data the model should see, not a failure.
		return map[string]any{
			"found":    false,
			"pet_type": petType,
			"message":  fmt.Sprintf("no pet policy recorded for pet_type=%s", petType),
		}, nil
	}

	return map[string]any{
		"found":        true,
		"pet_type":     policy.PetType,
		"allowed":      policy.Allowed,
		"deposit":      policy.Deposit,
		"monthly_fee":  policy.MonthlyFee,
		"weight_limit": policy.WeightLimit,
		"max_count":    policy.MaxCount,
	}, nil
}

func (l *Lookups) getPricing(ctx context.Context, args map[string]any) (map[string]any, error) {
	_, err := stringArg(args, "community_id")
	if err != nil {
		return nil, err
	}
	unitID, err := stringArg(args, "unit_id")
	if err != nil {
		return nil, err
	}
	moveIn, err := dateArg(args, "move_in_date")
	if err != nil {
		return nil, err
	}

	pricing, err := l.Pricing.CurrentPricing(ctx, unitID, moveIn)
	if err != nil {
		return nil, err
	}
	if pricing == nil {
		return map[string]any{
			"found":   false,
			"unit_id": unitID,
			"message": fmt.Sprintf("no current pricing for unit_id=%s", unitID),
		}, nil
	}

	payload := map[string]any{
		"found":            true,
		"unit_id":          pricing.UnitID,
		"rent":             pricing.Rent,
		"move_in_date":     pricing.MoveInDate.Format(isoDate),
		"special_discount": pricing.SpecialDiscount,
		"effective_date":   pricing.EffectiveDate.Format(isoDate),
	}
	if pricing.SpecialOffer != "" {
		payload["special_offer"] = pricing.SpecialOffer
	} else {
		payload["special_offer"] = nil
	}
	if pricing.ExpiresDate != nil {
		payload["expires_date"] = pricing.ExpiresDate.Format(isoDate)
	} else {
		payload["expires_date"] = nil
	}
	return payload, nil
}

func (l *Lookups) findTourSlots(ctx context.Context, args map[string]any) (map[string]any, error) {
	communityID, err := stringArg(args, "community_id")
	if err != nil {
		return nil, err
	}
	start, err := dateArg(args, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := dateArg(args, "end_date")
	if err != nil {
		return nil, err
	}
	// An end date is inclusive: extend it to the end of that day.
	end = end.Add(24*time.Hour - time.Second)

	available, err := l.Slots.AvailableSlots(ctx, communityID, start, end)
	if err != nil {
		return nil, err
	}

	slots := make([]map[string]any, 0, len(available))
	for _, s := range available {
		slots = append(slots, map[string]any{
			"id":               s.ID,
			"start_time":       s.StartTime.Format(time.RFC3339),
			"end_time":         s.EndTime.Format(time.RFC3339),
			"max_capacity":     s.MaxCapacity,
			"current_bookings": s.CurrentBookings,
			"available_spots":  s.AvailableSpots(),
			"is_available":     s.IsAvailable,
		})
	}

	return map[string]any{
		"slots":       slots,
		"total_count": len(slots),
	}, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	value, ok := raw.(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return value, nil
}

// intArg tolerates float64, the type JSON decoding hands us for numbers.
func intArg(args map[string]any, key string) (int, error) {
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}

// dateArg parses an ISO-8601 date; datetimes are not natively transmissible
// to the model, so tool arguments carry dates as strings.
func dateArg(args map[string]any, key string) (time.Time, error) {
	value, err := stringArg(args, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(isoDate, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date: %v", key, err)
	}
	return t, nil
}
