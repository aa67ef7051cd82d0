package service

import (
	"encoding/binary"
	"sort"

	"github.com/google/uuid"

	"royaltyengine/models"
	"royaltyengine/money"
)

// CreatorAllocation is one creator's exact share of a revenue amount
type CreatorAllocation struct {
	CreatorID    uuid.UUID
	ShareBps     int64
	RoyaltyCents int64
}

// SplitRevenue distributes a revenue amount across ownership shares using
// the largest-remainder allocator, so the per-creator amounts always sum to
// the revenue exactly. A single 10000-bps owner takes the same code path.
//
// Shares are processed in creator-ID order, then rotated by the tieBreak
// key before allocation. The allocator hands leftover cents to the earliest
// equal remainder, so without the rotation the lexicographically first
// creator would collect the odd cent on every license they co-own. The key
// is derived from stable identifiers, so recalculations stay byte-identical.
func SplitRevenue(revenueCents int64, shares []*models.OwnershipShare, tieBreak uuid.UUID) ([]CreatorAllocation, error) {
	ordered := make([]*models.OwnershipShare, len(shares))
	copy(ordered, shares)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatorID.String() < ordered[j].CreatorID.String()
	})

	if n := len(ordered); n > 1 {
		offset := int(binary.BigEndian.Uint64(tieBreak[:8]) % uint64(n))
		ordered = append(ordered[offset:], ordered[:offset]...)
	}

	weights := make([]int64, len(ordered))
	for i, share := range ordered {
		weights[i] = share.ShareBps
	}

	amounts, err := money.Allocate(revenueCents, weights)
	if err != nil {
		return nil, err
	}

	allocations := make([]CreatorAllocation, len(ordered))
	for i, share := range ordered {
		allocations[i] = CreatorAllocation{
			CreatorID:    share.CreatorID,
			ShareBps:     share.ShareBps,
			RoyaltyCents: amounts[i],
		}
	}
	return allocations, nil
}

// SplitTieBreak derives the rotation key for one (asset, license) pair by
// folding their IDs together. Stable across recalculations, different across
// pairs.
func SplitTieBreak(assetID, licenseID uuid.UUID) uuid.UUID {
	var key uuid.UUID
	for i := range key {
		key[i] = assetID[i] ^ licenseID[i]
	}
	return key
}

// SumShareBps totals the basis points of an asset's ownership shares
func SumShareBps(shares []*models.OwnershipShare) int64 {
	var total int64
	for _, share := range shares {
		total += share.ShareBps
	}
	return total
}
