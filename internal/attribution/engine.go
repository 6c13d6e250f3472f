// Package attribution computes multi-model revenue attribution for a deal's
// partner touchpoints. All computation is pure: the engine takes immutable
// snapshots and returns shares, persistence belongs to the caller.
package attribution

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/partnerhub/attribution-service/internal/models"
)

// HalfLifeDays is the time-decay half-life: a touchpoint's weight halves for
// every 7 days of age relative to the deal close time (or now for open deals).
const HalfLifeDays = 7.0

// roleWeights assigns each touchpoint type a fixed weight reflecting its
// sales-cycle impact. The role_based model is the payable model, so these
// constants are pinned and covered by tests.
var roleWeights = map[models.TouchpointType]float64{
	models.TouchpointDealRegistration:    25,
	models.TouchpointCoSell:              20,
	models.TouchpointProposal:            18,
	models.TouchpointNegotiation:         15,
	models.TouchpointDemo:                12,
	models.TouchpointReferral:            10,
	models.TouchpointTechnicalEnablement: 10,
	models.TouchpointIntroduction:        8,
	models.TouchpointContentShare:        5,
}

// RoleWeight returns the configured weight for a touchpoint type.
// Unknown types weigh the same as a content share.
func RoleWeight(t models.TouchpointType) float64 {
	if w, ok := roleWeights[t]; ok {
		return w
	}
	return roleWeights[models.TouchpointContentShare]
}

var (
	ErrInvalidDealAmount = errors.New("deal amount must be positive")
	ErrUnknownModel      = errors.New("unknown attribution model")
)

// Share is one partner's slice of a deal under a single model.
// Partners with a zero share produce no Share at all.
type Share struct {
	PartnerID  uuid.UUID `json:"partnerId"`
	Percentage float64   `json:"percentage"` // 0-100, sums to 100 across a deal
	Amount     float64   `json:"amount"`     // deal amount x percentage/100, rounded to cents
}

// Compute splits the deal's amount across the partners that touched it, using
// the given model. An empty touchpoint list yields no shares and no error.
// The returned percentages always sum to exactly 100.00 for at least one
// touchpoint: rounding residue is assigned to the first partner by touchpoint
// order. now anchors time decay for open deals and is ignored by other models.
func Compute(deal *models.Deal, touchpoints []models.Touchpoint, model models.AttributionModel, now time.Time) ([]Share, error) {
	if deal.Amount <= 0 {
		return nil, ErrInvalidDealAmount
	}
	if len(touchpoints) == 0 {
		return nil, nil
	}

	ordered := orderTouchpoints(touchpoints)

	var weights map[uuid.UUID]float64
	switch model {
	case models.ModelEqualSplit:
		return equalSplit(deal, ordered), nil
	case models.ModelFirstTouch:
		return singleTouch(deal, ordered, false), nil
	case models.ModelLastTouch:
		return singleTouch(deal, ordered, true), nil
	case models.ModelTimeDecay:
		weights = timeDecayWeights(deal, ordered, now)
	case models.ModelRoleBased:
		weights = roleBasedWeights(ordered)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	return normalize(deal, ordered, weights), nil
}

// orderTouchpoints returns a copy sorted by timestamp, breaking ties by
// partner ID then touchpoint ID so attribution is deterministic.
func orderTouchpoints(touchpoints []models.Touchpoint) []models.Touchpoint {
	ordered := make([]models.Touchpoint, len(touchpoints))
	copy(ordered, touchpoints)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		if ordered[i].PartnerID != ordered[j].PartnerID {
			return ordered[i].PartnerID.String() < ordered[j].PartnerID.String()
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})
	return ordered
}

// distinctPartners returns the partners in first-touchpoint order
func distinctPartners(ordered []models.Touchpoint) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ordered))
	var partners []uuid.UUID
	for _, tp := range ordered {
		if !seen[tp.PartnerID] {
			seen[tp.PartnerID] = true
			partners = append(partners, tp.PartnerID)
		}
	}
	return partners
}

// equalSplit gives each distinct partner 100/N percent; the integer-rounding
// remainder goes to the first partner so percentages sum exactly to 100.
func equalSplit(deal *models.Deal, ordered []models.Touchpoint) []Share {
	partners := distinctPartners(ordered)
	n := len(partners)

	base := round2(100.0 / float64(n))
	first := round2(100.0 - base*float64(n-1))

	shares := make([]Share, 0, n)
	for i, partnerID := range partners {
		pct := base
		if i == 0 {
			pct = first
		}
		shares = append(shares, Share{
			PartnerID:  partnerID,
			Percentage: pct,
			Amount:     round2(deal.Amount * pct / 100),
		})
	}
	return shares
}

// singleTouch implements first_touch and last_touch: one partner gets 100%,
// everyone else gets no row. Ties on identical timestamps break to the lowest
// partner ID.
func singleTouch(deal *models.Deal, ordered []models.Touchpoint, last bool) []Share {
	pivot := ordered[0].CreatedAt
	if last {
		pivot = ordered[len(ordered)-1].CreatedAt
	}

	winner := uuid.Nil
	for _, tp := range ordered {
		if !tp.CreatedAt.Equal(pivot) {
			continue
		}
		if winner == uuid.Nil || tp.PartnerID.String() < winner.String() {
			winner = tp.PartnerID
		}
	}

	return []Share{{
		PartnerID:  winner,
		Percentage: 100,
		Amount:     round2(deal.Amount),
	}}
}

// timeDecayWeights computes per-partner raw weights of 2^(-age/halfLife).
// Age is measured against the deal close time, never between touchpoints;
// touchpoints recorded after close carry full weight.
func timeDecayWeights(deal *models.Deal, ordered []models.Touchpoint, now time.Time) map[uuid.UUID]float64 {
	ref := deal.CloseReference(now)

	weights := make(map[uuid.UUID]float64)
	for _, tp := range ordered {
		ageDays := ref.Sub(tp.CreatedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		weights[tp.PartnerID] += math.Exp2(-ageDays / HalfLifeDays)
	}
	return weights
}

// roleBasedWeights sums the per-type role weight of each partner's touchpoints
func roleBasedWeights(ordered []models.Touchpoint) map[uuid.UUID]float64 {
	weights := make(map[uuid.UUID]float64)
	for _, tp := range ordered {
		weights[tp.PartnerID] += RoleWeight(tp.Type)
	}
	return weights
}

// normalize converts raw partner weights into percentage shares summing to
// exactly 100.00, assigning the rounding residue to the first partner by
// touchpoint order.
func normalize(deal *models.Deal, ordered []models.Touchpoint, weights map[uuid.UUID]float64) []Share {
	partners := distinctPartners(ordered)

	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		// degenerate weight table; fall back to an even split
		return equalSplit(deal, ordered)
	}

	shares := make([]Share, 0, len(partners))
	assigned := 0.0
	for _, partnerID := range partners {
		pct := round2(weights[partnerID] / total * 100)
		if pct == 0 {
			// partners whose weight rounds away produce no row
			continue
		}
		assigned += pct
		shares = append(shares, Share{PartnerID: partnerID, Percentage: pct})
	}

	// push the residue onto the first partner
	residue := round2(100 - assigned)
	if residue != 0 && len(shares) > 0 {
		shares[0].Percentage = round2(shares[0].Percentage + residue)
	}

	for i := range shares {
		shares[i].Amount = round2(deal.Amount * shares[i].Percentage / 100)
	}
	return shares
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
