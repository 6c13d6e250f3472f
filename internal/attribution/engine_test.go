package attribution

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/partnerhub/attribution-service/internal/models"
)

var (
	partnerA = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	partnerB = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	partnerC = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func testDeal(amount float64, closedAt *time.Time) *models.Deal {
	return &models.Deal{
		ID:       uuid.New(),
		Name:     "Acme expansion",
		Amount:   amount,
		Status:   models.DealStatusOpen,
		ClosedAt: closedAt,
	}
}

func tp(partnerID uuid.UUID, tpType models.TouchpointType, at time.Time) models.Touchpoint {
	return models.Touchpoint{
		ID:        uuid.New(),
		PartnerID: partnerID,
		Type:      tpType,
		CreatedAt: at,
	}
}

func pctSum(shares []Share) float64 {
	var sum float64
	for _, s := range shares {
		sum += s.Percentage
	}
	return math.Round(sum*100) / 100
}

func shareFor(t *testing.T, shares []Share, partnerID uuid.UUID) Share {
	t.Helper()
	for _, s := range shares {
		if s.PartnerID == partnerID {
			return s
		}
	}
	t.Fatalf("no share for partner %s", partnerID)
	return Share{}
}

func TestCompute_InvalidAmount(t *testing.T) {
	deal := testDeal(0, nil)
	touchpoints := []models.Touchpoint{tp(partnerA, models.TouchpointReferral, time.Now())}

	if _, err := Compute(deal, touchpoints, models.ModelEqualSplit, time.Now()); err != ErrInvalidDealAmount {
		t.Errorf("expected ErrInvalidDealAmount, got %v", err)
	}
}

func TestCompute_UnknownModel(t *testing.T) {
	deal := testDeal(1000, nil)
	touchpoints := []models.Touchpoint{tp(partnerA, models.TouchpointReferral, time.Now())}

	if _, err := Compute(deal, touchpoints, "weighted_magic", time.Now()); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestCompute_NoTouchpoints(t *testing.T) {
	deal := testDeal(1000, nil)

	shares, err := Compute(deal, nil, models.ModelEqualSplit, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 0 {
		t.Errorf("expected no shares, got %d", len(shares))
	}
}

func TestCompute_SinglePartnerAllModels(t *testing.T) {
	deal := testDeal(5000, nil)
	now := time.Now()
	touchpoints := []models.Touchpoint{
		tp(partnerA, models.TouchpointReferral, now.Add(-72*time.Hour)),
		tp(partnerA, models.TouchpointDemo, now.Add(-24*time.Hour)),
	}

	for _, model := range models.AllAttributionModels() {
		shares, err := Compute(deal, touchpoints, model, now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", model, err)
		}
		if len(shares) != 1 {
			t.Fatalf("%s: expected 1 share, got %d", model, len(shares))
		}
		if shares[0].Percentage != 100 {
			t.Errorf("%s: expected 100%%, got %v", model, shares[0].Percentage)
		}
		if shares[0].Amount != 5000 {
			t.Errorf("%s: expected full amount, got %v", model, shares[0].Amount)
		}
	}
}

func TestEqualSplit_ThreePartners(t *testing.T) {
	deal := testDeal(10000, nil)
	now := time.Now()
	touchpoints := []models.Touchpoint{
		tp(partnerA, models.TouchpointReferral, now.Add(-3*time.Hour)),
		tp(partnerB, models.TouchpointDemo, now.Add(-2*time.Hour)),
		tp(partnerC, models.TouchpointCoSell, now.Add(-1*time.Hour)),
		// second touch by A must not change the split
		tp(partnerA, models.TouchpointProposal, now),
	}

	shares, err := Compute(deal, touchpoints, models.ModelEqualSplit, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(shares))
	}
	if got := pctSum(shares); got != 100 {
		t.Errorf("percentages must sum to 100, got %v", got)
	}

	// 100/3 rounds to 33.33; the first partner absorbs the residue
	if a := shareFor(t, shares, partnerA); a.Percentage != 33.34 {
		t.Errorf("expected first partner to get 33.34, got %v", a.Percentage)
	}
	if b := shareFor(t, shares, partnerB); b.Percentage != 33.33 {
		t.Errorf("expected 33.33, got %v", b.Percentage)
	}
}

func TestFirstTouch_LastTouch(t *testing.T) {
	deal := testDeal(8000, nil)
	now := time.Now()
	touchpoints := []models.Touchpoint{
		tp(partnerB, models.TouchpointDemo, now.Add(-time.Hour)),
		tp(partnerA, models.TouchpointReferral, now.Add(-48*time.Hour)),
		tp(partnerC, models.TouchpointNegotiation, now),
	}

	first, err := Compute(deal, touchpoints, models.ModelFirstTouch, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 1 || first[0].PartnerID != partnerA {
		t.Errorf("expected first_touch winner %s, got %+v", partnerA, first)
	}
	if first[0].Percentage != 100 || first[0].Amount != 8000 {
		t.Errorf("winner must take the full deal, got %+v", first[0])
	}

	last, err := Compute(deal, touchpoints, models.ModelLastTouch, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(last) != 1 || last[0].PartnerID != partnerC {
		t.Errorf("expected last_touch winner %s, got %+v", partnerC, last)
	}
}

func TestFirstTouch_TimestampTieBreaksToLowestID(t *testing.T) {
	deal := testDeal(1000, nil)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	touchpoints := []models.Touchpoint{
		tp(partnerB, models.TouchpointDemo, at),
		tp(partnerA, models.TouchpointReferral, at),
	}

	shares, err := Compute(deal, touchpoints, models.ModelFirstTouch, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 1 || shares[0].PartnerID != partnerA {
		t.Errorf("tie must break to lowest partner ID, got %+v", shares)
	}
}

func TestTimeDecay_RecentTouchWeighsMore(t *testing.T) {
	closed := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	deal := testDeal(10000, &closed)
	deal.Status = models.DealStatusWon

	touchpoints := []models.Touchpoint{
		// 14 days before close: weight 2^-2 = 0.25
		tp(partnerA, models.TouchpointReferral, closed.AddDate(0, 0, -14)),
		// at close: weight 1
		tp(partnerB, models.TouchpointCoSell, closed),
	}

	shares, err := Compute(deal, touchpoints, models.ModelTimeDecay, closed.AddDate(0, 0, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pctSum(shares); got != 100 {
		t.Errorf("percentages must sum to 100, got %v", got)
	}

	a := shareFor(t, shares, partnerA)
	b := shareFor(t, shares, partnerB)
	if a.Percentage >= b.Percentage {
		t.Errorf("older touch must weigh less: a=%v b=%v", a.Percentage, b.Percentage)
	}
	// 0.25 / 1.25 = 20%, 1 / 1.25 = 80%
	if a.Percentage != 20 || b.Percentage != 80 {
		t.Errorf("expected 20/80 split, got a=%v b=%v", a.Percentage, b.Percentage)
	}
}

func TestTimeDecay_TouchAfterCloseClampedToFullWeight(t *testing.T) {
	closed := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	deal := testDeal(1000, &closed)
	deal.Status = models.DealStatusWon

	touchpoints := []models.Touchpoint{
		tp(partnerA, models.TouchpointReferral, closed),
		// recorded after close; clamps to age 0, same weight as at-close
		tp(partnerB, models.TouchpointCoSell, closed.AddDate(0, 0, 3)),
	}

	shares, err := Compute(deal, touchpoints, models.ModelTimeDecay, closed.AddDate(0, 0, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := shareFor(t, shares, partnerA)
	b := shareFor(t, shares, partnerB)
	if a.Percentage != 50 || b.Percentage != 50 {
		t.Errorf("expected 50/50, got a=%v b=%v", a.Percentage, b.Percentage)
	}
}

func TestRoleBased_CoSellVersusReferral(t *testing.T) {
	// $100k deal, A refers at T0, B co-sells later, deal closes won.
	// co_sell weighs 20 vs referral 10, so B takes two thirds.
	closed := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	deal := testDeal(100000, &closed)
	deal.Status = models.DealStatusWon

	touchpoints := []models.Touchpoint{
		tp(partnerA, models.TouchpointReferral, closed.AddDate(0, 0, -10)),
		tp(partnerB, models.TouchpointCoSell, closed.AddDate(0, 0, -5)),
	}

	shares, err := Compute(deal, touchpoints, models.ModelRoleBased, closed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pctSum(shares); got != 100 {
		t.Errorf("percentages must sum to 100, got %v", got)
	}

	a := shareFor(t, shares, partnerA)
	b := shareFor(t, shares, partnerB)
	if a.Percentage != 33.33 {
		t.Errorf("expected referral partner at 33.33, got %v", a.Percentage)
	}
	if b.Percentage != 66.67 {
		t.Errorf("expected co-sell partner at 66.67, got %v", b.Percentage)
	}
	if a.Amount != 33330 || b.Amount != 66670 {
		t.Errorf("amounts must follow percentages: a=%v b=%v", a.Amount, b.Amount)
	}
}

func TestRoleBased_UnknownTypeWeighsLikeContentShare(t *testing.T) {
	if RoleWeight("carrier_pigeon") != RoleWeight(models.TouchpointContentShare) {
		t.Error("unknown touchpoint types must weigh like content_share")
	}
}

func TestCompute_Idempotent(t *testing.T) {
	deal := testDeal(42000, nil)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	touchpoints := []models.Touchpoint{
		tp(partnerA, models.TouchpointDealRegistration, now.Add(-96*time.Hour)),
		tp(partnerB, models.TouchpointDemo, now.Add(-48*time.Hour)),
		tp(partnerC, models.TouchpointNegotiation, now.Add(-12*time.Hour)),
	}

	for _, model := range models.AllAttributionModels() {
		one, err := Compute(deal, touchpoints, model, now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", model, err)
		}
		two, err := Compute(deal, touchpoints, model, now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", model, err)
		}
		if len(one) != len(two) {
			t.Fatalf("%s: share count changed between runs", model)
		}
		for i := range one {
			if one[i] != two[i] {
				t.Errorf("%s: run differs at %d: %+v vs %+v", model, i, one[i], two[i])
			}
		}
	}
}

func TestCompute_InputOrderDoesNotMatter(t *testing.T) {
	deal := testDeal(9000, nil)
	now := time.Now()
	forward := []models.Touchpoint{
		tp(partnerA, models.TouchpointReferral, now.Add(-3*time.Hour)),
		tp(partnerB, models.TouchpointCoSell, now.Add(-2*time.Hour)),
		tp(partnerC, models.TouchpointDemo, now.Add(-1*time.Hour)),
	}
	reversed := []models.Touchpoint{forward[2], forward[1], forward[0]}

	a, err := Compute(deal, forward, models.ModelRoleBased, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Compute(deal, reversed, models.ModelRoleBased, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("share counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("shares differ at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}
