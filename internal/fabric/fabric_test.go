package fabric

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/overlap/internal/model"
)

func claimOf(id string, x, y, w, h int) model.Claim {
	return model.Claim{ID: model.ClaimID(id), TopLeft: model.Coordinate{X: x, Y: y}, Width: w, Height: h}
}

func at(x, y int) model.Coordinate {
	return model.Coordinate{X: x, Y: y}
}

func mustFabric(t *testing.T, claims ...model.Claim) *Fabric {
	t.Helper()
	f, err := FromClaims(claims)
	if err != nil {
		t.Fatalf("FromClaims: %v", err)
	}
	return f
}

func ids(claims []model.Claim) []model.ClaimID {
	out := make([]model.ClaimID, len(claims))
	for i, c := range claims {
		out[i] = c.ID
	}
	return out
}

func TestFabric_SingleClaimHasNoOverlap(t *testing.T) {
	f := mustFabric(t, claimOf("1", 3, 2, 5, 4))

	if got := f.OverlappingSquares(); got != 0 {
		t.Errorf("expected 0 overlapping squares, got %d", got)
	}
	if got := f.ClaimedSquares(); got != 20 {
		t.Errorf("expected 20 claimed squares, got %d", got)
	}
}

func TestFabric_IdenticalClaimsOverlapEverywhere(t *testing.T) {
	f := mustFabric(t, claimOf("1", 3, 2, 5, 4), claimOf("2", 3, 2, 5, 4))

	if got := f.OverlappingSquares(); got != 20 {
		t.Errorf("expected 20 overlapping squares, got %d", got)
	}
	if got := f.IntactClaims(); len(got) != 0 {
		t.Errorf("expected no intact claims, got %v", got)
	}
}

func TestFabric_Example(t *testing.T) {
	f := mustFabric(t,
		claimOf("1", 1, 3, 4, 4),
		claimOf("2", 3, 1, 4, 4),
		claimOf("3", 5, 5, 2, 2),
	)

	if got := f.OverlappingSquares(); got != 4 {
		t.Errorf("expected 4 overlapping squares, got %d", got)
	}

	want := []model.Claim{claimOf("3", 5, 5, 2, 2)}
	if diff := cmp.Diff(want, f.IntactClaims()); diff != "" {
		t.Errorf("IntactClaims() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]model.ClaimID{"1", "2"}, ids(f.ConflictingClaims())); diff != "" {
		t.Errorf("ConflictingClaims() mismatch (-want +got):\n%s", diff)
	}
}

func TestFabric_EmptyFabric(t *testing.T) {
	f := New()

	if got := f.ClaimsForSquare(at(0, 0)); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
	if got := f.OverlappingSquares(); got != 0 {
		t.Errorf("expected 0 overlapping squares, got %d", got)
	}
	if got := f.IntactClaims(); len(got) != 0 {
		t.Errorf("expected no intact claims, got %v", got)
	}
	if _, _, ok := f.Bounds(); ok {
		t.Error("expected no bounds for empty fabric")
	}
}

func TestFabric_SingleCellDifferentIDs(t *testing.T) {
	f := mustFabric(t, claimOf("1", 0, 0, 1, 1), claimOf("2", 0, 0, 1, 1))

	if got := f.OverlappingSquares(); got != 1 {
		t.Errorf("expected 1 overlapping square, got %d", got)
	}
	if got := f.IntactClaims(); len(got) != 0 {
		t.Errorf("expected no intact claims, got %v", got)
	}
}

func TestFabric_ClaimArea(t *testing.T) {
	t.Run("claims a single square", func(t *testing.T) {
		claim := claimOf("123", 0, 0, 1, 1)
		f := New()
		if err := f.ClaimArea(claim); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]model.Claim{claim}, f.ClaimsForSquare(at(0, 0))); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("records both claims for the same square", func(t *testing.T) {
		c1 := claimOf("1", 0, 0, 1, 1)
		c2 := claimOf("2", 0, 0, 1, 1)
		f := New()
		if err := f.ClaimArea(c1); err != nil {
			t.Fatal(err)
		}
		if err := f.ClaimArea(c2); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]model.Claim{c1, c2}, f.ClaimsForSquare(at(0, 0))); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("claims a 2x1 area", func(t *testing.T) {
		claim := claimOf("123", 0, 0, 2, 1)
		f := mustFabric(t, claim)
		for _, c := range []model.Coordinate{at(0, 0), at(1, 0)} {
			if diff := cmp.Diff([]model.Claim{claim}, f.ClaimsForSquare(c)); diff != "" {
				t.Errorf("at %v mismatch (-want +got):\n%s", c, diff)
			}
		}
		if got := f.ClaimsForSquare(at(0, 1)); len(got) != 0 {
			t.Errorf("expected nothing at 0,1, got %v", got)
		}
	})

	t.Run("claims a 1x2 area", func(t *testing.T) {
		claim := claimOf("123", 0, 0, 1, 2)
		f := mustFabric(t, claim)
		for _, c := range []model.Coordinate{at(0, 0), at(0, 1)} {
			if diff := cmp.Diff([]model.Claim{claim}, f.ClaimsForSquare(c)); diff != "" {
				t.Errorf("at %v mismatch (-want +got):\n%s", c, diff)
			}
		}
	})

	t.Run("rejects invalid geometry without touching the fabric", func(t *testing.T) {
		f := mustFabric(t, claimOf("1", 0, 0, 2, 2))
		err := f.ClaimArea(claimOf("2", 0, 0, 0, 2))
		if !errors.Is(err, model.ErrInvalidClaimGeometry) {
			t.Fatalf("expected ErrInvalidClaimGeometry, got %v", err)
		}
		if f.Len() != 1 {
			t.Errorf("expected 1 registered claim, got %d", f.Len())
		}
		if got := f.OverlappingSquares(); got != 0 {
			t.Errorf("expected 0 overlapping squares, got %d", got)
		}
	})
}

func TestFabric_ClaimAllStopsAtInvalidClaim(t *testing.T) {
	f := New()
	err := f.ClaimAll([]model.Claim{
		claimOf("1", 0, 0, 1, 1),
		claimOf("2", 0, 0, 1, -1),
		claimOf("3", 0, 0, 1, 1),
	})
	if !errors.Is(err, model.ErrInvalidClaimGeometry) {
		t.Fatalf("expected ErrInvalidClaimGeometry, got %v", err)
	}
	if f.Len() != 1 {
		t.Errorf("expected only the first claim applied, got %d", f.Len())
	}

	if _, err := FromClaims([]model.Claim{claimOf("x", 0, 0, 0, 0)}); err == nil {
		t.Error("expected FromClaims to fail")
	}
}

func TestFabric_OrderInvariance(t *testing.T) {
	claims := []model.Claim{
		claimOf("1", 1, 3, 4, 4),
		claimOf("2", 3, 1, 4, 4),
		claimOf("3", 5, 5, 2, 2),
		claimOf("4", 0, 0, 10, 1),
	}

	base := mustFabric(t, claims...)
	wantOverlap := base.OverlappingSquares()
	wantIntact := ids(base.IntactClaims())

	permute(claims, func(perm []model.Claim) {
		f := mustFabric(t, perm...)
		if got := f.OverlappingSquares(); got != wantOverlap {
			t.Errorf("permutation %v: expected %d overlapping squares, got %d", ids(perm), wantOverlap, got)
		}
		if diff := cmp.Diff(wantIntact, ids(f.IntactClaims())); diff != "" {
			t.Errorf("permutation %v: intact mismatch (-want +got):\n%s", ids(perm), diff)
		}
	})
}

// permute calls fn with every permutation of claims (Heap's algorithm)
func permute(claims []model.Claim, fn func([]model.Claim)) {
	a := append([]model.Claim(nil), claims...)
	var generate func(k int)
	generate = func(k int) {
		if k == 1 {
			fn(append([]model.Claim(nil), a...))
			return
		}
		generate(k - 1)
		for i := 0; i < k-1; i++ {
			if k%2 == 0 {
				a[i], a[k-1] = a[k-1], a[i]
			} else {
				a[0], a[k-1] = a[k-1], a[0]
			}
			generate(k - 1)
		}
	}
	generate(len(a))
}

func TestFabric_ReclaimingIsIdempotent(t *testing.T) {
	claim := claimOf("1", 3, 2, 5, 4)
	f := mustFabric(t, claim, claim)

	if got := f.OverlappingSquares(); got != 0 {
		t.Errorf("expected a claim never to conflict with itself, got %d", got)
	}
	if diff := cmp.Diff([]model.Claim{claim}, f.IntactClaims()); diff != "" {
		t.Errorf("IntactClaims() mismatch (-want +got):\n%s", diff)
	}
	if got := f.Duplicates(); len(got) != 0 {
		t.Errorf("expected no ambiguous duplicates, got %v", got)
	}
}

func TestFabric_OneSharedCellBreaksIntactness(t *testing.T) {
	big := claimOf("big", 0, 0, 100, 10)
	corner := claimOf("corner", 99, 9, 5, 5)
	clean := claimOf("clean", 200, 200, 3, 3)
	f := mustFabric(t, big, corner, clean)

	if got := f.OverlappingSquares(); got != 1 {
		t.Errorf("expected 1 overlapping square, got %d", got)
	}
	if diff := cmp.Diff([]model.ClaimID{"clean"}, ids(f.IntactClaims())); diff != "" {
		t.Errorf("IntactClaims() mismatch (-want +got):\n%s", diff)
	}
}

func TestFabric_DuplicateIDWithDifferentGeometry(t *testing.T) {
	first := claimOf("7", 0, 0, 2, 2)
	second := claimOf("7", 1, 1, 2, 2)
	f := mustFabric(t, first, second)

	if got := f.OverlappingSquares(); got != 0 {
		t.Errorf("expected same identity not to conflict, got %d", got)
	}
	if got := f.ClaimedSquares(); got != 7 {
		t.Errorf("expected both geometries claimed (7 cells), got %d", got)
	}
	if diff := cmp.Diff([]model.ClaimID{"7"}, f.Duplicates()); diff != "" {
		t.Errorf("Duplicates() mismatch (-want +got):\n%s", diff)
	}
	if got := f.ClaimsForSquare(at(2, 2)); len(got) != 1 || got[0] != first {
		t.Errorf("expected the first geometry to be reported, got %v", got)
	}
}

func TestFabric_CloneIsIsolated(t *testing.T) {
	f := mustFabric(t, claimOf("1", 0, 0, 2, 2))
	snapshot := f.Clone()

	if err := f.ClaimArea(claimOf("2", 1, 1, 2, 2)); err != nil {
		t.Fatal(err)
	}

	if got := f.OverlappingSquares(); got != 1 {
		t.Errorf("expected 1 overlapping square after write, got %d", got)
	}
	if got := snapshot.OverlappingSquares(); got != 0 {
		t.Errorf("expected snapshot unchanged, got %d overlapping squares", got)
	}
	if got := snapshot.ClaimsForSquare(at(1, 1)); len(got) != 1 {
		t.Errorf("expected 1 claim at 1,1 in snapshot, got %v", got)
	}
	if snapshot.Len() != 1 {
		t.Errorf("expected 1 claim in snapshot, got %d", snapshot.Len())
	}
}

func TestFabric_Merge(t *testing.T) {
	claims := []model.Claim{
		claimOf("1", 1, 3, 4, 4),
		claimOf("2", 3, 1, 4, 4),
		claimOf("3", 5, 5, 2, 2),
	}

	left := mustFabric(t, claims[0])
	right := mustFabric(t, claims[1:]...)
	left.Merge(right)

	whole := mustFabric(t, claims...)
	if left.OverlappingSquares() != whole.OverlappingSquares() {
		t.Errorf("expected %d overlapping squares, got %d", whole.OverlappingSquares(), left.OverlappingSquares())
	}
	if diff := cmp.Diff(whole.IntactClaims(), left.IntactClaims()); diff != "" {
		t.Errorf("IntactClaims() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(whole.Claims(), left.Claims()); diff != "" {
		t.Errorf("Claims() mismatch (-want +got):\n%s", diff)
	}
}

func TestFabric_Bounds(t *testing.T) {
	f := mustFabric(t, claimOf("1", 1, 3, 4, 4), claimOf("2", 3, 1, 4, 4))

	lo, hi, ok := f.Bounds()
	if !ok {
		t.Fatal("expected bounds")
	}
	if lo != at(1, 1) || hi != at(7, 7) {
		t.Errorf("expected bounds [1,1 .. 7,7), got [%v .. %v)", lo, hi)
	}
}

func TestClaimAllParallel(t *testing.T) {
	var claims []model.Claim
	for i := 0; i < 40; i++ {
		claims = append(claims, claimOf(string(rune('A'+i)), i*3, i%5, 4, 4))
	}
	want := mustFabric(t, claims...)

	for _, workers := range []int{0, 1, 3, 8, 100} {
		got, err := ClaimAllParallel(context.Background(), claims, workers)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if got.OverlappingSquares() != want.OverlappingSquares() {
			t.Errorf("workers=%d: expected %d overlapping squares, got %d",
				workers, want.OverlappingSquares(), got.OverlappingSquares())
		}
		if diff := cmp.Diff(ids(want.IntactClaims()), ids(got.IntactClaims())); diff != "" {
			t.Errorf("workers=%d: intact mismatch (-want +got):\n%s", workers, diff)
		}
	}
}

func TestClaimAllParallel_InvalidClaim(t *testing.T) {
	claims := []model.Claim{
		claimOf("1", 0, 0, 1, 1),
		claimOf("2", 0, 0, 1, 1),
		claimOf("3", 0, 0, 0, 1),
		claimOf("4", 0, 0, 1, 1),
	}
	_, err := ClaimAllParallel(context.Background(), claims, 2)
	if !errors.Is(err, model.ErrInvalidClaimGeometry) {
		t.Errorf("expected ErrInvalidClaimGeometry, got %v", err)
	}
}

func TestClaimAllParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	claims := []model.Claim{claimOf("1", 0, 0, 1, 1), claimOf("2", 0, 0, 1, 1)}
	if _, err := ClaimAllParallel(ctx, claims, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFabric_Render(t *testing.T) {
	f := mustFabric(t,
		claimOf("1", 1, 3, 4, 4),
		claimOf("2", 3, 1, 4, 4),
		claimOf("3", 5, 5, 2, 2),
	)

	got, err := f.Render(0)
	if err != nil {
		t.Fatal(err)
	}

	want := "" +
		"..oooo\n" +
		"..oooo\n" +
		"ooXXoo\n" +
		"ooXXoo\n" +
		"oooooo\n" +
		"oooooo\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}

	if _, err := f.Render(10); err == nil {
		t.Error("expected error when grid exceeds the cell limit")
	}

	if empty, err := New().Render(0); err != nil || empty != "" {
		t.Errorf("expected empty render, got %q, %v", empty, err)
	}
}

func TestFabric_RenderRegion(t *testing.T) {
	a := mustFabric(t, claimOf("1", 0, 0, 2, 1))
	b := mustFabric(t, claimOf("1", 1, 1, 2, 1), claimOf("2", 2, 1, 1, 1))

	lo, hi, ok := UnionBounds(a, b)
	if !ok {
		t.Fatal("expected union bounds")
	}
	if lo != at(0, 0) || hi != at(3, 2) {
		t.Fatalf("UnionBounds() = %v, %v; want (0,0), (3,2)", lo, hi)
	}

	gotA, err := a.RenderRegion(lo, hi, 0)
	if err != nil {
		t.Fatal(err)
	}
	gotB, err := b.RenderRegion(lo, hi, 0)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff("oo.\n...\n", gotA); diff != "" {
		t.Errorf("RenderRegion(a) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("...\n.oX\n", gotB); diff != "" {
		t.Errorf("RenderRegion(b) mismatch (-want +got):\n%s", diff)
	}

	if _, _, ok := UnionBounds(New(), New()); ok {
		t.Error("expected no bounds for two empty fabrics")
	}
	if lo, hi, _ := UnionBounds(New(), a); lo != at(0, 0) || hi != at(2, 1) {
		t.Errorf("UnionBounds(empty, a) = %v, %v", lo, hi)
	}
}

func TestCheckBudget(t *testing.T) {
	claims := []model.Claim{claimOf("1", 0, 0, 10, 10), claimOf("2", 5, 5, 10, 10)}

	if got := TotalArea(claims); got != 200 {
		t.Errorf("TotalArea() = %d, want 200", got)
	}
	if err := CheckBudget(claims, 200); err != nil {
		t.Errorf("expected budget of 200 to pass, got %v", err)
	}
	if err := CheckBudget(claims, 0); err != nil {
		t.Errorf("expected zero budget to disable the check, got %v", err)
	}
	if err := CheckBudget(claims, 199); !errors.Is(err, ErrCellBudgetExceeded) {
		t.Errorf("expected ErrCellBudgetExceeded, got %v", err)
	}

	huge := []model.Claim{
		claimOf("a", 0, 0, 100000, 100000),
		claimOf("b", 0, 0, 3037000499, 3037000499),
		claimOf("c", 0, 0, 3037000499, 3037000499),
	}
	if err := CheckBudget(huge, 10_000_000); !errors.Is(err, ErrCellBudgetExceeded) {
		t.Errorf("expected ErrCellBudgetExceeded for huge claims, got %v", err)
	}
	if got := TotalArea(huge); got <= 0 {
		t.Errorf("TotalArea() must saturate instead of wrapping, got %d", got)
	}
}

func TestClaimAreaContext(t *testing.T) {
	claim := claimOf("big", 0, 0, 200, 200)

	f := New()
	if err := f.claimAreaContext(context.Background(), claim); err != nil {
		t.Fatal(err)
	}
	if got := f.ClaimedSquares(); got != claim.Area() {
		t.Errorf("expected %d claimed squares, got %d", claim.Area(), got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stopped := New()
	if err := stopped.claimAreaContext(ctx, claim); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := stopped.ClaimedSquares(); got >= claim.Area() {
		t.Errorf("expected a cancelled claim to stop early, got %d squares", got)
	}
}
