// Package fabric implements the occupancy map: for every grid cell, the set of
// claim identities covering it.
//
// A Fabric is updated in place through its pointer methods. It is not safe for
// concurrent writers without external synchronization; use Clone to take an
// independent snapshot, or ClaimAllParallel to build one from many goroutines.
package fabric

import (
	"sort"

	"github.com/ppiankov/overlap/internal/model"
)

type idSet map[model.ClaimID]struct{}

// Fabric maps each claimed coordinate to the ids of the claims covering it
type Fabric struct {
	cells      map[model.Coordinate]idSet
	claims     map[model.ClaimID]model.Claim // first geometry seen for each id
	duplicates map[model.ClaimID]struct{}    // ids applied with differing geometry
}

// New returns an empty fabric
func New() *Fabric {
	return &Fabric{
		cells:      make(map[model.Coordinate]idSet),
		claims:     make(map[model.ClaimID]model.Claim),
		duplicates: make(map[model.ClaimID]struct{}),
	}
}

// FromClaims returns a new fabric with every claim applied
func FromClaims(claims []model.Claim) (*Fabric, error) {
	f := New()
	if err := f.ClaimAll(claims); err != nil {
		return nil, err
	}
	return f, nil
}

// ClaimSquare adds the claim's id to the set at coordinate. Adding the same
// id twice is a no-op.
func (f *Fabric) ClaimSquare(c model.Coordinate, claim model.Claim) {
	f.register(claim)

	ids, ok := f.cells[c]
	if !ok {
		ids = make(idSet, 1)
		f.cells[c] = ids
	}
	ids[claim.ID] = struct{}{}
}

// ClaimArea claims every cell covered by the claim. An invalid claim leaves
// the fabric untouched.
func (f *Fabric) ClaimArea(claim model.Claim) error {
	coords, err := model.Expand(claim)
	if err != nil {
		return err
	}

	for _, c := range coords {
		f.ClaimSquare(c, claim)
	}
	return nil
}

// ClaimAll applies claims left to right and stops at the first invalid one.
// The resulting occupancy does not depend on claim order.
func (f *Fabric) ClaimAll(claims []model.Claim) error {
	for _, claim := range claims {
		if err := f.ClaimArea(claim); err != nil {
			return err
		}
	}
	return nil
}

// Merge unions every cell and registered claim of other into f
func (f *Fabric) Merge(other *Fabric) {
	for id, claim := range other.claims {
		f.register(claim)
		if _, dup := other.duplicates[id]; dup {
			f.duplicates[id] = struct{}{}
		}
	}

	for c, otherIDs := range other.cells {
		ids, ok := f.cells[c]
		if !ok {
			ids = make(idSet, len(otherIDs))
			f.cells[c] = ids
		}
		for id := range otherIDs {
			ids[id] = struct{}{}
		}
	}
}

// Clone returns a deep copy that later writes to f do not affect
func (f *Fabric) Clone() *Fabric {
	clone := &Fabric{
		cells:      make(map[model.Coordinate]idSet, len(f.cells)),
		claims:     make(map[model.ClaimID]model.Claim, len(f.claims)),
		duplicates: make(map[model.ClaimID]struct{}, len(f.duplicates)),
	}
	for c, ids := range f.cells {
		copied := make(idSet, len(ids))
		for id := range ids {
			copied[id] = struct{}{}
		}
		clone.cells[c] = copied
	}
	for id, claim := range f.claims {
		clone.claims[id] = claim
	}
	for id := range f.duplicates {
		clone.duplicates[id] = struct{}{}
	}
	return clone
}

// ClaimsForSquare returns the claims covering c sorted by id, or an empty
// slice when nothing does.
func (f *Fabric) ClaimsForSquare(c model.Coordinate) []model.Claim {
	return f.resolve(f.cells[c])
}

// OverlappingSquares counts the cells covered by two or more claims
func (f *Fabric) OverlappingSquares() int {
	count := 0
	for _, ids := range f.cells {
		if len(ids) >= 2 {
			count++
		}
	}
	return count
}

// ClaimedSquares counts the cells covered by at least one claim
func (f *Fabric) ClaimedSquares() int {
	return len(f.cells)
}

// IntactClaims returns the claims none of whose cells are shared with
// another claim, sorted by id.
func (f *Fabric) IntactClaims() []model.Claim {
	all := make(idSet)
	for _, ids := range f.cells {
		for id := range ids {
			all[id] = struct{}{}
		}
	}

	for id := range f.conflicting() {
		delete(all, id)
	}

	return f.resolve(all)
}

// ConflictingClaims returns the claims touching at least one conflict cell
func (f *Fabric) ConflictingClaims() []model.Claim {
	return f.resolve(f.conflicting())
}

// Claims returns every claim applied so far, sorted by id
func (f *Fabric) Claims() []model.Claim {
	ids := make(idSet, len(f.claims))
	for id := range f.claims {
		ids[id] = struct{}{}
	}
	return f.resolve(ids)
}

// Len returns the number of distinct claim ids applied
func (f *Fabric) Len() int {
	return len(f.claims)
}

// Duplicates returns ids that were applied more than once with differing
// geometry. Every geometry is on the fabric under the one identity.
func (f *Fabric) Duplicates() []model.ClaimID {
	out := make([]model.ClaimID, 0, len(f.duplicates))
	for id := range f.duplicates {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bounds returns the bounding box of all claimed cells; max is exclusive
func (f *Fabric) Bounds() (min, max model.Coordinate, ok bool) {
	for c := range f.cells {
		if !ok {
			min, max, ok = c, model.Coordinate{X: c.X + 1, Y: c.Y + 1}, true
			continue
		}
		if c.X < min.X {
			min.X = c.X
		}
		if c.Y < min.Y {
			min.Y = c.Y
		}
		if c.X+1 > max.X {
			max.X = c.X + 1
		}
		if c.Y+1 > max.Y {
			max.Y = c.Y + 1
		}
	}
	return min, max, ok
}

func (f *Fabric) register(claim model.Claim) {
	existing, ok := f.claims[claim.ID]
	if !ok {
		f.claims[claim.ID] = claim
		return
	}
	if !existing.SameGeometry(claim) {
		f.duplicates[claim.ID] = struct{}{}
	}
}

func (f *Fabric) conflicting() idSet {
	out := make(idSet)
	for _, ids := range f.cells {
		if len(ids) < 2 {
			continue
		}
		for id := range ids {
			out[id] = struct{}{}
		}
	}
	return out
}

// resolve maps ids back to their registered claims, sorted by id
func (f *Fabric) resolve(ids idSet) []model.Claim {
	out := make([]model.Claim, 0, len(ids))
	for id := range ids {
		out = append(out, f.claims[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
