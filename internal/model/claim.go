package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidClaimGeometry is returned for a claim whose width or height is not
// positive, or whose area or far edge does not fit in an int
var ErrInvalidClaimGeometry = errors.New("invalid claim geometry")

// Coordinate is one cell of the grid. It is comparable and used directly as a map key.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

// ClaimID identifies a claim. Two claims with the same ID are the same claim
// regardless of geometry.
type ClaimID string

// Claim is a rectangular region of the grid declared by one input line
type Claim struct {
	ID      ClaimID    `json:"id"`
	TopLeft Coordinate `json:"top_left"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`
}

// Check asserts that the claim occupies at least one cell and that its area
// and exclusive bottom-right corner are representable
func (c Claim) Check() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("claim %q %dx%d: %w", c.ID, c.Width, c.Height, ErrInvalidClaimGeometry)
	}
	if c.TopLeft.X > math.MaxInt-c.Width || c.TopLeft.Y > math.MaxInt-c.Height {
		return fmt.Errorf("claim %q @ %v: %dx%d overflows the grid: %w", c.ID, c.TopLeft, c.Width, c.Height, ErrInvalidClaimGeometry)
	}
	if c.Width > math.MaxInt/c.Height {
		return fmt.Errorf("claim %q %dx%d: area overflows: %w", c.ID, c.Width, c.Height, ErrInvalidClaimGeometry)
	}
	return nil
}

// Area returns the number of cells the claim covers
func (c Claim) Area() int {
	return c.Width * c.Height
}

// BottomRight returns the exclusive lower-right corner of the claim
func (c Claim) BottomRight() Coordinate {
	return Coordinate{X: c.TopLeft.X + c.Width, Y: c.TopLeft.Y + c.Height}
}

// SameGeometry reports whether both claims cover exactly the same cells
func (c Claim) SameGeometry(other Claim) bool {
	return c.TopLeft == other.TopLeft && c.Width == other.Width && c.Height == other.Height
}

func (c Claim) String() string {
	return fmt.Sprintf("#%s @ %d,%d: %dx%d", c.ID, c.TopLeft.X, c.TopLeft.Y, c.Width, c.Height)
}

// Expand returns every coordinate covered by the claim, x-major then y.
func Expand(c Claim) ([]Coordinate, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}

	coords := make([]Coordinate, 0, c.Area())
	for x := c.TopLeft.X; x < c.TopLeft.X+c.Width; x++ {
		for y := c.TopLeft.Y; y < c.TopLeft.Y+c.Height; y++ {
			coords = append(coords, Coordinate{X: x, Y: y})
		}
	}

	return coords, nil
}
