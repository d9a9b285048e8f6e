package fabric

import (
	"errors"
	"fmt"
	"math"

	"github.com/ppiankov/overlap/internal/model"
)

// ErrCellBudgetExceeded is returned when a claim set would write more cells
// than the configured budget
var ErrCellBudgetExceeded = errors.New("cell budget exceeded")

// TotalArea sums the area of claims, saturating at math.MaxInt. Invalid
// claims count as zero.
func TotalArea(claims []model.Claim) int {
	total := 0
	for _, c := range claims {
		if c.Check() != nil {
			continue
		}
		area := c.Area()
		if total > math.MaxInt-area {
			return math.MaxInt
		}
		total += area
	}
	return total
}

// CheckBudget fails when the summed area of claims exceeds maxCells.
// maxCells <= 0 disables the check.
func CheckBudget(claims []model.Claim, maxCells int) error {
	if maxCells <= 0 {
		return nil
	}
	if total := TotalArea(claims); total > maxCells {
		return fmt.Errorf("claims cover up to %d cells, limit is %d: %w", total, maxCells, ErrCellBudgetExceeded)
	}
	return nil
}
