package score

import (
	"fmt"

	"github.com/ppiankov/overlap/internal/fabric"
	"github.com/ppiankov/overlap/internal/model"
	"github.com/ppiankov/overlap/internal/validate"
)

// Scorer summarizes contention on a fabric and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate derives the score and diagnostic signals from a populated fabric
func (s *Scorer) Calculate(f *fabric.Fabric, issues []model.ValidationIssue, parseErrors int) model.Score {
	var signals []model.Signal

	claimed := f.ClaimedSquares()
	overlapping := f.OverlappingSquares()
	intact := len(f.IntactClaims())

	// 1. Coverage
	signals = append(signals, s.coverage(f.Claims(), claimed))

	// 2. Contention
	contention, contentionSignal := s.contention(claimed, overlapping)
	signals = append(signals, contentionSignal)

	// 3. Intact claims
	signals = append(signals, s.intact(f.Len(), intact))

	// 4. Ambiguous ids
	if dups := f.Duplicates(); len(dups) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalDuplicateIDs,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d claim id(s) applied with differing geometry", len(dups)),
			Data: map[string]interface{}{
				"ids": dups,
			},
		})
	}

	// 5. Parse errors
	if parseErrors > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalParseErrors,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d input line(s) skipped", parseErrors),
			Data: map[string]interface{}{
				"skipped": parseErrors,
			},
		})
	}

	// 6. Out of bounds
	if n := validate.Count(issues, model.IssueOutOfBounds); n > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalOutOfBounds,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d claim(s) reach past the configured fabric size", n),
			Data: map[string]interface{}{
				"claims": n,
			},
		})
	}

	return model.Score{
		Contention: contention,
		Intact:     intact,
		Conflict:   overlapping > 0,
		Signals:    signals,
	}
}

// coverage compares the summed claim area with the cells actually covered
func (s *Scorer) coverage(claims []model.Claim, claimed int) model.Signal {
	area := 0
	for _, c := range claims {
		area += c.Area()
	}

	if claimed == 0 {
		return model.Signal{
			Type:        model.SignalCoverage,
			Severity:    model.SeverityWarning,
			Description: "No claims applied",
			Data: map[string]interface{}{
				"claims": 0,
			},
		}
	}

	stacking := float64(area) / float64(claimed)
	return model.Signal{
		Type:        model.SignalCoverage,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%d claims cover %d squares (stacking %.2f)", len(claims), claimed, stacking),
		Data: map[string]interface{}{
			"claims":          len(claims),
			"total_area":      area,
			"claimed_squares": claimed,
			"stacking":        stacking,
			"formula":         "sum(width * height) / claimed_squares",
		},
	}
}

// contention is the share of claimed cells covered by two or more claims
func (s *Scorer) contention(claimed, overlapping int) (float64, model.Signal) {
	ratio := 0.0
	if claimed > 0 {
		ratio = float64(overlapping) / float64(claimed)
	}

	severity := model.SeverityInfo
	if ratio > 0.5 {
		severity = model.SeverityCritical
	} else if ratio > 0 {
		severity = model.SeverityWarning
	}

	return ratio, model.Signal{
		Type:        model.SignalContention,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d claimed squares are contested (%.1f%%)", overlapping, claimed, ratio*100),
		Data: map[string]interface{}{
			"overlapping_squares": overlapping,
			"claimed_squares":     claimed,
			"ratio":               ratio,
			"formula":             "overlapping_squares / claimed_squares",
		},
	}
}

func (s *Scorer) intact(total, intact int) model.Signal {
	severity := model.SeverityInfo
	if total > 0 && intact == 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalIntact,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d claims are intact", intact, total),
		Data: map[string]interface{}{
			"intact": intact,
			"claims": total,
		},
	}
}
