package validate

import (
	"fmt"
	"sort"

	"github.com/ppiankov/overlap/internal/model"
)

// Validator checks a claim set before it is applied to a fabric. It only
// reports; nothing is removed from the set.
type Validator struct {
	maxWidth  int
	maxHeight int
}

// NewValidator creates a new validator. Zero limits disable the bounds check.
func NewValidator(cfg model.FabricConfig) *Validator {
	return &Validator{
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
	}
}

// Validate returns the issues found in claims, ordered by claim id then kind
func (v *Validator) Validate(claims []model.Claim) []model.ValidationIssue {
	issues := make([]model.ValidationIssue, 0)

	first := make(map[model.ClaimID]model.Claim, len(claims))
	reported := make(map[model.ClaimID]model.IssueKind)

	for _, c := range claims {
		if err := c.Check(); err != nil {
			issues = append(issues, model.ValidationIssue{
				ClaimID:  c.ID,
				Kind:     model.IssueInvalidGeometry,
				Severity: model.SeverityCritical,
				Message:  err.Error(),
			})
		}

		if c.TopLeft.X < 0 || c.TopLeft.Y < 0 {
			issues = append(issues, model.ValidationIssue{
				ClaimID:  c.ID,
				Kind:     model.IssueNegativeTopLeft,
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("top-left %v is outside the fabric origin", c.TopLeft),
			})
		}

		if issue, ok := v.checkBounds(c); ok {
			issues = append(issues, issue)
		}

		prev, seen := first[c.ID]
		if !seen {
			first[c.ID] = c
			continue
		}

		kind := model.IssueDuplicateID
		if !prev.SameGeometry(c) {
			kind = model.IssueAmbiguousID
		}
		// one issue per id; ambiguous outranks exact
		if reported[c.ID] != model.IssueAmbiguousID {
			reported[c.ID] = kind
		}
	}

	for id, kind := range reported {
		issue := model.ValidationIssue{
			ClaimID:  id,
			Kind:     kind,
			Severity: model.SeverityInfo,
			Message:  "claim id appears more than once with identical geometry",
		}
		if kind == model.IssueAmbiguousID {
			issue.Severity = model.SeverityWarning
			issue.Message = "claim id appears more than once with different geometry; all geometries are applied under one identity"
		}
		issues = append(issues, issue)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].ClaimID != issues[j].ClaimID {
			return issues[i].ClaimID < issues[j].ClaimID
		}
		return issues[i].Kind < issues[j].Kind
	})

	return issues
}

// checkBounds reports a claim reaching past the configured fabric size
func (v *Validator) checkBounds(c model.Claim) (model.ValidationIssue, bool) {
	br := c.BottomRight()
	if (v.maxWidth <= 0 || br.X <= v.maxWidth) && (v.maxHeight <= 0 || br.Y <= v.maxHeight) {
		return model.ValidationIssue{}, false
	}

	return model.ValidationIssue{
		ClaimID:  c.ID,
		Kind:     model.IssueOutOfBounds,
		Severity: model.SeverityWarning,
		Message:  fmt.Sprintf("claim reaches %v, fabric is %dx%d", br, v.maxWidth, v.maxHeight),
	}, true
}

// Count returns how many issues are of the given kind
func Count(issues []model.ValidationIssue, kind model.IssueKind) int {
	n := 0
	for _, issue := range issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}
