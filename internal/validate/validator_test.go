package validate

import (
	"testing"

	"github.com/ppiankov/overlap/internal/model"
)

func claimOf(id string, x, y, w, h int) model.Claim {
	return model.Claim{ID: model.ClaimID(id), TopLeft: model.Coordinate{X: x, Y: y}, Width: w, Height: h}
}

func TestValidator_CleanSet(t *testing.T) {
	v := NewValidator(model.FabricConfig{})

	issues := v.Validate([]model.Claim{
		claimOf("1", 1, 3, 4, 4),
		claimOf("2", 3, 1, 4, 4),
		claimOf("3", 5, 5, 2, 2),
	})

	if len(issues) != 0 {
		t.Errorf("expected no issues, got %+v", issues)
	}
}

func TestValidator_Duplicates(t *testing.T) {
	v := NewValidator(model.FabricConfig{})

	issues := v.Validate([]model.Claim{
		claimOf("1", 0, 0, 2, 2),
		claimOf("1", 0, 0, 2, 2),
		claimOf("2", 0, 0, 2, 2),
		claimOf("2", 5, 5, 2, 2),
		claimOf("2", 0, 0, 2, 2),
	})

	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %+v", len(issues), issues)
	}

	if issues[0].ClaimID != "1" || issues[0].Kind != model.IssueDuplicateID || issues[0].Severity != model.SeverityInfo {
		t.Errorf("unexpected first issue: %+v", issues[0])
	}
	if issues[1].ClaimID != "2" || issues[1].Kind != model.IssueAmbiguousID || issues[1].Severity != model.SeverityWarning {
		t.Errorf("unexpected second issue: %+v", issues[1])
	}
}

func TestValidator_Bounds(t *testing.T) {
	v := NewValidator(model.FabricConfig{MaxWidth: 10, MaxHeight: 10})

	issues := v.Validate([]model.Claim{
		claimOf("inside", 0, 0, 10, 10),
		claimOf("wide", 5, 0, 6, 1),
		claimOf("tall", 0, 9, 1, 2),
	})

	if got := Count(issues, model.IssueOutOfBounds); got != 2 {
		t.Fatalf("expected 2 out-of-bounds issues, got %d: %+v", got, issues)
	}
	if issues[0].ClaimID != "tall" || issues[1].ClaimID != "wide" {
		t.Errorf("expected issues sorted by id, got %+v", issues)
	}
}

func TestValidator_UnboundedByDefault(t *testing.T) {
	v := NewValidator(model.DefaultConfig().Fabric)

	issues := v.Validate([]model.Claim{claimOf("far", 1_000_000, 1_000_000, 5, 5)})
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %+v", issues)
	}
}

func TestValidator_Geometry(t *testing.T) {
	v := NewValidator(model.FabricConfig{})

	issues := v.Validate([]model.Claim{
		claimOf("flat", 0, 0, 3, 0),
		claimOf("neg", -1, 2, 1, 1),
	})

	if got := Count(issues, model.IssueInvalidGeometry); got != 1 {
		t.Errorf("expected 1 geometry issue, got %d", got)
	}
	if got := Count(issues, model.IssueNegativeTopLeft); got != 1 {
		t.Errorf("expected 1 negative top-left issue, got %d", got)
	}
	for _, issue := range issues {
		if issue.Kind == model.IssueInvalidGeometry && issue.Severity != model.SeverityCritical {
			t.Errorf("expected critical severity for invalid geometry, got %s", issue.Severity)
		}
	}
}
