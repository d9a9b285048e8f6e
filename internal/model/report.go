package model

import "time"

// Report represents the complete analysis of one claim source
type Report struct {
	Subject    string    `json:"subject"`     // Human-readable name derived from the source
	Source     string    `json:"source"`      // Path, URL, or "-" for stdin
	AnalyzedAt time.Time `json:"analyzed_at"` // When the analysis ran
	InputHash  string    `json:"input_hash"`  // sha256 of the raw input

	Claims      int          `json:"claims"`                 // Claims applied to the fabric
	ParseErrors []ParseIssue `json:"parse_errors,omitempty"` // Lines skipped with --skip-invalid

	OverlappingSquares int       `json:"overlapping_squares"` // Cells covered by two or more claims
	ClaimedSquares     int       `json:"claimed_squares"`     // Cells covered by at least one claim
	IntactClaims       []Claim   `json:"intact_claims"`       // Claims with no conflict cell
	ConflictingClaims  int       `json:"conflicting_claims"`  // Claims touching at least one conflict cell
	Duplicates         []ClaimID `json:"duplicates,omitempty"`
	Bounds             *Bounds   `json:"bounds,omitempty"`

	Issues []ValidationIssue `json:"issues,omitempty"`
	Score  Score             `json:"score"`
}

// Bounds is the bounding box of all claimed cells (Max is exclusive)
type Bounds struct {
	Min Coordinate `json:"min"`
	Max Coordinate `json:"max"`
}

// ParseIssue records an input line that could not be parsed
type ParseIssue struct {
	Line  int    `json:"line"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// ValidationIssue is a problem found in the claim set before it reaches the fabric
type ValidationIssue struct {
	ClaimID  ClaimID        `json:"claim_id"`
	Kind     IssueKind      `json:"kind"`
	Severity SignalSeverity `json:"severity"`
	Message  string         `json:"message"`
}

// IssueKind classifies a validation issue
type IssueKind string

const (
	IssueDuplicateID     IssueKind = "duplicate_id"      // Same id, same geometry
	IssueAmbiguousID     IssueKind = "ambiguous_id"      // Same id, different geometry
	IssueInvalidGeometry IssueKind = "invalid_geometry"  // Width or height below 1
	IssueOutOfBounds     IssueKind = "out_of_bounds"     // Exceeds configured fabric size
	IssueNegativeTopLeft IssueKind = "negative_top_left" // Starts left of or above the origin
)

// Score summarizes contention on the fabric
type Score struct {
	Contention float64  `json:"contention"` // overlapping / claimed squares (0-1)
	Intact     int      `json:"intact"`     // Number of intact claims
	Conflict   bool     `json:"conflict"`   // Whether any cell is contested
	Signals    []Signal `json:"signals"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalCoverage     SignalType = "coverage"      // Claimed cells vs. total claimed area
	SignalContention   SignalType = "contention"    // Share of claimed cells under conflict
	SignalIntact       SignalType = "intact_claims" // How many claims are intact
	SignalDuplicateIDs SignalType = "duplicate_ids" // Ids applied with differing geometry
	SignalParseErrors  SignalType = "parse_errors"  // Lines dropped by the parser
	SignalOutOfBounds  SignalType = "out_of_bounds" // Claims beyond the configured fabric
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
