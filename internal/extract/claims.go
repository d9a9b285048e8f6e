package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/overlap/internal/model"
)

// ErrMalformedClaim is returned for a line that does not follow the claim grammar
var ErrMalformedClaim = errors.New("malformed claim")

// ParseError reports the input line a claim could not be parsed from
type ParseError struct {
	Line int    // 1-based line number, 0 when parsing a lone line
	Text string // The offending line
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
	}
	return fmt.Sprintf("%q: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Issue converts the error into its report form
func (e *ParseError) Issue() model.ParseIssue {
	return model.ParseIssue{Line: e.Line, Text: e.Text, Error: e.Err.Error()}
}

// ParseClaim parses one line of the form "#id @ x,y: wxh". The leading "#" is
// optional.
func ParseClaim(line string) (model.Claim, error) {
	claim, err := parseClaim(strings.TrimSpace(line))
	if err != nil {
		return model.Claim{}, &ParseError{Text: line, Err: err}
	}
	return claim, nil
}

func parseClaim(line string) (model.Claim, error) {
	id, rest, ok := strings.Cut(strings.TrimPrefix(line, "#"), " @ ")
	if !ok {
		return model.Claim{}, fmt.Errorf("%w: missing \" @ \"", ErrMalformedClaim)
	}
	if id == "" {
		return model.Claim{}, fmt.Errorf("%w: empty id", ErrMalformedClaim)
	}

	pos, size, ok := strings.Cut(rest, ": ")
	if !ok {
		return model.Claim{}, fmt.Errorf("%w: missing \": \"", ErrMalformedClaim)
	}

	xs, ys, ok := strings.Cut(pos, ",")
	if !ok {
		return model.Claim{}, fmt.Errorf("%w: missing \",\"", ErrMalformedClaim)
	}

	ws, hs, ok := strings.Cut(size, "x")
	if !ok {
		return model.Claim{}, fmt.Errorf("%w: missing \"x\"", ErrMalformedClaim)
	}

	var nums [4]int
	for i, field := range []struct{ name, value string }{
		{"x", xs}, {"y", ys}, {"width", ws}, {"height", hs},
	} {
		n, err := parseNonNegative(field.value)
		if err != nil {
			return model.Claim{}, fmt.Errorf("%w: %s: %v", ErrMalformedClaim, field.name, err)
		}
		nums[i] = n
	}

	claim := model.Claim{
		ID:      model.ClaimID(id),
		TopLeft: model.Coordinate{X: nums[0], Y: nums[1]},
		Width:   nums[2],
		Height:  nums[3],
	}
	if err := claim.Check(); err != nil {
		return model.Claim{}, err
	}
	return claim, nil
}

// parseNonNegative accepts only plain base-10 digits
func parseNonNegative(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty number")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid digit %q in %q", r, s)
		}
	}
	return strconv.Atoi(s)
}

// ClaimExtractor turns a whole input into claims, one per non-blank line
type ClaimExtractor struct {
	skipInvalid bool
}

// NewClaimExtractor creates a new claim extractor. With skipInvalid, malformed
// lines are collected and skipped; otherwise the first one aborts extraction.
func NewClaimExtractor(skipInvalid bool) *ClaimExtractor {
	return &ClaimExtractor{skipInvalid: skipInvalid}
}

// Extract parses every non-blank line of input in order. The returned parse
// errors are non-empty only in skip mode.
func (e *ClaimExtractor) Extract(input string) ([]model.Claim, []*ParseError, error) {
	var (
		claims  []model.Claim
		skipped []*ParseError
	)

	for i, line := range strings.Split(input, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		claim, err := ParseClaim(line)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Line = i + 1
				perr.Text = strings.TrimRight(line, "\r")
			}
			if !e.skipInvalid {
				return nil, nil, err
			}
			skipped = append(skipped, perr)
			continue
		}

		claims = append(claims, claim)
	}

	return claims, skipped, nil
}
