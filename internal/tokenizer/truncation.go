package tokenizer

import "fmt"

// TruncationDirection selects which end of a sequence loses tokens.
type TruncationDirection int

const (
	TruncateRight TruncationDirection = iota
	TruncateLeft
)

func (d TruncationDirection) String() string {
	switch d {
	case TruncateLeft:
		return "left"
	case TruncateRight:
		return "right"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseTruncationDirection parses "left" or "right". The empty string
// defaults to right, matching the common tokenizer default.
func ParseTruncationDirection(s string) (TruncationDirection, error) {
	switch s {
	case "", "right", "Right":
		return TruncateRight, nil
	case "left", "Left":
		return TruncateLeft, nil
	}
	return TruncateRight, fmt.Errorf("invalid truncation direction: %q", s)
}

// TruncationStrategy selects which sequence of a pair loses tokens.
type TruncationStrategy int

const (
	// LongestFirst drops tokens from whichever sequence is currently longest.
	LongestFirst TruncationStrategy = iota
	OnlyFirst
	OnlySecond
)

// Truncation bounds an encoding to MaxLength tokens, special tokens
// included.
type Truncation struct {
	Direction TruncationDirection
	MaxLength int
	Strategy  TruncationStrategy
	Stride    int
}

func (t *Truncation) validate() error {
	if t.MaxLength <= 0 {
		return fmt.Errorf("truncation max length must be positive, got %d", t.MaxLength)
	}
	if t.Stride < 0 || t.Stride >= t.MaxLength {
		return fmt.Errorf("truncation stride %d must be in [0, %d)", t.Stride, t.MaxLength)
	}
	return nil
}

// truncateSequences trims a and b so that their combined length fits
// the budget. The budget excludes special tokens; callers subtract the
// count of tokens the post-processing step will add.
func truncateSequences(a, b []piece, hasPair bool, budget int, tr *Truncation) ([]piece, []piece) {
	if budget < 0 {
		budget = 0
	}
	if !hasPair {
		return trimPieces(a, budget, tr.Direction), b
	}

	switch tr.Strategy {
	case OnlyFirst:
		keep := budget - len(b)
		a = trimPieces(a, keep, tr.Direction)
	case OnlySecond:
		keep := budget - len(a)
		b = trimPieces(b, keep, tr.Direction)
	default: // LongestFirst
		for len(a)+len(b) > budget {
			if len(a) >= len(b) {
				a = trimPieces(a, len(a)-1, tr.Direction)
			} else {
				b = trimPieces(b, len(b)-1, tr.Direction)
			}
		}
	}
	return a, b
}

func trimPieces(seq []piece, keep int, dir TruncationDirection) []piece {
	if keep < 0 {
		keep = 0
	}
	if len(seq) <= keep {
		return seq
	}
	if dir == TruncateLeft {
		return seq[len(seq)-keep:]
	}
	return seq[:keep]
}
