package images

// Decision is the verdict for one candidate.
type Decision int

const (
	Keep Decision = iota
	Remove
)

func (d Decision) String() string {
	if d == Remove {
		return "remove"
	}
	return "keep"
}

// Policy holds the removal thresholds.
type Policy struct {
	// MinWidth and MinHeight must both be exceeded for a sized image to be
	// removed.
	MinWidth  int
	MinHeight int

	// InlineThreshold applies to inline images without dimensions: they are
	// removed when their data is longer than this many bytes.
	InlineThreshold int

	// UnknownXObject decides XObject images without dimensions.
	UnknownXObject Decision
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{MinWidth: 100, MinHeight: 100, InlineThreshold: 1000, UnknownXObject: Remove}
}

// Decide classifies c. It depends only on c and the policy.
func (p Policy) Decide(c Candidate) Decision {
	switch {
	case c.HasSize():
		if c.Width > p.MinWidth && c.Height > p.MinHeight {
			return Remove
		}
		return Keep
	case c.Kind == InlineImage:
		if c.DataLength > p.InlineThreshold {
			return Remove
		}
		return Keep
	}
	return p.UnknownXObject
}
