package history

import (
	"fmt"
	"strconv"
	"strings"
)

// Epoch is a half-open range of death years [From, To).
type Epoch struct {
	From int
	To   int
}

func (e Epoch) String() string {
	return fmt.Sprintf("%d-%d", e.From, e.To)
}

// ParseEpoch reads "FROM-TO" with FROM < TO.
func ParseEpoch(s string) (Epoch, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Epoch{}, fmt.Errorf("%w: %q", ErrInvalidEpoch, s)
	}
	f, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return Epoch{}, fmt.Errorf("%w: %q", ErrInvalidEpoch, s)
	}
	t, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil || t <= f {
		return Epoch{}, fmt.Errorf("%w: %q", ErrInvalidEpoch, s)
	}
	return Epoch{From: f, To: t}, nil
}

// ParseEpochs parses every entry of list.
func ParseEpochs(list []string) ([]Epoch, error) {
	out := make([]Epoch, 0, len(list))
	for _, s := range list {
		e, err := ParseEpoch(s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// DefaultEpochs covers 1800 to 2030 in slices small enough for one query.
func DefaultEpochs() []Epoch {
	return []Epoch{
		{1800, 1900}, {1900, 1950}, {1950, 1970}, {1970, 1990},
		{1990, 2000}, {2000, 2010}, {2010, 2020}, {2020, 2030},
	}
}
