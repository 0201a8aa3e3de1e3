package pins

import "emperror.dev/errors"

// Transition classifies how a channel's pin list moved since the last snapshot.
type Transition int

const (
	Unchanged Transition = iota
	Grown
	Shrunk
)

func (t Transition) String() string {
	switch t {
	case Grown:
		return "grown"
	case Shrunk:
		return "shrunk"
	default:
		return "unchanged"
	}
}

// Differ compares a stored snapshot with the live pin list.
type Differ interface {
	Diff(stored, live []string) Transition
}

// CountDiffer looks only at lengths. A simultaneous add and remove is
// Unchanged; the enforcement guard relies on this.
type CountDiffer struct{}

func (CountDiffer) Diff(stored, live []string) Transition {
	switch {
	case len(live) > len(stored):
		return Grown
	case len(live) < len(stored):
		return Shrunk
	default:
		return Unchanged
	}
}

// SetDiffer compares membership. Any new id is Grown, even if another id
// disappeared at the same time.
type SetDiffer struct{}

func (SetDiffer) Diff(stored, live []string) Transition {
	before := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		before[id] = struct{}{}
	}

	now := make(map[string]struct{}, len(live))
	for _, id := range live {
		now[id] = struct{}{}
		if _, ok := before[id]; !ok {
			return Grown
		}
	}

	for _, id := range stored {
		if _, ok := now[id]; !ok {
			return Shrunk
		}
	}
	return Unchanged
}

// NewDiffer returns the differ for a configured policy name.
func NewDiffer(policy string) (Differ, error) {
	switch policy {
	case "", "count":
		return CountDiffer{}, nil
	case "set":
		return SetDiffer{}, nil
	default:
		return nil, errors.Errorf("unknown diff policy %q", policy)
	}
}
