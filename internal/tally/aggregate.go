package tally

import (
	"fmt"
	"sort"
)

type visitorEvent struct {
	visitor   string
	eventType EventType
}

// Aggregate counts distinct visitors per variant.
//
// Only the first event per (visitor, event type) counts, in time order,
// so a visitor belongs to one variant. A conversion is counted only when
// the same visitor viewed that variant, keeping conversions <= views.
func Aggregate(events []Event) (*Tally, error) {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	first := make(map[visitorEvent]int, len(ordered))
	t := &Tally{}

	for _, e := range ordered {
		if err := e.validate(); err != nil {
			return nil, err
		}
		key := visitorEvent{visitor: e.VisitorID, eventType: e.EventType}
		if _, seen := first[key]; seen {
			t.Duplicates++
			continue
		}
		first[key] = e.Variant
	}

	counts := make(map[int]*VariantStats)
	stat := func(variant int) *VariantStats {
		s, ok := counts[variant]
		if !ok {
			s = &VariantStats{Variant: variant}
			counts[variant] = s
		}
		return s
	}

	for key, variant := range first {
		switch key.eventType {
		case EventView:
			stat(variant).Views++
		case EventConvert:
			viewed, ok := first[visitorEvent{visitor: key.visitor, eventType: EventView}]
			if !ok || viewed != variant {
				t.OrphanConversions++
				continue
			}
			stat(variant).Conversions++
		}
	}

	t.Variants = make([]VariantStats, 0, len(counts))
	for _, s := range counts {
		t.Variants = append(t.Variants, *s)
	}
	sort.Slice(t.Variants, func(i, j int) bool {
		return t.Variants[i].Variant < t.Variants[j].Variant
	})

	return t, nil
}

func (e Event) validate() error {
	if e.Variant < 0 {
		return fmt.Errorf("%w: negative variant %d", ErrInvalidEvent, e.Variant)
	}
	if e.VisitorID == "" {
		return fmt.Errorf("%w: missing visitor id", ErrInvalidEvent)
	}
	if e.EventType != EventView && e.EventType != EventConvert {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, e.EventType)
	}
	return nil
}
