package advancement

import (
	"context"
	"fmt"
	"strconv"
)

// testHost is an in-memory Host for exercising advancements without a
// staged document clone behind them.
type testHost struct {
	compendium map[string]*ItemData
	embedded   map[string]*ItemData
	embedOrder []string
	hp         int
	nextID     int

	dieRolls []int
	rollIdx  int

	evaluate func(formula string, vars map[string]int) (int, error)

	failCreate bool
}

func newTestHost(entries ...*ItemData) *testHost {
	h := &testHost{
		compendium: make(map[string]*ItemData),
		embedded:   make(map[string]*ItemData),
	}
	for _, e := range entries {
		h.compendium[e.UUID] = e
	}
	return h
}

func (h *testHost) Resolve(uuid string) (*ItemData, bool) {
	item, ok := h.compendium[uuid]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

func (h *testHost) CreateEmbedded(ctx context.Context, items []*ItemData, ids []string) ([]string, error) {
	if h.failCreate {
		return nil, fmt.Errorf("create failed")
	}
	out := make([]string, len(items))
	for i, item := range items {
		id := ids[i]
		if id == "" {
			h.nextID++
			id = "emb-" + strconv.Itoa(h.nextID)
		}
		if _, exists := h.embedded[id]; exists {
			return nil, fmt.Errorf("duplicate embedded id %q", id)
		}
		h.embedded[id] = item.Clone()
		h.embedOrder = append(h.embedOrder, id)
		out[i] = id
	}
	return out, nil
}

func (h *testHost) DeleteEmbedded(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, ok := h.embedded[id]; !ok {
			return fmt.Errorf("embedded item %q not found", id)
		}
	}
	for _, id := range ids {
		delete(h.embedded, id)
	}
	return nil
}

func (h *testHost) GetEmbedded(id string) (*ItemData, bool) {
	item, ok := h.embedded[id]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

func (h *testHost) AdjustHP(delta int) {
	h.hp += delta
}

func (h *testHost) RollHitDie(denomination int) int {
	if len(h.dieRolls) == 0 {
		return 1
	}
	v := h.dieRolls[h.rollIdx%len(h.dieRolls)]
	h.rollIdx++
	return v
}

func (h *testHost) Localize(key string, subs map[string]string) string {
	out := key
	for name, value := range subs {
		out += " " + name + "=" + value
	}
	return out
}

func (h *testHost) Evaluate(formula string, vars map[string]int) (int, error) {
	if h.evaluate != nil {
		return h.evaluate(formula, vars)
	}
	return 0, fmt.Errorf("no evaluator configured")
}

func (h *testHost) Dice() HitDieRoller  { return h }
func (h *testHost) Lang() Localizer     { return h }
func (h *testHost) Formulas() Evaluator { return h }
