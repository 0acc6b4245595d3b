// Package importer implements the parse -> normalize -> validate -> preflight
// half of the game content pipeline. Everything here is pure: no I/O, no
// database access, findings reported as game.ImportError values.
package importer

import "encoding/json"

// OrderMaps resolve stable ids to 1-based orders within one game.
type OrderMaps struct {
	StepOrderByID     map[string]int
	PhaseOrderByID    map[string]int
	ArtifactOrderByID map[string]int
	RoleOrderByID     map[string]int
}

// IDMaps resolve 1-based orders back to stable ids within one game.
type IDMaps struct {
	StepIDByOrder     map[int]string
	PhaseIDByOrder    map[int]string
	ArtifactIDByOrder map[int]string
	RoleIDByOrder     map[int]string
}

// Invert flips IDMaps into OrderMaps.
func (m IDMaps) Invert() OrderMaps {
	out := OrderMaps{
		StepOrderByID:     make(map[string]int, len(m.StepIDByOrder)),
		PhaseOrderByID:    make(map[string]int, len(m.PhaseIDByOrder)),
		ArtifactOrderByID: make(map[string]int, len(m.ArtifactIDByOrder)),
		RoleOrderByID:     make(map[string]int, len(m.RoleIDByOrder)),
	}
	for order, id := range m.StepIDByOrder {
		out.StepOrderByID[id] = order
	}
	for order, id := range m.PhaseIDByOrder {
		out.PhaseOrderByID[id] = order
	}
	for order, id := range m.ArtifactIDByOrder {
		out.ArtifactOrderByID[id] = order
	}
	for order, id := range m.RoleIDByOrder {
		out.RoleOrderByID[id] = order
	}
	return out
}

type refTarget int

const (
	refStep refTarget = iota
	refPhase
	refArtifact
)

type refFields struct {
	idField    string
	orderField string
	target     refTarget
}

// Recognized (type, field) pairs. Keypad conditions address the keypad
// artifact through the shared artifact order-space; there is no separate
// keypad map.
var triggerRefs = map[string]refFields{
	"step_started":      {idField: "stepId", orderField: "stepOrder", target: refStep},
	"step_completed":    {idField: "stepId", orderField: "stepOrder", target: refStep},
	"phase_started":     {idField: "phaseId", orderField: "phaseOrder", target: refPhase},
	"phase_completed":   {idField: "phaseId", orderField: "phaseOrder", target: refPhase},
	"artifact_unlocked": {idField: "artifactId", orderField: "artifactOrder", target: refArtifact},
	"keypad_correct":    {idField: "keypadId", orderField: "artifactOrder", target: refArtifact},
	"keypad_failed":     {idField: "keypadId", orderField: "artifactOrder", target: refArtifact},
	"reveal_artifact":   {idField: "artifactId", orderField: "artifactOrder", target: refArtifact},
	"hide_artifact":     {idField: "artifactId", orderField: "artifactOrder", target: refArtifact},
}

// ToOrderAlias returns a shallow copy of entity (a trigger condition or
// action) with its identifier field replaced by the matching order field.
// The rewrite happens only when the identifier is present, resolvable, and
// no order field is already set; anything else passes through unchanged.
func ToOrderAlias(entity map[string]any, m OrderMaps) map[string]any {
	ref, ok := lookupRef(entity)
	if !ok {
		return entity
	}

	id, ok := entity[ref.idField].(string)
	if !ok || id == "" {
		return entity
	}
	if _, exists := entity[ref.orderField]; exists {
		return entity
	}

	var order int
	switch ref.target {
	case refStep:
		order, ok = m.StepOrderByID[id]
	case refPhase:
		order, ok = m.PhaseOrderByID[id]
	case refArtifact:
		order, ok = m.ArtifactOrderByID[id]
	}
	if !ok {
		return entity
	}

	out := shallowCopy(entity)
	delete(out, ref.idField)
	out[ref.orderField] = order
	return out
}

// ToStableID is the inverse of ToOrderAlias: the order field is replaced by
// the resolved identifier. An order missing from the map resolves the
// identifier to nil; the caller treats that as a dangling reference. Never
// panics.
func ToStableID(entity map[string]any, m IDMaps) map[string]any {
	ref, ok := lookupRef(entity)
	if !ok {
		return entity
	}

	raw, exists := entity[ref.orderField]
	if !exists {
		return entity
	}
	order, ok := asInt(raw)
	if !ok {
		return entity
	}

	var id string
	var found bool
	switch ref.target {
	case refStep:
		id, found = m.StepIDByOrder[order]
	case refPhase:
		id, found = m.PhaseIDByOrder[order]
	case refArtifact:
		id, found = m.ArtifactIDByOrder[order]
	}

	out := shallowCopy(entity)
	delete(out, ref.orderField)
	if found {
		out[ref.idField] = id
	} else {
		out[ref.idField] = nil
	}
	return out
}

func lookupRef(entity map[string]any) (refFields, bool) {
	typ, _ := entity["type"].(string)
	ref, ok := triggerRefs[typ]
	return ref, ok
}

func shallowCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// asInt accepts the numeric shapes a decoded JSON payload can carry.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
