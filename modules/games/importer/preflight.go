package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
)

// WritePlan is everything the batch writer needs for one game, with every
// child row id generated and every order-alias resolved ahead of time. A
// plan that reaches the writer cannot fail for data reasons.
type WritePlan struct {
	Game game.ParsedGame

	Steps     []StepRow
	Phases    []PhaseRow
	Roles     []RoleRow
	Artifacts []ArtifactRow
	Triggers  []TriggerRow

	// Order -> generated id, kept for tests and export symmetry.
	IDs IDMaps
}

type StepRow struct {
	ID   uuid.UUID
	Step game.Step
	// Resolved phase attachment; nil when the step belongs to no phase.
	PhaseID *uuid.UUID
}

type PhaseRow struct {
	ID    uuid.UUID
	Phase game.Phase
}

type RoleRow struct {
	ID   uuid.UUID
	Role game.Role
}

type VariantRow struct {
	ID      uuid.UUID
	Variant game.ArtifactVariant
	// Resolved role restriction for role_private variants.
	RoleID *uuid.UUID
}

type ArtifactRow struct {
	ID       uuid.UUID
	Artifact game.Artifact
	Variants []VariantRow
}

type TriggerRow struct {
	ID uuid.UUID
	// Trigger with condition/action references rewritten to stable ids.
	Trigger game.Trigger
}

// RunPreflight precomputes the write plan for one validated game: fresh
// UUIDs for every child row, step/phase attachments resolved, variant role
// restrictions resolved and trigger references rewritten to the generated
// ids. Findings returned here are blocking.
func RunPreflight(g game.ParsedGame) (*WritePlan, []game.ImportError) {
	var errs []game.ImportError
	row := g.SourceRow

	plan := &WritePlan{
		Game: g,
		IDs: IDMaps{
			StepIDByOrder:     make(map[int]string, len(g.Steps)),
			PhaseIDByOrder:    make(map[int]string, len(g.Phases)),
			ArtifactIDByOrder: make(map[int]string, len(g.Artifacts)),
			RoleIDByOrder:     make(map[int]string, len(g.Roles)),
		},
	}

	phaseIDs := make(map[int]uuid.UUID, len(g.Phases))
	for _, p := range g.Phases {
		if _, dup := phaseIDs[p.PhaseOrder]; dup {
			errs = append(errs, game.Errorf(row, "phases", "duplicate phase_order %d", p.PhaseOrder))
			continue
		}
		id := uuid.New()
		phaseIDs[p.PhaseOrder] = id
		plan.IDs.PhaseIDByOrder[p.PhaseOrder] = id.String()
		plan.Phases = append(plan.Phases, PhaseRow{ID: id, Phase: p})
	}

	roleIDs := make(map[int]uuid.UUID, len(g.Roles))
	roleIDsByName := make(map[string]uuid.UUID, len(g.Roles))
	for _, r := range g.Roles {
		if _, dup := roleIDs[r.RoleOrder]; dup {
			errs = append(errs, game.Errorf(row, "roles", "duplicate role_order %d", r.RoleOrder))
			continue
		}
		id := uuid.New()
		roleIDs[r.RoleOrder] = id
		plan.IDs.RoleIDByOrder[r.RoleOrder] = id.String()
		if r.Name != "" {
			roleIDsByName[r.Name] = id
		}
		plan.Roles = append(plan.Roles, RoleRow{ID: id, Role: r})
	}

	stepIDs := make(map[int]uuid.UUID, len(g.Steps))
	for _, s := range g.Steps {
		if _, dup := stepIDs[s.StepOrder]; dup {
			errs = append(errs, game.Errorf(row, "steps", "duplicate step_order %d", s.StepOrder))
			continue
		}
		id := uuid.New()
		stepIDs[s.StepOrder] = id
		plan.IDs.StepIDByOrder[s.StepOrder] = id.String()

		phaseID, perr := resolveStepPhase(s, phaseIDs, row)
		if perr != nil {
			errs = append(errs, *perr)
		}
		plan.Steps = append(plan.Steps, StepRow{ID: id, Step: s, PhaseID: phaseID})
	}

	artifactIDs := make(map[int]uuid.UUID, len(g.Artifacts))
	for ai, a := range g.Artifacts {
		if _, dup := artifactIDs[a.ArtifactOrder]; dup {
			errs = append(errs, game.Errorf(row, "artifacts", "duplicate artifact_order %d", a.ArtifactOrder))
			continue
		}
		id := uuid.New()
		artifactIDs[a.ArtifactOrder] = id
		plan.IDs.ArtifactIDByOrder[a.ArtifactOrder] = id.String()

		ar := ArtifactRow{ID: id, Artifact: a}
		for vi, v := range a.Variants {
			roleID, verr := resolveVariantRole(v, roleIDs, roleIDsByName, row, ai, vi)
			if verr != nil {
				errs = append(errs, *verr)
			}
			ar.Variants = append(ar.Variants, VariantRow{ID: uuid.New(), Variant: v, RoleID: roleID})
		}
		plan.Artifacts = append(plan.Artifacts, ar)
	}

	for i, t := range g.Triggers {
		rewritten, terrs := RewriteTriggerRefs(t, plan.IDs, row, i)
		errs = append(errs, terrs...)
		plan.Triggers = append(plan.Triggers, TriggerRow{ID: uuid.New(), Trigger: rewritten})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return plan, nil
}

// resolveStepPhase resolves a step's phase attachment. phase_id and
// phase_order are mutually exclusive source forms.
func resolveStepPhase(s game.Step, phaseIDs map[int]uuid.UUID, row int) (*uuid.UUID, *game.ImportError) {
	column := fmt.Sprintf("step_%d", s.StepOrder)

	if s.PhaseID != "" && s.PhaseOrder != nil {
		e := game.Errorf(row, column, "step %d carries both phase_id and phase_order; use exactly one", s.StepOrder)
		return nil, &e
	}
	if s.PhaseOrder != nil {
		id, ok := phaseIDs[*s.PhaseOrder]
		if !ok {
			e := game.Errorf(row, column, "step %d references phase_order %d which does not exist (available: %s)",
				s.StepOrder, *s.PhaseOrder, availableOrders(phaseIDs))
			return nil, &e
		}
		return &id, nil
	}
	if s.PhaseID != "" {
		id, err := uuid.Parse(s.PhaseID)
		if err != nil {
			e := game.Errorf(row, column, "step %d phase_id is not a valid UUID", s.StepOrder)
			return nil, &e
		}
		return &id, nil
	}
	return nil, nil
}

func resolveVariantRole(v game.ArtifactVariant, roleIDs map[int]uuid.UUID, roleIDsByName map[string]uuid.UUID, row, artifactIdx, variantIdx int) (*uuid.UUID, *game.ImportError) {
	column := fmt.Sprintf("artifacts[%d].variants[%d]", artifactIdx, variantIdx)

	switch {
	case v.VisibleToRoleID != "":
		id, err := uuid.Parse(v.VisibleToRoleID)
		if err != nil {
			e := game.Errorf(row, column, "visible_to_role_id is not a valid UUID")
			return nil, &e
		}
		return &id, nil
	case v.VisibleToRoleOrder != nil:
		id, ok := roleIDs[*v.VisibleToRoleOrder]
		if !ok {
			e := game.Errorf(row, column, "missing role mapping for order %d", *v.VisibleToRoleOrder)
			return nil, &e
		}
		return &id, nil
	case v.VisibleToRoleName != "":
		id, ok := roleIDsByName[v.VisibleToRoleName]
		if !ok {
			e := game.Errorf(row, column, "missing role mapping for name %q", v.VisibleToRoleName)
			return nil, &e
		}
		return &id, nil
	}
	return nil, nil
}

// RewriteTriggerRefs rewrites one trigger's condition and action references
// from order aliases to the freshly generated ids. Every reference must
// resolve; a missing mapping is a blocking finding.
func RewriteTriggerRefs(t game.Trigger, ids IDMaps, row, pos int) (game.Trigger, []game.ImportError) {
	var errs []game.ImportError
	base := fmt.Sprintf("triggers[%d]", pos)

	out := t
	out.Condition = rewriteEntity(t.Condition, ids, row, base+".condition", &errs)
	if len(t.Actions) > 0 {
		out.Actions = make([]map[string]any, len(t.Actions))
		for i, a := range t.Actions {
			out.Actions[i] = rewriteEntity(a, ids, row, fmt.Sprintf("%s.actions[%d]", base, i), &errs)
		}
	}
	return out, errs
}

func rewriteEntity(entity map[string]any, ids IDMaps, row int, path string, errs *[]game.ImportError) map[string]any {
	ref, ok := lookupRef(entity)
	if !ok {
		return entity
	}

	if raw, exists := entity[ref.orderField]; exists {
		order, okInt := asInt(raw)
		if !okInt {
			*errs = append(*errs, game.Errorf(row, path+"."+ref.orderField, "%s must be an integer", ref.orderField))
			return entity
		}
		rewritten := ToStableID(entity, ids)
		if rewritten[ref.idField] == nil {
			*errs = append(*errs, game.Errorf(row, path+"."+ref.orderField,
				"missing %s mapping for order %d", ref.target.name(), order))
		}
		return rewritten
	}

	if id, ok := entity[ref.idField].(string); ok && id != "" {
		if _, err := uuid.Parse(id); err != nil {
			*errs = append(*errs, game.Errorf(row, path+"."+ref.idField,
				"missing %s mapping for source id %q", ref.target.name(), id))
		}
	}
	return entity
}

func (t refTarget) name() string {
	switch t {
	case refStep:
		return "step"
	case refPhase:
		return "phase"
	default:
		return "artifact"
	}
}

func availableOrders(m map[int]uuid.UUID) string {
	if len(m) == 0 {
		return "none"
	}
	orders := make([]int, 0, len(m))
	for o := range m {
		orders = append(orders, o)
	}
	sort.Ints(orders)
	parts := make([]string, len(orders))
	for i, o := range orders {
		parts[i] = fmt.Sprintf("%d", o)
	}
	return strings.Join(parts, ", ")
}
