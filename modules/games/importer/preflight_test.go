package importer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
)

func preflightGame() game.ParsedGame {
	one := 1
	return game.ParsedGame{
		SourceRow:        2,
		GameKey:          "kodjakt",
		Name:             "Kodjakt",
		ShortDescription: "A code hunt",
		PlayMode:         game.PlayModeFacilitated,
		Phases: []game.Phase{
			{PhaseOrder: 1, Name: "Intro", PhaseType: game.PhaseIntro},
		},
		Steps: []game.Step{
			{StepOrder: 1, Title: "Start", Body: "Explain the rules", PhaseOrder: &one},
			{StepOrder: 2, Title: "Hunt", Body: "Find the vault"},
		},
		Roles: []game.Role{
			{RoleOrder: 1, Name: "Guard", PrivateInstructions: "protect the vault"},
		},
		Artifacts: []game.Artifact{
			{
				ArtifactOrder: 1,
				Title:         "Vault",
				ArtifactType:  "keypad",
				Metadata:      map[string]any{"correctCode": "0042"},
				Variants: []game.ArtifactVariant{
					{VariantOrder: 1, Visibility: game.VisibilityRolePrivate, VisibleToRoleOrder: &one},
				},
			},
		},
		Triggers: []game.Trigger{
			{
				Name:      "open on code",
				Enabled:   true,
				Condition: map[string]any{"type": "keypad_correct", "artifactOrder": 1},
				Actions:   []map[string]any{{"type": "reveal_artifact", "artifactOrder": 1}},
			},
		},
	}
}

func TestRunPreflight_GeneratesIDsAndResolvesRefs(t *testing.T) {
	plan, errs := RunPreflight(preflightGame())
	require.Empty(t, errs)
	require.NotNil(t, plan)

	require.Len(t, plan.Steps, 2)
	require.Len(t, plan.Phases, 1)
	require.Len(t, plan.Roles, 1)
	require.Len(t, plan.Artifacts, 1)
	require.Len(t, plan.Triggers, 1)

	// Step 1 attaches to the generated phase id; step 2 has no phase.
	require.NotNil(t, plan.Steps[0].PhaseID)
	assert.Equal(t, plan.Phases[0].ID, *plan.Steps[0].PhaseID)
	assert.Nil(t, plan.Steps[1].PhaseID)

	// Variant role restriction resolved to the generated role id.
	require.Len(t, plan.Artifacts[0].Variants, 1)
	require.NotNil(t, plan.Artifacts[0].Variants[0].RoleID)
	assert.Equal(t, plan.Roles[0].ID, *plan.Artifacts[0].Variants[0].RoleID)

	// Trigger refs rewritten to the generated artifact id.
	artifactID := plan.Artifacts[0].ID.String()
	cond := plan.Triggers[0].Trigger.Condition
	assert.Equal(t, artifactID, cond["keypadId"])
	assert.NotContains(t, cond, "artifactOrder")
	action := plan.Triggers[0].Trigger.Actions[0]
	assert.Equal(t, artifactID, action["artifactId"])

	// All generated ids parse as UUIDs.
	for _, s := range plan.IDs.StepIDByOrder {
		_, err := uuid.Parse(s)
		assert.NoError(t, err)
	}
}

func TestRunPreflight_PhaseIDAndOrderAreExclusive(t *testing.T) {
	g := preflightGame()
	one := 1
	g.Steps[0].PhaseID = uuid.NewString()
	g.Steps[0].PhaseOrder = &one

	plan, errs := RunPreflight(g)
	assert.Nil(t, plan)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "exactly one")
}

func TestRunPreflight_DanglingPhaseOrderListsAvailable(t *testing.T) {
	g := preflightGame()
	nine := 9
	g.Steps[0].PhaseOrder = &nine

	plan, errs := RunPreflight(g)
	assert.Nil(t, plan)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "phase_order 9")
	assert.Contains(t, errs[0].Message, "available: 1")
}

func TestRunPreflight_MissingTriggerMapping(t *testing.T) {
	g := preflightGame()
	g.Triggers[0].Actions[0]["artifactOrder"] = 7

	plan, errs := RunPreflight(g)
	assert.Nil(t, plan)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "missing artifact mapping for order 7")
}

func TestRunPreflight_MissingRoleMapping(t *testing.T) {
	g := preflightGame()
	g.Artifacts[0].Variants[0].VisibleToRoleOrder = nil
	g.Artifacts[0].Variants[0].VisibleToRoleName = "Nobody"

	plan, errs := RunPreflight(g)
	assert.Nil(t, plan)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, `missing role mapping for name "Nobody"`)
}

func TestRewriteTriggerRefs_KeepsExistingUUIDs(t *testing.T) {
	existing := uuid.NewString()
	trigger := game.Trigger{
		Condition: map[string]any{"type": "step_started", "stepId": existing},
		Actions:   []map[string]any{{"type": "advance_phase"}},
	}

	out, errs := RewriteTriggerRefs(trigger, IDMaps{}, 1, 0)
	require.Empty(t, errs)
	assert.Equal(t, existing, out.Condition["stepId"])
}
