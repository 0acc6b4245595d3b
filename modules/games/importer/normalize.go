package importer

import (
	"fmt"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
)

// Full condition/action vocabularies. The order-alias resolver only rewrites
// the entity-bearing subset (see triggerRefs); the rest are recognized but
// carry no order references.
var knownConditionTypes = map[string]struct{}{
	"step_started": {}, "step_completed": {}, "phase_started": {}, "phase_completed": {},
	"decision_resolved": {}, "timer_ended": {}, "artifact_unlocked": {},
	"keypad_correct": {}, "keypad_failed": {}, "manual": {}, "signal_received": {},
	"counter_reached": {}, "riddle_correct": {}, "audio_acknowledged": {},
	"multi_answer_complete": {}, "scan_verified": {}, "hint_requested": {},
	"hotspot_found": {}, "hotspot_hunt_complete": {}, "tile_puzzle_complete": {},
	"cipher_decoded": {}, "prop_confirmed": {}, "prop_rejected": {}, "location_verified": {},
	"logic_grid_solved": {}, "sound_level_triggered": {}, "replay_marker_added": {},
	"time_bank_expired": {}, "signal_generator_triggered": {},
}

var knownActionTypes = map[string]struct{}{
	"reveal_artifact": {}, "hide_artifact": {}, "unlock_decision": {}, "lock_decision": {},
	"advance_step": {}, "advance_phase": {}, "start_timer": {}, "send_message": {},
	"play_sound": {}, "show_countdown": {}, "reset_keypad": {}, "send_signal": {},
	"time_bank_apply_delta": {}, "increment_counter": {}, "reset_counter": {},
	"reset_riddle": {}, "send_hint": {}, "reset_scan_gate": {}, "reset_hotspot_hunt": {},
	"reset_tile_puzzle": {}, "reset_cipher": {}, "reset_prop": {}, "reset_location": {},
	"reset_logic_grid": {}, "reset_sound_meter": {}, "add_replay_marker": {},
	"show_leader_script": {}, "trigger_signal": {}, "time_bank_pause": {},
}

// NormalizeTrigger converts one raw trigger object into its canonical form.
// The legacy shape {condition_type, condition_config, actions} is folded
// into a condition map tagged by "type". row scopes the findings; pos is the
// 0-based trigger position within the game.
func NormalizeTrigger(raw map[string]any, row, pos int) (game.Trigger, []game.ImportError, []game.ImportError) {
	var errs, warns []game.ImportError
	path := func(field string) string { return fmt.Sprintf("triggers[%d].%s", pos, field) }

	t := game.Trigger{
		Name:         getString(raw, "name"),
		Description:  getString(raw, "description"),
		Enabled:      getBoolOr(raw, "enabled", true),
		ExecuteOnce:  getBoolOr(raw, "execute_once", false),
		DelaySeconds: getIntPtr(raw, "delay_seconds"),
		SortOrder:    getIntPtr(raw, "sort_order"),
	}

	condition := getMap(raw, "condition")
	legacyType := getString(raw, "condition_type")
	switch {
	case condition != nil:
		t.Condition = shallowCopy(condition)
	case legacyType != "":
		t.Condition = map[string]any{"type": legacyType}
		for k, v := range getMap(raw, "condition_config") {
			if k != "type" {
				t.Condition[k] = v
			}
		}
	default:
		errs = append(errs, game.Errorf(row, path("condition"), "trigger has no condition (expected condition or condition_type)"))
	}

	if t.Condition != nil {
		if condType := getString(t.Condition, "type"); condType == "" {
			errs = append(errs, game.Errorf(row, path("condition.type"), "trigger condition has no type"))
		}
	}

	rawActions, hasActions := raw["actions"]
	actions, _ := rawActions.([]any)
	if hasActions && actions == nil {
		errs = append(errs, game.Errorf(row, path("actions"), "trigger actions must be a JSON array"))
	}
	for i, a := range actions {
		am, ok := a.(map[string]any)
		if !ok {
			errs = append(errs, game.Errorf(row, path(fmt.Sprintf("actions[%d]", i)), "trigger action is not a JSON object"))
			continue
		}
		actionType := getString(am, "type")
		if actionType == "" {
			errs = append(errs, game.Errorf(row, path(fmt.Sprintf("actions[%d].type", i)), "trigger action has no type"))
			continue
		}
		if _, known := knownActionTypes[actionType]; !known {
			warns = append(warns, game.Warnf(row, path(fmt.Sprintf("actions[%d].type", i)), "unrecognized action type %q, kept as-is", actionType))
		}
		t.Actions = append(t.Actions, shallowCopy(am))
	}

	return t, errs, warns
}

// NormalizeGameTriggers normalizes a game's raw trigger list.
func NormalizeGameTriggers(raw []any, row int) ([]game.Trigger, []game.ImportError, []game.ImportError) {
	var triggers []game.Trigger
	var errs, warns []game.ImportError

	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, game.Errorf(row, fmt.Sprintf("triggers[%d]", i), "trigger is not a JSON object"))
			continue
		}
		t, terrs, twarns := NormalizeTrigger(m, row, i)
		errs = append(errs, terrs...)
		warns = append(warns, twarns...)
		if len(terrs) == 0 {
			triggers = append(triggers, t)
		}
	}
	return triggers, errs, warns
}
