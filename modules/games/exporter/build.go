// Package exporter renders stored game content back into the import formats.
// The id -> order-alias rewrite makes exports portable: a file exported from
// one environment imports cleanly into another where the row ids differ.
package exporter

import (
	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/modules/games/importer"
)

// StoredGame is one game as read from the database: the parsed aggregate
// plus the id maps needed to rewrite stable ids back into order aliases.
// Step phase attachments and variant role restrictions carry ids; trigger
// conditions and actions carry ids.
type StoredGame struct {
	ID   string
	Game game.ParsedGame
	IDs  importer.IDMaps
}

// BuildParsedGame converts a stored game into the portable parsed form:
// step phase ids become phase orders, variant role ids become role orders
// and trigger references become order aliases. Ids that do not resolve
// within the game are left untouched.
func BuildParsedGame(stored StoredGame) game.ParsedGame {
	g := stored.Game
	orders := stored.IDs.Invert()

	if len(g.Steps) > 0 {
		steps := make([]game.Step, len(g.Steps))
		copy(steps, g.Steps)
		for i, s := range steps {
			if s.PhaseID == "" || s.PhaseOrder != nil {
				continue
			}
			if order, ok := orders.PhaseOrderByID[s.PhaseID]; ok {
				o := order
				steps[i].PhaseOrder = &o
				steps[i].PhaseID = ""
			}
		}
		g.Steps = steps
	}

	if len(g.Artifacts) > 0 {
		artifacts := make([]game.Artifact, len(g.Artifacts))
		copy(artifacts, g.Artifacts)
		for i, a := range artifacts {
			if len(a.Variants) == 0 {
				continue
			}
			variants := make([]game.ArtifactVariant, len(a.Variants))
			copy(variants, a.Variants)
			for j, v := range variants {
				if v.VisibleToRoleID == "" || v.VisibleToRoleOrder != nil {
					continue
				}
				if order, ok := orders.RoleOrderByID[v.VisibleToRoleID]; ok {
					o := order
					variants[j].VisibleToRoleOrder = &o
					variants[j].VisibleToRoleID = ""
				}
			}
			artifacts[i].Variants = variants
		}
		g.Artifacts = artifacts
	}

	if len(g.Triggers) > 0 {
		triggers := make([]game.Trigger, len(g.Triggers))
		copy(triggers, g.Triggers)
		for i, t := range triggers {
			triggers[i].Condition = importer.ToOrderAlias(t.Condition, orders)
			if len(t.Actions) > 0 {
				actions := make([]map[string]any, len(t.Actions))
				for j, a := range t.Actions {
					actions[j] = importer.ToOrderAlias(a, orders)
				}
				triggers[i].Actions = actions
			}
		}
		g.Triggers = triggers
	}

	return g
}
