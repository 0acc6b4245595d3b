package exporter

import (
	"github.com/lekbanken/gamedesk/modules/games/domain/game"
)

// Wire shapes for export. Keys match what the import parsers read so an
// exported file re-imports without loss. Booleans whose import default is
// true are always emitted; omitting them would flip the value on re-import.

type gameDoc struct {
	GameKey          string `json:"game_key"`
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description,omitempty"`
	PlayMode         string `json:"play_mode"`
	Status           string `json:"status"`
	Locale           string `json:"locale,omitempty"`

	EnergyLevel        string `json:"energy_level,omitempty"`
	LocationType       string `json:"location_type,omitempty"`
	TimeEstimateMin    *int   `json:"time_estimate_min,omitempty"`
	DurationMax        *int   `json:"duration_max,omitempty"`
	MinPlayers         *int   `json:"min_players,omitempty"`
	MaxPlayers         *int   `json:"max_players,omitempty"`
	PlayersRecommended *int   `json:"players_recommended,omitempty"`
	AgeMin             *int   `json:"age_min,omitempty"`
	AgeMax             *int   `json:"age_max,omitempty"`
	Difficulty         string `json:"difficulty,omitempty"`
	AccessibilityNotes string `json:"accessibility_notes,omitempty"`
	SpaceRequirements  string `json:"space_requirements,omitempty"`
	LeaderTips         string `json:"leader_tips,omitempty"`

	MainPurposeID string   `json:"main_purpose_id,omitempty"`
	SubPurposeIDs []string `json:"sub_purpose_ids,omitempty"`
	ProductID     string   `json:"product_id,omitempty"`
	OwnerTenantID string   `json:"owner_tenant_id,omitempty"`

	StepCount *int `json:"step_count,omitempty"`

	Steps       []stepDoc     `json:"steps,omitempty"`
	Materials   *materialsDoc `json:"materials,omitempty"`
	Phases      []phaseDoc    `json:"phases,omitempty"`
	Roles       []roleDoc     `json:"roles,omitempty"`
	BoardConfig *boardDoc     `json:"board_config,omitempty"`
	Artifacts   []artifactDoc `json:"artifacts,omitempty"`
	Triggers    []triggerDoc  `json:"triggers,omitempty"`

	Decisions any `json:"decisions,omitempty"`
	Outcomes  any `json:"outcomes,omitempty"`
}

type stepDoc struct {
	StepOrder         int    `json:"step_order"`
	Title             string `json:"title"`
	Body              string `json:"body"`
	DurationSeconds   *int   `json:"duration_seconds,omitempty"`
	LeaderScript      string `json:"leader_script,omitempty"`
	ParticipantPrompt string `json:"participant_prompt,omitempty"`
	BoardText         string `json:"board_text,omitempty"`
	Optional          bool   `json:"optional,omitempty"`
	PhaseID           string `json:"phase_id,omitempty"`
	PhaseOrder        *int   `json:"phase_order,omitempty"`
}

type materialsDoc struct {
	Items       []string `json:"items,omitempty"`
	SafetyNotes string   `json:"safety_notes,omitempty"`
	Preparation string   `json:"preparation,omitempty"`
}

type phaseDoc struct {
	PhaseOrder      int    `json:"phase_order"`
	Name            string `json:"name"`
	PhaseType       string `json:"phase_type"`
	DurationSeconds *int   `json:"duration_seconds,omitempty"`
	TimerVisible    bool   `json:"timer_visible"`
	TimerStyle      string `json:"timer_style"`
	Description     string `json:"description,omitempty"`
	BoardMessage    string `json:"board_message,omitempty"`
	AutoAdvance     bool   `json:"auto_advance,omitempty"`
}

type roleDoc struct {
	RoleOrder           int            `json:"role_order"`
	Name                string         `json:"name"`
	Icon                string         `json:"icon,omitempty"`
	Color               string         `json:"color,omitempty"`
	PublicDescription   string         `json:"public_description,omitempty"`
	PrivateInstructions string         `json:"private_instructions,omitempty"`
	PrivateHints        string         `json:"private_hints,omitempty"`
	MinCount            int            `json:"min_count"`
	MaxCount            *int           `json:"max_count,omitempty"`
	AssignmentStrategy  string         `json:"assignment_strategy"`
	ScalingRules        map[string]int `json:"scaling_rules,omitempty"`
	ConflictsWith       []string       `json:"conflicts_with,omitempty"`
}

type boardDoc struct {
	ShowGameName     bool   `json:"show_game_name"`
	ShowCurrentPhase bool   `json:"show_current_phase"`
	ShowTimer        bool   `json:"show_timer"`
	ShowParticipants bool   `json:"show_participants"`
	ShowPublicRoles  bool   `json:"show_public_roles"`
	ShowLeaderboard  bool   `json:"show_leaderboard"`
	ShowQRCode       bool   `json:"show_qr_code"`
	WelcomeMessage   string `json:"welcome_message,omitempty"`
	Theme            string `json:"theme,omitempty"`
	BackgroundColor  string `json:"background_color,omitempty"`
	LayoutVariant    string `json:"layout_variant,omitempty"`
}

type artifactDoc struct {
	ArtifactOrder int            `json:"artifact_order"`
	Locale        string         `json:"locale,omitempty"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	ArtifactType  string         `json:"artifact_type"`
	Tags          []string       `json:"tags,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Variants      []variantDoc   `json:"variants,omitempty"`
}

type variantDoc struct {
	VariantOrder       int            `json:"variant_order"`
	Visibility         string         `json:"visibility"`
	VisibleToRoleID    string         `json:"visible_to_role_id,omitempty"`
	VisibleToRoleOrder *int           `json:"visible_to_role_order,omitempty"`
	VisibleToRoleName  string         `json:"visible_to_role_name,omitempty"`
	Title              string         `json:"title,omitempty"`
	Body               string         `json:"body,omitempty"`
	MediaRef           string         `json:"media_ref,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

type triggerDoc struct {
	Name         string           `json:"name,omitempty"`
	Description  string           `json:"description,omitempty"`
	Enabled      bool             `json:"enabled"`
	Condition    map[string]any   `json:"condition"`
	Actions      []map[string]any `json:"actions,omitempty"`
	ExecuteOnce  bool             `json:"execute_once,omitempty"`
	DelaySeconds *int             `json:"delay_seconds,omitempty"`
	SortOrder    *int             `json:"sort_order,omitempty"`
}

func encodeGame(g game.ParsedGame) gameDoc {
	doc := gameDoc{
		GameKey:          g.GameKey,
		Name:             g.Name,
		ShortDescription: g.ShortDescription,
		Description:      g.Description,
		PlayMode:         string(g.PlayMode),
		Status:           string(g.Status),
		Locale:           g.Locale,

		EnergyLevel:        g.EnergyLevel,
		LocationType:       g.LocationType,
		TimeEstimateMin:    g.TimeEstimateMin,
		DurationMax:        g.DurationMax,
		MinPlayers:         g.MinPlayers,
		MaxPlayers:         g.MaxPlayers,
		PlayersRecommended: g.PlayersRecommended,
		AgeMin:             g.AgeMin,
		AgeMax:             g.AgeMax,
		Difficulty:         g.Difficulty,
		AccessibilityNotes: g.AccessibilityNotes,
		SpaceRequirements:  g.SpaceRequirements,
		LeaderTips:         g.LeaderTips,

		MainPurposeID: g.MainPurposeID,
		SubPurposeIDs: g.SubPurposeIDs,
		ProductID:     g.ProductID,
		OwnerTenantID: g.OwnerTenantID,

		Decisions: g.Decisions,
		Outcomes:  g.Outcomes,
	}

	if len(g.Steps) > 0 {
		count := len(g.Steps)
		doc.StepCount = &count
		doc.Steps = make([]stepDoc, len(g.Steps))
		for i, s := range g.Steps {
			doc.Steps[i] = stepDoc{
				StepOrder:         s.StepOrder,
				Title:             s.Title,
				Body:              s.Body,
				DurationSeconds:   s.DurationSeconds,
				LeaderScript:      s.LeaderScript,
				ParticipantPrompt: s.ParticipantPrompt,
				BoardText:         s.BoardText,
				Optional:          s.Optional,
				PhaseID:           s.PhaseID,
				PhaseOrder:        s.PhaseOrder,
			}
		}
	}

	if g.Materials != nil {
		doc.Materials = &materialsDoc{
			Items:       g.Materials.Items,
			SafetyNotes: g.Materials.SafetyNotes,
			Preparation: g.Materials.Preparation,
		}
	}

	if len(g.Phases) > 0 {
		doc.Phases = make([]phaseDoc, len(g.Phases))
		for i, p := range g.Phases {
			doc.Phases[i] = phaseDoc{
				PhaseOrder:      p.PhaseOrder,
				Name:            p.Name,
				PhaseType:       string(p.PhaseType),
				DurationSeconds: p.DurationSeconds,
				TimerVisible:    p.TimerVisible,
				TimerStyle:      p.TimerStyle,
				Description:     p.Description,
				BoardMessage:    p.BoardMessage,
				AutoAdvance:     p.AutoAdvance,
			}
		}
	}

	if len(g.Roles) > 0 {
		doc.Roles = make([]roleDoc, len(g.Roles))
		for i, r := range g.Roles {
			doc.Roles[i] = roleDoc{
				RoleOrder:           r.RoleOrder,
				Name:                r.Name,
				Icon:                r.Icon,
				Color:               r.Color,
				PublicDescription:   r.PublicDescription,
				PrivateInstructions: r.PrivateInstructions,
				PrivateHints:        r.PrivateHints,
				MinCount:            r.MinCount,
				MaxCount:            r.MaxCount,
				AssignmentStrategy:  string(r.AssignmentStrategy),
				ScalingRules:        r.ScalingRules,
				ConflictsWith:       r.ConflictsWith,
			}
		}
	}

	if g.BoardConfig != nil {
		bc := g.BoardConfig
		doc.BoardConfig = &boardDoc{
			ShowGameName:     bc.ShowGameName,
			ShowCurrentPhase: bc.ShowCurrentPhase,
			ShowTimer:        bc.ShowTimer,
			ShowParticipants: bc.ShowParticipants,
			ShowPublicRoles:  bc.ShowPublicRoles,
			ShowLeaderboard:  bc.ShowLeaderboard,
			ShowQRCode:       bc.ShowQRCode,
			WelcomeMessage:   bc.WelcomeMessage,
			Theme:            bc.Theme,
			BackgroundColor:  bc.BackgroundColor,
			LayoutVariant:    bc.LayoutVariant,
		}
	}

	if len(g.Artifacts) > 0 {
		doc.Artifacts = make([]artifactDoc, len(g.Artifacts))
		for i, a := range g.Artifacts {
			ad := artifactDoc{
				ArtifactOrder: a.ArtifactOrder,
				Locale:        a.Locale,
				Title:         a.Title,
				Description:   a.Description,
				ArtifactType:  a.ArtifactType,
				Tags:          a.Tags,
				Metadata:      a.Metadata,
			}
			for _, v := range a.Variants {
				ad.Variants = append(ad.Variants, variantDoc{
					VariantOrder:       v.VariantOrder,
					Visibility:         string(v.Visibility),
					VisibleToRoleID:    v.VisibleToRoleID,
					VisibleToRoleOrder: v.VisibleToRoleOrder,
					VisibleToRoleName:  v.VisibleToRoleName,
					Title:              v.Title,
					Body:               v.Body,
					MediaRef:           v.MediaRef,
					Metadata:           v.Metadata,
				})
			}
			doc.Artifacts[i] = ad
		}
	}

	if len(g.Triggers) > 0 {
		doc.Triggers = make([]triggerDoc, len(g.Triggers))
		for i, t := range g.Triggers {
			doc.Triggers[i] = triggerDoc{
				Name:         t.Name,
				Description:  t.Description,
				Enabled:      t.Enabled,
				Condition:    t.Condition,
				Actions:      t.Actions,
				ExecuteOnce:  t.ExecuteOnce,
				DelaySeconds: t.DelaySeconds,
				SortOrder:    t.SortOrder,
			}
		}
	}

	return doc
}
