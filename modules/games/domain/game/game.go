// Package game holds the parsed game content aggregate shared by the import
// and export pipelines. Values here are transport-agnostic: the CSV and JSON
// parsers produce them, the validator inspects them and the persistence layer
// consumes them.
package game

// PlayMode classifies how a game is run.
type PlayMode string

const (
	PlayModeBasic        PlayMode = "basic"
	PlayModeFacilitated  PlayMode = "facilitated"
	PlayModeParticipants PlayMode = "participants"
)

func (m PlayMode) Valid() bool {
	switch m {
	case PlayModeBasic, PlayModeFacilitated, PlayModeParticipants:
		return true
	}
	return false
}

// Status is the publication state of a game.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// PhaseType classifies a facilitated phase.
type PhaseType string

const (
	PhaseIntro  PhaseType = "intro"
	PhaseRound  PhaseType = "round"
	PhaseFinale PhaseType = "finale"
	PhaseBreak  PhaseType = "break"
)

func (p PhaseType) Valid() bool {
	switch p {
	case PhaseIntro, PhaseRound, PhaseFinale, PhaseBreak:
		return true
	}
	return false
}

// AssignmentStrategy controls how roles are handed out.
type AssignmentStrategy string

const (
	AssignRandom      AssignmentStrategy = "random"
	AssignLeaderPicks AssignmentStrategy = "leader_picks"
	AssignPlayerPicks AssignmentStrategy = "player_picks"
)

func (a AssignmentStrategy) Valid() bool {
	switch a {
	case AssignRandom, AssignLeaderPicks, AssignPlayerPicks:
		return true
	}
	return false
}

// Visibility controls who sees an artifact variant.
type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityLeaderOnly  Visibility = "leader_only"
	VisibilityRolePrivate Visibility = "role_private"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityLeaderOnly, VisibilityRolePrivate:
		return true
	}
	return false
}

// ParsedGame is one game as parsed from an import payload, before any ids
// are assigned. Child references use 1-based order numbers, not ids.
type ParsedGame struct {
	// SourceRow is where this game came from in the submitted payload:
	// the physical CSV row, or the 1-based array position for JSON.
	SourceRow int

	GameKey          string
	Name             string
	ShortDescription string
	Description      string
	PlayMode         PlayMode
	Status           Status
	Locale           string

	EnergyLevel        string // low, medium, high
	LocationType       string // indoor, outdoor, both
	TimeEstimateMin    *int
	DurationMax        *int
	MinPlayers         *int
	MaxPlayers         *int
	PlayersRecommended *int
	AgeMin             *int
	AgeMax             *int
	Difficulty         string
	AccessibilityNotes string
	SpaceRequirements  string
	LeaderTips         string

	MainPurposeID string
	SubPurposeIDs []string
	ProductID     string
	OwnerTenantID string

	// Declared step count from the source, checked against len(Steps).
	StepCount *int

	Steps       []Step
	Materials   *Materials
	Phases      []Phase
	Roles       []Role
	BoardConfig *BoardConfig
	Artifacts   []Artifact
	Triggers    []Trigger

	// Passthrough payloads carried by newer generators; the pipeline stores
	// them opaquely.
	Decisions any
	Outcomes  any
}

// Step is one instruction step. PhaseID and PhaseOrder are mutually
// exclusive ways of attaching the step to a phase.
type Step struct {
	StepOrder         int
	Title             string
	Body              string
	DurationSeconds   *int
	LeaderScript      string
	ParticipantPrompt string
	BoardText         string
	Optional          bool
	PhaseID           string
	PhaseOrder        *int
}

// Materials lists what the leader needs to prepare and bring.
type Materials struct {
	Items       []string
	SafetyNotes string
	Preparation string
}

type Phase struct {
	PhaseOrder      int
	Name            string
	PhaseType       PhaseType
	DurationSeconds *int
	TimerVisible    bool
	TimerStyle      string
	Description     string
	BoardMessage    string
	AutoAdvance     bool
}

type Role struct {
	RoleOrder           int
	Name                string
	Icon                string
	Color               string
	PublicDescription   string
	PrivateInstructions string
	PrivateHints        string
	MinCount            int
	MaxCount            *int
	AssignmentStrategy  AssignmentStrategy
	ScalingRules        map[string]int
	ConflictsWith       []string
}

// BoardConfig carries display settings for the shared board screen.
type BoardConfig struct {
	ShowGameName     bool
	ShowCurrentPhase bool
	ShowTimer        bool
	ShowParticipants bool
	ShowPublicRoles  bool
	ShowLeaderboard  bool
	ShowQRCode       bool
	WelcomeMessage   string
	Theme            string
	BackgroundColor  string
	LayoutVariant    string
}

// Artifact is a piece of content revealed during play. Metadata is kept as
// decoded JSON; string values such as zero-padded keypad codes must survive
// untouched.
type Artifact struct {
	ArtifactOrder int
	Locale        string
	Title         string
	Description   string
	ArtifactType  string
	Tags          []string
	Metadata      map[string]any
	Variants      []ArtifactVariant
}

// ArtifactVariant references its role by at most one of VisibleToRoleID,
// VisibleToRoleOrder or VisibleToRoleName; order and name forms are resolved
// during import.
type ArtifactVariant struct {
	VariantOrder       int
	Visibility         Visibility
	VisibleToRoleID    string
	VisibleToRoleOrder *int
	VisibleToRoleName  string
	Title              string
	Body               string
	MediaRef           string
	Metadata           map[string]any
}

// Trigger wires a condition to a list of actions. Condition and action maps
// are tagged by their "type" key; entity references inside them use order
// aliases until preflight rewrites them to ids.
type Trigger struct {
	Name         string
	Description  string
	Enabled      bool
	Condition    map[string]any
	Actions      []map[string]any
	ExecuteOnce  bool
	DelaySeconds *int
	SortOrder    *int
}
