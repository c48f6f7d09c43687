package domain

import (
	"fmt"
	"strings"
)

// Stage identifies one step of the generation pipeline.
type Stage string

const (
	StageStrategy  Stage = "STRATEGY"
	StageBrand     Stage = "BRAND"
	StageStructure Stage = "STRUCTURE"
	StageAssets    Stage = "ASSETS"
	StageAgent     Stage = "AGENT"
	StageValidate  Stage = "VALIDATE"
	StageComplete  Stage = "COMPLETE"
)

// Tier selects the model class a stage runs on.
type Tier string

const (
	TierReasoning Tier = "reasoning"
	TierStandard  Tier = "standard"
)

// FieldKind is the JSON shape a required payload field must have.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldBool
	FieldNumber
	FieldUnit // number in [0, 1]
	FieldList
	FieldObject
)

func (k FieldKind) String() string {
	switch k {
	case FieldString:
		return "string"
	case FieldBool:
		return "bool"
	case FieldNumber:
		return "number"
	case FieldUnit:
		return "number in [0,1]"
	case FieldList:
		return "list"
	case FieldObject:
		return "object"
	}
	return "unknown"
}

// Matches reports whether a decoded JSON value has this kind.
func (k FieldKind) Matches(v any) bool {
	switch k {
	case FieldString:
		s, ok := v.(string)
		return ok && strings.TrimSpace(s) != ""
	case FieldBool:
		_, ok := v.(bool)
		return ok
	case FieldNumber:
		_, ok := v.(float64)
		return ok
	case FieldUnit:
		f, ok := v.(float64)
		return ok && f >= 0 && f <= 1
	case FieldList:
		l, ok := v.([]any)
		return ok && len(l) > 0
	case FieldObject:
		m, ok := v.(map[string]any)
		return ok && len(m) > 0
	}
	return false
}

type RequiredField struct {
	Name string
	Kind FieldKind
}

// StageSpec is the static description of a stage.
type StageSpec struct {
	Stage    Stage
	Label    string
	Field    string // key of the version result slot
	Tier     Tier
	Required []RequiredField
	Next     Stage
}

var stageTable = []StageSpec{
	{
		Stage: StageStrategy, Label: "Strategy blueprint", Field: "blueprint", Tier: TierReasoning,
		Required: []RequiredField{{"niche", FieldString}, {"icp", FieldString}, {"offer", FieldString}, {"valueProp", FieldString}},
		Next:     StageBrand,
	},
	{
		Stage: StageBrand, Label: "Brand kit", Field: "brand", Tier: TierReasoning,
		Required: []RequiredField{{"name", FieldString}, {"colors", FieldObject}, {"fonts", FieldObject}},
		Next:     StageStructure,
	},
	{
		Stage: StageStructure, Label: "Structure schema", Field: "structure", Tier: TierReasoning,
		Required: []RequiredField{{"pages", FieldList}},
		Next:     StageAssets,
	},
	{
		Stage: StageAssets, Label: "Asset generation", Field: "assets", Tier: TierStandard,
		Required: []RequiredField{{"headline", FieldString}, {"cta", FieldString}},
		Next:     StageAgent,
	},
	{
		Stage: StageAgent, Label: "AI Agent profile", Field: "agent", Tier: TierStandard,
		Required: []RequiredField{{"name", FieldString}, {"instructions", FieldString}},
		Next:     StageValidate,
	},
	{
		Stage: StageValidate, Label: "Build + Validate", Field: "validation", Tier: TierReasoning,
		Required: []RequiredField{{"isValid", FieldBool}, {"score", FieldUnit}},
		Next:     StageComplete,
	},
}

const completeLabel = "Complete"

// Stages returns the runnable stages in pipeline order.
func Stages() []StageSpec {
	out := make([]StageSpec, len(stageTable))
	copy(out, stageTable)
	return out
}

// Spec returns the description of a runnable stage.
func Spec(s Stage) (StageSpec, bool) {
	for _, spec := range stageTable {
		if spec.Stage == s {
			return spec, true
		}
	}
	return StageSpec{}, false
}

// Index is the stage position. COMPLETE sorts after every runnable stage,
// unknown stages return -1.
func (s Stage) Index() int {
	if s == StageComplete {
		return len(stageTable)
	}
	for i, spec := range stageTable {
		if spec.Stage == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool { return s.Index() >= 0 }

func (s Stage) Runnable() bool {
	_, ok := Spec(s)
	return ok
}

func (s Stage) Label() string {
	if s == StageComplete {
		return completeLabel
	}
	if spec, ok := Spec(s); ok {
		return spec.Label
	}
	return string(s)
}

// ParseStage accepts a stage name or its display label, case-insensitively.
func ParseStage(v string) (Stage, error) {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, string(StageComplete)) || strings.EqualFold(v, completeLabel) {
		return StageComplete, nil
	}
	for _, spec := range stageTable {
		if strings.EqualFold(v, string(spec.Stage)) || strings.EqualFold(v, spec.Label) {
			return spec.Stage, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStage, v)
}

// Later returns whichever stage comes later in the pipeline.
func Later(a, b Stage) Stage {
	if b.Index() > a.Index() {
		return b
	}
	return a
}
