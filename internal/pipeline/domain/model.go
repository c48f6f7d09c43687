package domain

import "time"

type Workspace struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"userId" firestore:"userId"`
	Name      string    `json:"name" firestore:"name"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

func (w *Workspace) OwnerID() string { return w.UserID }

// Project is a business idea. Each project starts with one version.
type Project struct {
	ID               string    `json:"id" firestore:"id"`
	UserID           string    `json:"userId" firestore:"userId"`
	WorkspaceID      string    `json:"workspaceId" firestore:"workspaceId"`
	Idea             string    `json:"idea" firestore:"idea"`
	CurrentVersionID string    `json:"currentVersionId" firestore:"currentVersionId"`
	CreatedAt        time.Time `json:"createdAt" firestore:"createdAt"`
}

func (p *Project) OwnerID() string { return p.UserID }

// BuildRef is the deployment summary kept on a version.
type BuildRef struct {
	ID          string    `json:"id" firestore:"id"`
	Status      string    `json:"status" firestore:"status"`
	ServiceName string    `json:"serviceName" firestore:"serviceName"`
	ServiceURL  string    `json:"serviceUrl,omitempty" firestore:"serviceUrl,omitempty"`
	Region      string    `json:"region" firestore:"region"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

// Version carries the pipeline pointer and every stage result.
type Version struct {
	ID          string                    `json:"id" firestore:"id"`
	ProjectID   string                    `json:"projectId" firestore:"projectId"`
	UserID      string                    `json:"userId" firestore:"userId"`
	Stage       Stage                     `json:"stage" firestore:"stage"`
	LastStage   Stage                     `json:"lastStage,omitempty" firestore:"lastStage,omitempty"`
	Results     map[string]map[string]any `json:"results" firestore:"results"`
	IsValidated bool                      `json:"isValidated" firestore:"isValidated"`
	FilesStored bool                      `json:"filesStored" firestore:"filesStored"`
	LastBuild   *BuildRef                 `json:"lastBuild,omitempty" firestore:"lastBuild,omitempty"`
	CreatedAt   time.Time                 `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt" firestore:"updatedAt"`
}

func (v *Version) OwnerID() string { return v.UserID }

func NewVersion(id, projectID, userID string, now time.Time) *Version {
	return &Version{
		ID:        id,
		ProjectID: projectID,
		UserID:    userID,
		Stage:     StageStrategy,
		Results:   make(map[string]map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Result returns the stored payload for stage.
func (v *Version) Result(stage Stage) (map[string]any, bool) {
	spec, ok := Spec(stage)
	if !ok || v.Results == nil {
		return nil, false
	}
	payload, ok := v.Results[spec.Field]
	return payload, ok
}

// ApplyStageResult stores payload in the stage slot and moves the pointer.
// The pointer never moves backwards, with one exception: a VALIDATE result
// that did not pass puts the pointer back at VALIDATE, even from COMPLETE,
// and returns halted=true.
func (v *Version) ApplyStageResult(stage Stage, payload map[string]any, now time.Time) (halted bool) {
	spec, ok := Spec(stage)
	if !ok {
		return false
	}
	if v.Results == nil {
		v.Results = make(map[string]map[string]any)
	}
	v.Results[spec.Field] = payload
	v.LastStage = stage
	v.UpdatedAt = now

	next := spec.Next
	if stage == StageValidate {
		valid, _ := payload["isValid"].(bool)
		v.IsValidated = valid
		if !valid {
			v.Stage = StageValidate
			return true
		}
	}
	v.Stage = Later(v.Stage, next)
	return halted
}

// Validation thresholds applied to the VALIDATE score.
const (
	ValidThreshold     = 0.7
	BuildTestThreshold = 0.8
)

type ValidationResult struct {
	Score           float64  `json:"score"`
	IsValid         bool     `json:"isValid"`
	BuildTestPassed bool     `json:"buildTestPassed"`
	Errors          []string `json:"errors,omitempty"`
}

// EvaluateValidation derives the verdict from the score alone. The
// isValid flag reported by the model is overwritten in the returned payload.
func EvaluateValidation(payload map[string]any) (ValidationResult, map[string]any) {
	score, _ := payload["score"].(float64)
	res := ValidationResult{
		Score:           score,
		IsValid:         score >= ValidThreshold,
		BuildTestPassed: score >= BuildTestThreshold,
	}
	if raw, ok := payload["errors"].([]any); ok {
		for _, e := range raw {
			if s, ok := e.(string); ok {
				res.Errors = append(res.Errors, s)
			}
		}
	}

	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["isValid"] = res.IsValid
	out["buildTestPassed"] = res.BuildTestPassed
	return res, out
}
