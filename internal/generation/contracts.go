package generation

import (
	"github.com/invopop/jsonschema"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

// Output shapes requested from the provider for each stage. Only the
// fields listed in the stage table are checked after decoding.

type StrategyBlueprint struct {
	Niche       string   `json:"niche" jsonschema:"description=Market niche"`
	ICP         string   `json:"icp" jsonschema:"description=Ideal customer profile"`
	Offer       string   `json:"offer"`
	ValueProp   string   `json:"valueProp"`
	Pricing     string   `json:"pricing,omitempty"`
	FunnelModel string   `json:"funnelModel,omitempty"`
	Channels    []string `json:"channels,omitempty"`
}

type BrandColors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent,omitempty"`
}

type BrandFonts struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type BrandKit struct {
	Name        string      `json:"name"`
	Tagline     string      `json:"tagline,omitempty"`
	Tone        string      `json:"tone,omitempty"`
	Colors      BrandColors `json:"colors"`
	Fonts       BrandFonts  `json:"fonts"`
	LogoConcept string      `json:"logoConcept,omitempty"`
}

type SitePage struct {
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Sections []string `json:"sections,omitempty"`
}

type SiteStructure struct {
	Pages []SitePage `json:"pages"`
}

type AssetSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type AssetPack struct {
	Headline    string         `json:"headline"`
	Subheadline string         `json:"subheadline,omitempty"`
	CTA         string         `json:"cta"`
	Sections    []AssetSection `json:"sections,omitempty"`
}

type AgentProfile struct {
	Name         string   `json:"name"`
	Persona      string   `json:"persona,omitempty"`
	Greeting     string   `json:"greeting,omitempty"`
	Instructions string   `json:"instructions"`
	Topics       []string `json:"topics,omitempty"`
}

type ValidationReport struct {
	IsValid bool     `json:"isValid"`
	Score   float64  `json:"score" jsonschema:"minimum=0,maximum=1"`
	Errors  []string `json:"errors,omitempty"`
}

type contract struct {
	name   string
	schema any
}

var contracts = map[domain.Stage]contract{
	domain.StageStrategy:  {"strategy_blueprint", schemaOf[StrategyBlueprint]()},
	domain.StageBrand:     {"brand_kit", schemaOf[BrandKit]()},
	domain.StageStructure: {"site_structure", schemaOf[SiteStructure]()},
	domain.StageAssets:    {"asset_pack", schemaOf[AssetPack]()},
	domain.StageAgent:     {"agent_profile", schemaOf[AgentProfile]()},
	domain.StageValidate:  {"validation_report", schemaOf[ValidationReport]()},
}

func schemaOf[T any]() any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}
