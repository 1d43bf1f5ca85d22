package registry

import "github.com/tmh/registry/pkg/choice"

var Genders = choice.NewSet("gender",
	choice.Option{Code: "MALE", Label: "Male"},
	choice.Option{Code: "FEMALE", Label: "Female"},
)

var (
	EpisodeTypes = choice.NewSet("episode_type",
		choice.Option{Code: "INGUINAL", Label: "Inguinal Mesh Hernia Repair"},
		choice.Option{Code: "INCISIONAL", Label: "Incisional Mesh Hernia Repair"},
		choice.Option{Code: "FEMORAL", Label: "Femoral Mesh Hernia Repair"},
		choice.Option{Code: "UMBILICAL", Label: "Umbilical/Periumbilicial Mesh Hernia Repair"},
		choice.Option{Code: "EPIGASTRIC", Label: "Epigastric Hernia"},
	)
	Cepods = choice.NewSet("cepod",
		choice.Option{Code: "PLANNED", Label: "Planned"},
		choice.Option{Code: "EMERGENCY", Label: "Emergency"},
	)
	Sides = choice.NewSet("side",
		choice.Option{Code: "LEFT", Label: "Left"},
		choice.Option{Code: "RIGHT", Label: "Right"},
	)
	Occurences = choice.NewSet("occurence",
		choice.Option{Code: "PRIMARY", Label: "Primary"},
		choice.Option{Code: "RECURRENT", Label: "Recurrent"},
		choice.Option{Code: "RERECURRENT", Label: "Rerecurrent"},
	)
	HerniaTypes = choice.NewSet("type",
		choice.Option{Code: "DIRECT", Label: "Direct"},
		choice.Option{Code: "INDIRECT", Label: "Indirect"},
		choice.Option{Code: "PANTALOON", Label: "Pantaloon"},
	)
	Sizes = choice.NewSet("size",
		choice.Option{Code: "SMALL", Label: "Small"},
		choice.Option{Code: "MEDIUM", Label: "Medium"},
		choice.Option{Code: "LARGE", Label: "Large"},
	)
	Complexities = choice.NewSet("complexity",
		choice.Option{Code: "SIMPLE", Label: "Simple"},
		choice.Option{Code: "INCARCERATED", Label: "Incarcerated"},
		choice.Option{Code: "OBSTRUCTED", Label: "Obstructed"},
		choice.Option{Code: "STRANGULATED", Label: "Strangulated"},
	)
	MeshTypes = choice.NewSet("mesh_type",
		choice.Option{Code: "TNMHP", Label: "TNMHP Mesh"},
		choice.Option{Code: "KCMC", Label: "KCMC Generic Mesh"},
		choice.Option{Code: "COMMERCIAL", Label: "Commercial Mesh"},
		choice.Option{Code: "INTERNATIONAL", Label: "Hernia International Mesh"},
	)
	AnaestheticTypes = choice.NewSet("anaesthetic_type",
		choice.Option{Code: "LOCAL", Label: "Local Anaesthetic"},
		choice.Option{Code: "SPINAL", Label: "Spinal Anaesthetic"},
		choice.Option{Code: "GENERAL", Label: "General Anaesthetic"},
	)
)

var PainSeverities = choice.NewSet("pain_severity",
	choice.Option{Code: "NO_PAIN", Label: "No Pain"},
	choice.Option{Code: "MINIMAL", Label: "Minimal"},
	choice.Option{Code: "MILD", Label: "Mild"},
	choice.Option{Code: "MODERATE", Label: "Moderate"},
	choice.Option{Code: "SEVERE", Label: "Severe"},
)

const msgUnsupportedChoice = "Not supported value provided for ChoiceField."
