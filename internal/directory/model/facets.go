package model

import "strings"

// Facet identifies one of the four categorical dimensions a profile is
// tagged with. Each facet draws its values from a fixed code→label
// vocabulary known at build time.
type Facet string

const (
	FacetStructure Facet = "structure"
	FacetModality  Facet = "modality"
	FacetMethod    Facet = "method"
	FacetDomain    Facet = "domain"
)

// FacetChoice pairs a stored code with its human-readable label.
type FacetChoice struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Vocabulary order is fixed: predicates built from these slices are
// deterministic for identical inputs.
var (
	structureChoices = []FacetChoice{
		{"WB", "Whole brain"},
		{"CORT", "Cortex"},
		{"SUBC", "Subcortical structures"},
		{"BSTEM", "Brainstem"},
		{"CEREB", "Cerebellum"},
		{"SPINE", "Spinal cord"},
	}
	modalityChoices = []FacetChoice{
		{"FMRI", "Functional MRI"},
		{"SMRI", "Structural MRI"},
		{"EEG", "Electroencephalography"},
		{"MEG", "Magnetoencephalography"},
		{"PET", "Positron emission tomography"},
		{"ECOG", "Electrocorticography"},
		{"NIRS", "Functional near-infrared spectroscopy"},
	}
	methodChoices = []FacetChoice{
		{"UNIV", "Univariate analysis"},
		{"MVPA", "Multivariate pattern analysis"},
		{"DCM", "Dynamic causal modelling"},
		{"CONN", "Connectivity analysis"},
		{"ML", "Machine learning"},
		{"STIM", "Brain stimulation"},
	}
	domainChoices = []FacetChoice{
		{"PERC", "Perception"},
		{"ATTN", "Attention"},
		{"MEM", "Memory"},
		{"LANG", "Language"},
		{"EMO", "Emotion"},
		{"DECI", "Decision making"},
		{"MOTOR", "Motor control"},
		{"SLEEP", "Sleep"},
		{"DEV", "Development"},
		{"CLIN", "Clinical neuroscience"},
	}
)

// StructureChoices returns the brain-structure vocabulary.
func StructureChoices() []FacetChoice { return structureChoices }

// ModalityChoices returns the recording-modality vocabulary.
func ModalityChoices() []FacetChoice { return modalityChoices }

// MethodChoices returns the analysis-method vocabulary.
func MethodChoices() []FacetChoice { return methodChoices }

// DomainChoices returns the research-domain vocabulary.
func DomainChoices() []FacetChoice { return domainChoices }

// ChoicesFor returns the vocabulary for the given facet, or nil for an
// unknown facet.
func ChoicesFor(f Facet) []FacetChoice {
	switch f {
	case FacetStructure:
		return structureChoices
	case FacetModality:
		return modalityChoices
	case FacetMethod:
		return methodChoices
	case FacetDomain:
		return domainChoices
	}
	return nil
}

// ValidCode reports whether code belongs to the facet's vocabulary.
func ValidCode(f Facet, code string) bool {
	for _, c := range ChoicesFor(f) {
		if c.Code == code {
			return true
		}
	}
	return false
}

// SplitCodes parses a comma-delimited facet column into its code list.
// Empty segments are dropped.
func SplitCodes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	codes := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}

// JoinCodes renders a code list back into the delimited storage form.
func JoinCodes(codes []string) string {
	return strings.Join(codes, ",")
}
