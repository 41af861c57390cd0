package search

import (
	"strings"

	"github.com/neurodir/neurodir/internal/directory/model"
)

// Filters are the boolean facet toggles of the listing view.
type Filters struct {
	UnderRepresentedOnly bool
	SeniorOnly           bool
}

// seniorKeywords are matched as case-insensitive position substrings when
// the senior-only filter is on.
var seniorKeywords = []string{"Senior", "Lecturer", "Professor", "Director", "Principal"}

// textFields are the free-text columns every search token is matched against.
var textFields = []Field{
	FieldName,
	FieldInstitution,
	FieldPosition,
	FieldBrainStructure,
	FieldCountryName,
	FieldKeywords,
}

// facetFields maps each facet vocabulary to the profile column holding its
// codes. Iteration order is fixed so built predicates are deterministic.
var facetFields = []struct {
	facet model.Facet
	field Field
}{
	{model.FacetStructure, FieldBrainStructure},
	{model.FacetModality, FieldModalities},
	{model.FacetMethod, FieldMethods},
	{model.FacetDomain, FieldDomains},
}

// Visibility is the guard ANDed into every directory predicate: only public,
// non-deleted profiles are ever listed.
func Visibility() Node {
	return And{Kids: []Node{
		Match{Field: FieldIsPublic, Op: OpIsTrue},
		Match{Field: FieldDeletedAt, Op: OpIsNull},
	}}
}

// Build maps a raw search query and filter flags into a predicate tree.
//
// The query is tokenized on whitespace (empty tokens dropped). Each token
// becomes a disjunction over the free-text columns plus, for each facet
// vocabulary, a code-membership match for every code whose label contains
// the token case-insensitively — so typing "cortex" finds profiles whose
// stored structure codes include the code labeled "Cortex". Token
// disjunctions are conjoined together and with the visibility guard, which
// is present regardless of input.
func Build(query string, f Filters) Node {
	conj := []Node{Visibility()}

	for _, token := range strings.Fields(query) {
		conj = append(conj, tokenDisjunction(token))
	}

	if f.UnderRepresentedOnly {
		conj = append(conj, Match{Field: FieldCountryUnderRepresented, Op: OpIsTrue})
	}

	if f.SeniorOnly {
		senior := Or{}
		for _, kw := range seniorKeywords {
			senior.Kids = append(senior.Kids, Match{Field: FieldPosition, Op: OpIContains, Value: kw})
		}
		conj = append(conj, senior)
	}

	return And{Kids: conj}
}

// tokenDisjunction builds the per-token OR described in Build.
func tokenDisjunction(token string) Node {
	or := Or{}
	for _, field := range textFields {
		or.Kids = append(or.Kids, Match{Field: field, Op: OpIContains, Value: token})
	}
	lower := strings.ToLower(token)
	for _, ff := range facetFields {
		for _, choice := range model.ChoicesFor(ff.facet) {
			if strings.Contains(strings.ToLower(choice.Label), lower) {
				or.Kids = append(or.Kids, Match{Field: ff.field, Op: OpHasCode, Value: choice.Code})
			}
		}
	}
	return or
}
