// Package search implements the directory's faceted search logic as an
// explicit predicate tree. The tree is built once per request from the raw
// query string and filter flags, then either lowered to a parameterized SQL
// WHERE clause (CompileSQL) or evaluated directly against in-memory rows
// (Eval). Keeping the tree independent of the storage layer lets the search
// semantics be tested without a database.
package search

import (
	"strings"

	"github.com/neurodir/neurodir/internal/directory/model"
)

// Field names a profile attribute a Match can test.
type Field int

const (
	FieldName Field = iota
	FieldInstitution
	FieldPosition
	FieldBrainStructure
	FieldModalities
	FieldMethods
	FieldDomains
	FieldKeywords
	FieldCountryName
	FieldIsPublic
	FieldDeletedAt
	FieldCountryUnderRepresented
)

// Op is the comparison a Match performs.
type Op int

const (
	// OpIContains matches Value as a case-insensitive substring.
	OpIContains Op = iota
	// OpHasCode matches membership of Value in a delimited facet code list.
	OpHasCode
	// OpIsTrue matches a boolean field being true.
	OpIsTrue
	// OpIsNull matches a nullable field being null.
	OpIsNull
)

// Node is one node of the predicate tree.
type Node interface {
	isNode()
}

// And is the conjunction of its children. An empty And is true.
type And struct {
	Kids []Node
}

// Or is the disjunction of its children. An empty Or is false.
type Or struct {
	Kids []Node
}

// Match is a single field comparison leaf.
type Match struct {
	Field Field
	Op    Op
	Value string
}

// Const is a constant leaf.
type Const struct {
	Value bool
}

func (And) isNode()   {}
func (Or) isNode()    {}
func (Match) isNode() {}
func (Const) isNode() {}

// Eval evaluates the predicate against a single profile row. The row's
// CountryName and CountryUnderRepresented fields stand in for the joined
// country columns.
func Eval(n Node, p *model.Profile) bool {
	switch t := n.(type) {
	case Const:
		return t.Value
	case And:
		for _, k := range t.Kids {
			if !Eval(k, p) {
				return false
			}
		}
		return true
	case Or:
		for _, k := range t.Kids {
			if Eval(k, p) {
				return true
			}
		}
		return false
	case Match:
		return evalMatch(t, p)
	}
	return false
}

func evalMatch(m Match, p *model.Profile) bool {
	switch m.Op {
	case OpIContains:
		return containsFold(fieldText(m.Field, p), m.Value)
	case OpHasCode:
		for _, code := range model.SplitCodes(fieldText(m.Field, p)) {
			if code == m.Value {
				return true
			}
		}
		return false
	case OpIsTrue:
		switch m.Field {
		case FieldIsPublic:
			return p.IsPublic
		case FieldCountryUnderRepresented:
			return p.CountryUnderRepresented
		}
		return false
	case OpIsNull:
		if m.Field == FieldDeletedAt {
			return p.DeletedAt == nil
		}
		return false
	}
	return false
}

func fieldText(f Field, p *model.Profile) string {
	switch f {
	case FieldName:
		return p.Name
	case FieldInstitution:
		return p.Institution
	case FieldPosition:
		return p.Position
	case FieldBrainStructure:
		return p.BrainStructure
	case FieldModalities:
		return p.Modalities
	case FieldMethods:
		return p.Methods
	case FieldDomains:
		return p.Domains
	case FieldKeywords:
		return p.Keywords
	case FieldCountryName:
		return p.CountryName
	}
	return ""
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
