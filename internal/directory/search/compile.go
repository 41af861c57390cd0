package search

import (
	"fmt"
	"strings"
)

// Column names used by CompileSQL. The profiles table is aliased p and the
// LEFT JOINed countries table c; boolean country tests use IS TRUE so rows
// without a country never match them.
func columnFor(f Field) string {
	switch f {
	case FieldName:
		return "p.name"
	case FieldInstitution:
		return "p.institution"
	case FieldPosition:
		return "p.position"
	case FieldBrainStructure:
		return "p.brain_structure"
	case FieldModalities:
		return "p.modalities"
	case FieldMethods:
		return "p.methods"
	case FieldDomains:
		return "p.domains"
	case FieldKeywords:
		return "p.keywords"
	case FieldCountryName:
		return "c.name"
	case FieldIsPublic:
		return "p.is_public"
	case FieldDeletedAt:
		return "p.deleted_at"
	case FieldCountryUnderRepresented:
		return "c.is_under_represented"
	}
	return ""
}

// CompileSQL lowers a predicate tree to a parameterized WHERE clause for a
// query over `profiles p LEFT JOIN countries c ON c.id = p.country_id`.
// Placeholders start at $1; callers appending LIMIT/OFFSET continue from
// len(args)+1.
func CompileSQL(n Node) (string, []any) {
	c := &compiler{}
	clause := c.compile(n)
	return clause, c.args
}

type compiler struct {
	args []any
}

func (c *compiler) placeholder(v any) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}

func (c *compiler) compile(n Node) string {
	switch t := n.(type) {
	case Const:
		if t.Value {
			return "TRUE"
		}
		return "FALSE"
	case And:
		return c.join(t.Kids, " AND ", "TRUE")
	case Or:
		return c.join(t.Kids, " OR ", "FALSE")
	case Match:
		return c.compileMatch(t)
	}
	return "FALSE"
}

func (c *compiler) join(kids []Node, sep, empty string) string {
	if len(kids) == 0 {
		return empty
	}
	parts := make([]string, len(kids))
	for i, k := range kids {
		parts[i] = c.compile(k)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func (c *compiler) compileMatch(m Match) string {
	col := columnFor(m.Field)
	switch m.Op {
	case OpIContains:
		return col + " ILIKE " + c.placeholder("%"+escapeLike(m.Value)+"%")
	case OpHasCode:
		// Membership in the comma-delimited code list; the comma guards
		// keep sibling codes from matching as substrings.
		return "(',' || " + col + " || ',') LIKE " + c.placeholder("%,"+m.Value+",%")
	case OpIsTrue:
		return col + " IS TRUE"
	case OpIsNull:
		return col + " IS NULL"
	}
	return "FALSE"
}

// escapeLike neutralizes LIKE wildcards in user-supplied tokens.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
