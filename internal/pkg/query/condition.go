package query

import (
	"fmt"
	"strings"
)

// Condition representa una condición del WHERE.
// argIndex es el número del siguiente placeholder posicional de PostgreSQL ($1, $2, ...).
type Condition interface {
	SQL(argIndex int) (string, []any)
}

type eqCondition struct {
	field string
	value any
}

// Eq genera "field = $n".
func Eq(field string, value any) Condition {
	return &eqCondition{field: field, value: value}
}

func (c *eqCondition) SQL(argIndex int) (string, []any) {
	return fmt.Sprintf("%s = $%d", c.field, argIndex), []any{c.value}
}

type containsAnyCondition struct {
	fields []string
	term   string
}

// ContainsAny genera una búsqueda de subcadena sin distinguir mayúsculas sobre varios campos,
// unidos con OR: "(name ILIKE $n OR description ILIKE $n)". Los comodines % y _ del término
// se escapan para que la búsqueda sea literal.
func ContainsAny(term string, fields ...string) Condition {
	return &containsAnyCondition{fields: fields, term: term}
}

func (c *containsAnyCondition) SQL(argIndex int) (string, []any) {
	parts := make([]string, 0, len(c.fields))
	for _, f := range c.fields {
		parts = append(parts, fmt.Sprintf("%s ILIKE $%d", f, argIndex))
	}
	return "(" + strings.Join(parts, " OR ") + ")", []any{"%" + EscapeLike(c.term) + "%"}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapa los comodines de LIKE/ILIKE (escape por defecto: barra invertida).
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
