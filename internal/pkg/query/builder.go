package query

import (
	"fmt"
	"strings"
)

// Direction dirección del ORDER BY.
type Direction int

const (
	Asc Direction = iota
	Desc
)

type orderBy struct {
	col string
	dir Direction
}

// Builder arma consultas SELECT para PostgreSQL con placeholders posicionales.
// Es inmutable: cada método devuelve una copia, así la misma base sirve para
// el listado paginado y para el COUNT(*).
type Builder struct {
	table      string
	selectCols []string
	where      []Condition
	order      []orderBy
	limitVal   int64
	offsetVal  int64
}

// From crea un Builder sobre la tabla indicada.
func From(table string) *Builder {
	return &Builder{table: table}
}

// Select agrega columnas.
func (b *Builder) Select(columns ...string) *Builder {
	nb := b.clone()
	nb.selectCols = append(nb.selectCols, columns...)
	return nb
}

// Where agrega una condición; varias llamadas se combinan con AND.
func (b *Builder) Where(c Condition) *Builder {
	nb := b.clone()
	nb.where = append(nb.where, c)
	return nb
}

// OrderBy agrega una columna de ordenamiento (se respetan en el orden de llamada).
func (b *Builder) OrderBy(column string, dir Direction) *Builder {
	nb := b.clone()
	nb.order = append(nb.order, orderBy{col: column, dir: dir})
	return nb
}

// Limit fija el máximo de filas.
func (b *Builder) Limit(limit int64) *Builder {
	nb := b.clone()
	nb.limitVal = limit
	return nb
}

// Offset fija cuántas filas saltar.
func (b *Builder) Offset(offset int64) *Builder {
	nb := b.clone()
	nb.offsetVal = offset
	return nb
}

// Count devuelve un builder COUNT(*) con el mismo FROM/WHERE, sin orden ni paginación.
func (b *Builder) Count() *Builder {
	nb := b.clone()
	nb.selectCols = []string{"COUNT(*)"}
	nb.order = nil
	nb.limitVal = 0
	nb.offsetVal = 0
	return nb
}

// Build devuelve el SQL y los argumentos en orden posicional.
func (b *Builder) Build() (string, []any) {
	var sql strings.Builder
	args := make([]any, 0, len(b.where)+2)

	sql.WriteString("SELECT ")
	if len(b.selectCols) == 0 {
		sql.WriteString("*")
	} else {
		sql.WriteString(strings.Join(b.selectCols, ", "))
	}
	sql.WriteString(" FROM ")
	sql.WriteString(b.table)

	if len(b.where) > 0 {
		parts := make([]string, 0, len(b.where))
		for _, c := range b.where {
			fragment, condArgs := c.SQL(len(args) + 1)
			parts = append(parts, fragment)
			args = append(args, condArgs...)
		}
		sql.WriteString(" WHERE ")
		sql.WriteString(strings.Join(parts, " AND "))
	}

	if len(b.order) > 0 {
		parts := make([]string, 0, len(b.order))
		for _, o := range b.order {
			if o.dir == Desc {
				parts = append(parts, o.col+" DESC")
			} else {
				parts = append(parts, o.col+" ASC")
			}
		}
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(parts, ", "))
	}

	if b.limitVal > 0 {
		args = append(args, b.limitVal)
		fmt.Fprintf(&sql, " LIMIT $%d", len(args))
	}
	if b.offsetVal > 0 {
		args = append(args, b.offsetVal)
		fmt.Fprintf(&sql, " OFFSET $%d", len(args))
	}
	return sql.String(), args
}

func (b *Builder) clone() *Builder {
	nb := &Builder{
		table:     b.table,
		limitVal:  b.limitVal,
		offsetVal: b.offsetVal,
	}
	nb.selectCols = append([]string(nil), b.selectCols...)
	nb.where = append([]Condition(nil), b.where...)
	nb.order = append([]orderBy(nil), b.order...)
	return nb
}

// String representación legible para depuración.
func (b *Builder) String() string {
	sql, args := b.Build()
	return fmt.Sprintf("SQL: %s\nArgs: %v", sql, args)
}
