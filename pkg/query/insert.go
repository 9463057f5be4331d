package query

import (
	"fmt"
	"strings"
)

// Insert renders a parameterized INSERT statement for columns of schema.table.
func Insert(schema, table string, columns ...string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf(
		"INSERT INTO %s.%s (%s) VALUES (%s)",
		schema,
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
}
