package repository

import "strings"

// prefixColumns qualifies every column in a comma-separated list with a
// table alias, for queries that join against another table.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
