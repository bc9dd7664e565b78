package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// VariableKey identifies one output column of the grid engine: the element result table
// it came from, the variable within that table, and the element index.
type VariableKey struct {
	Table    string
	Variable string
	Index    int
}

// String serializes the key to the single-string column name used when grid variables are
// folded into the cumulative result table, e.g. "(res_sgen, p_mw, 0)". ParseVariableKey is
// its lossless inverse for well-formed keys.
func (k VariableKey) String() string {
	return fmt.Sprintf("(%s, %s, %d)", k.Table, k.Variable, k.Index)
}

// ParseVariableKey decodes a serialized variable key column name.
func ParseVariableKey(s string) (VariableKey, error) {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return VariableKey{}, fmt.Errorf("variable key %q: missing parentheses", s)
	}
	parts := strings.Split(s[1:len(s)-1], ", ")
	if len(parts) != 3 {
		return VariableKey{}, fmt.Errorf("variable key %q: want 3 comma-separated parts, got %d", s, len(parts))
	}
	if parts[0] == "" || parts[1] == "" {
		return VariableKey{}, fmt.Errorf("variable key %q: empty table or variable", s)
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil {
		return VariableKey{}, fmt.Errorf("variable key %q: element index: %w", s, err)
	}
	return VariableKey{Table: parts[0], Variable: parts[1], Index: idx}, nil
}
