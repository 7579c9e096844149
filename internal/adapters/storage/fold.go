package storage

import (
	"database/sql/driver"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
)

// FoldFunc is the SQL function that folds text with FoldCase. SQLite's
// built-in lower() only folds ASCII.
const FoldFunc = "fold_case"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunc, 1, foldValue)
}

// FoldCase returns the Unicode case fold of s, for case-insensitive
// comparison.
func FoldCase(s string) string {
	return cases.Fold().String(s)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return FoldCase(v), nil
	case []byte:
		return FoldCase(string(v)), nil
	default:
		return v, nil
	}
}
