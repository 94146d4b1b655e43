package store

// jsonArg returns the parameter value to bind to a `$n::jsonb` placeholder:
// nil becomes SQL NULL, otherwise the raw bytes are passed as text and cast
// by Postgres. Columns are always written through an explicit ::jsonb cast
// in the surrounding SQL so pgx's default bytea encoding of []byte never
// applies.
func jsonArg(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}

// scanJSON converts a nullable jsonb column (scanned into *string) back to
// []byte, preserving nil for SQL NULL.
func scanJSON(s *string) []byte {
	if s == nil {
		return nil
	}
	return []byte(*s)
}
