package params

// EnclaveResolver resolves declared enclave names to their 1-based
// table index and back, so the grammar's src=/dst= keys can round-trip
// through human-readable names instead of raw integers (§3, §4.1 S4).
type EnclaveResolver interface {
	// Index resolves a declared name to its 1-based index. ok is false
	// for an undeclared name.
	Index(name string) (index int, ok bool)
	// Name resolves a 1-based index back to its declared name. ok is
	// false for index 0 (unset) or an out-of-range index.
	Name(index int) (name string, ok bool)
}
