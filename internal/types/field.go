package types

// FieldPath is a validated reference to a document field using Mongo's
// dot-notation (e.g. "address.city", "items.0.sku"). Validation happens
// in internal/validator before a FieldPath is ever constructed by the
// parser; by the time one reaches the renderer it is trusted.
type FieldPath struct {
	Path string
}

// Root returns the first dot-separated segment of the path.
func (f FieldPath) Root() string {
	for i := 0; i < len(f.Path); i++ {
		if f.Path[i] == '.' {
			return f.Path[:i]
		}
	}
	return f.Path
}

// IsNested reports whether the path descends into a sub-document or array.
func (f FieldPath) IsNested() bool {
	for i := 0; i < len(f.Path); i++ {
		if f.Path[i] == '.' {
			return true
		}
	}
	return false
}
