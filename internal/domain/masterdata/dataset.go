package masterdata

// Dataset binds a logical reference table to its source file and schema.
// The key is stable across the process lifetime; the path is the one file
// the dataset is reconciled from.
type Dataset struct {
	Key       string           `json:"key"`
	Path      string           `json:"path"`
	Schema    *CanonicalSchema `json:"-"`
	Delimiter rune             `json:"-"`
}

// EffectiveDelimiter returns the CSV delimiter, defaulting to comma
func (d *Dataset) EffectiveDelimiter() rune {
	if d.Delimiter == 0 {
		return ','
	}
	return d.Delimiter
}
