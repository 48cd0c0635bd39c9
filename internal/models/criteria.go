package models

// SearchCriteria captures one search invocation's user selections. It is
// treated as immutable once a search is dispatched; load-more copies it and
// extends ExcludeNames.
type SearchCriteria struct {
	Ingredients    []string `json:"ingredients"`
	Appliances     []string `json:"appliances"`
	Cultures       []string `json:"cultures"`
	MaxTimeMinutes int      `json:"max_time_minutes"`
	ZipCode        string   `json:"zip_code,omitempty"`
	ExcludeNames   []string `json:"exclude_names,omitempty"`
}

// WithExclusions returns a copy of the criteria with the given names appended
// to the exclusion list.
func (c SearchCriteria) WithExclusions(names []string) SearchCriteria {
	out := c
	out.ExcludeNames = make([]string, 0, len(c.ExcludeNames)+len(names))
	out.ExcludeNames = append(out.ExcludeNames, c.ExcludeNames...)
	out.ExcludeNames = append(out.ExcludeNames, names...)
	return out
}
