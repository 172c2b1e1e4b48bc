package validation

import "sort"

// Errors maps a form field to the message shown next to it.
// An empty map means the input is valid.
type Errors map[string]string

func (e Errors) Set(field, msg string) { e[field] = msg }

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e Errors) OK() bool { return len(e) == 0 }

// Keys returns the failing fields in a stable order.
func (e Errors) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge copies fields from other that are not already set.
func (e Errors) Merge(other Errors) {
	for k, v := range other {
		if _, ok := e[k]; !ok {
			e[k] = v
		}
	}
}
