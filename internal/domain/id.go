package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is a numeric record identifier. The upstream API is not consistent about
// sending ids as numbers or strings, so decoding accepts both; anything that
// is not a positive integer decodes to 0, which means "absent".
type ID int64

func (id ID) Valid() bool { return id > 0 }

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*id = 0
			return nil
		}
		*id = ParseID(s)
		return nil
	}
	*id = ParseID(string(b))
	return nil
}

// ParseID converts form or query input into an ID; invalid input yields 0.
func ParseID(s string) ID {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return ID(n)
	}
	// JSON numbers such as 12.0
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f == float64(int64(f)) {
		return ID(int64(f))
	}
	return 0
}
