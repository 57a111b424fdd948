package repository

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// flexString accepts a JSON string or a bare number. Catalog APIs are not
// consistent about how they encode ids and counters.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	switch {
	case string(b) == "null":
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var str string
		if err := sonic.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
	default:
		*s = flexString(b)
	}
	return nil
}

func (s flexString) String() string { return string(s) }

// Int64 parses the value as a decimal count. Empty values are zero.
func (s flexString) Int64() (int64, error) {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
