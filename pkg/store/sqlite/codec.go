package sqlite

import (
	"encoding/json"

	"github.com/agentstation/propsync/pkg/property"
)

func encodeAttributes(a property.Attributes) (string, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeAttributes restores Go types from JSON by field kind so that stored
// and freshly mapped values compare equal.
func decodeAttributes(data string) (property.Attributes, error) {
	var raw map[property.Field]any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, err
	}
	out := make(property.Attributes, len(raw))
	for f, v := range raw {
		if v == nil {
			continue
		}
		switch f.Kind() {
		case property.KindURLList, property.KindList:
			list, ok := v.([]any)
			if !ok {
				continue
			}
			strs := make([]string, 0, len(list))
			for _, e := range list {
				if s, ok := e.(string); ok {
					strs = append(strs, s)
				}
			}
			out[f] = strs
		default:
			out[f] = v
		}
	}
	return out, nil
}
