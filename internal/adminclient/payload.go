package adminclient

import (
	"encoding/json"
	"net/http"
	"sort"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// errorDetails reads the error part of a failed response. The server sends
// either a field keyed map or a {code, message} object; older handlers send
// a bare string.
func errorDetails(status int, body []byte) (string, map[string]string) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Error) == 0 {
		return http.StatusText(status), nil
	}

	var text string
	if err := json.Unmarshal(env.Error, &text); err == nil {
		return text, nil
	}

	var coded struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error, &coded); err == nil && coded.Code != "" && coded.Message != "" {
		return coded.Message, nil
	}

	var fields map[string]string
	if err := json.Unmarshal(env.Error, &fields); err == nil && len(fields) > 0 {
		return FirstFieldMessage(fields), fields
	}
	return http.StatusText(status), nil
}

// FirstFieldMessage picks the message of the alphabetically first field so
// the shown error does not depend on map order.
func FirstFieldMessage(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fields[keys[0]]
}
