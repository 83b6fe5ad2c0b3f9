package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ent0n29/taskboard/internal/tasks"
)

const maxBodyBytes = 1 << 20

// validationIssue is one field-level problem in a request body, reported as
// {"loc": ["body", "<field>"], "msg": "...", "type": "..."}.
type validationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// taskFieldSpec is the schema of create and update bodies. Fields not listed
// here, including "id", are accepted and dropped without inspection.
var taskFieldSpec = []struct {
	name     string
	required bool
}{
	{name: "title", required: true},
	{name: "description", required: false},
	{name: "status", required: true},
}

// decodeTaskFields reads a create/update body. On failure the returned issues
// describe every offending field and the store must not be touched.
func decodeTaskFields(r *http.Request) (tasks.Fields, []validationIssue) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return tasks.Fields{}, []validationIssue{bodyIssue("could not read request body", "value_error.body")}
	}
	if len(body) > maxBodyBytes {
		return tasks.Fields{}, []validationIssue{bodyIssue("request body too large", "value_error.body")}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return tasks.Fields{}, []validationIssue{bodyIssue("field required", "value_error.missing")}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return tasks.Fields{}, []validationIssue{bodyIssue("invalid JSON: "+syntaxErr.Error(), "value_error.jsondecode")}
		}
		return tasks.Fields{}, []validationIssue{bodyIssue("value is not a valid dict", "type_error.dict")}
	}
	if raw == nil {
		return tasks.Fields{}, []validationIssue{bodyIssue("value is not a valid dict", "type_error.dict")}
	}

	values := make(map[string]string, len(taskFieldSpec))
	var issues []validationIssue
	for _, spec := range taskFieldSpec {
		v, ok := raw[spec.name]
		if !ok {
			if spec.required {
				issues = append(issues, fieldIssue(spec.name, "field required", "value_error.missing"))
			}
			continue
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			issues = append(issues, fieldIssue(spec.name, "none is not an allowed value", "type_error.none.not_allowed"))
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			issues = append(issues, fieldIssue(spec.name, "str type expected", "type_error.str"))
			continue
		}
		values[spec.name] = s
	}
	if len(issues) > 0 {
		return tasks.Fields{}, issues
	}
	return tasks.Fields{
		Title:       values["title"],
		Description: values["description"],
		Status:      values["status"],
	}, nil
}

func bodyIssue(msg, typ string) validationIssue {
	return validationIssue{Loc: []string{"body"}, Msg: msg, Type: typ}
}

func fieldIssue(field, msg, typ string) validationIssue {
	return validationIssue{Loc: []string{"body", field}, Msg: msg, Type: typ}
}
