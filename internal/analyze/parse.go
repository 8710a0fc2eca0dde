package analyze

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/sells-group/item-dedupe/internal/model"
)

// ParseDuplicates decodes an extracted payload. The payload must be a JSON
// object whose "duplicates" member is an array.
func ParseDuplicates(payload string) (model.DuplicateResult, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return model.DuplicateResult{}, &ResponseParseError{Raw: payload, Reason: "invalid JSON", Err: err}
	}

	raw, ok := probe["duplicates"]
	if !ok {
		return model.DuplicateResult{}, &ResponseParseError{Raw: payload, Reason: `missing "duplicates"`}
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return model.DuplicateResult{}, &ResponseParseError{Raw: payload, Reason: `"duplicates" is not an array`}
	}

	var result model.DuplicateResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return model.DuplicateResult{}, &ResponseParseError{Raw: payload, Reason: "unexpected duplicate shape", Err: err}
	}
	if result.Duplicates == nil {
		result.Duplicates = []model.DuplicateGroup{}
	}
	return result, nil
}

// Decode runs ExtractPayload then ParseDuplicates on a full model reply.
// A *ResponseParseError from either step carries the full reply as Raw.
func Decode(text string) (model.DuplicateResult, error) {
	payload, err := ExtractPayload(text)
	if err == nil {
		result, perr := ParseDuplicates(payload)
		if perr == nil {
			return result, nil
		}
		err = perr
	}

	var pe *ResponseParseError
	if errors.As(err, &pe) {
		pe.Raw = text
	}
	return model.DuplicateResult{}, err
}
