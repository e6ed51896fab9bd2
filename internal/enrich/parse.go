package enrich

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/helixir/paper-swipe-service/internal/domain"
)

// wrapperKeys are object keys models use to wrap the annotation array.
var wrapperKeys = []string{"papers", "results", "items", "annotations"}

// looseString accepts a JSON string or a bare scalar such as a number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}
	*s = looseString(data)
	return nil
}

// tagList accepts either an array of strings or one comma-separated string.
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*t = strings.Split(joined, ",")
	return nil
}

type annotationEntry struct {
	ID         looseString `json:"id"`
	AbstractZH string      `json:"abstract_zh"`
	TLDR       string      `json:"tldr"`
	Tags       tagList     `json:"tags"`
}

// ParseAnnotations extracts annotations keyed by paper id from model output.
// It strips markdown code fences and accepts a bare array, an object
// wrapping the array, or a single object. Prose around the JSON may contain
// brackets; each candidate position is tried in order and the first one
// yielding annotations wins. Entries that do not decode, lack an id, or
// carry no text are skipped. An error means no JSON could be decoded.
func ParseAnnotations(content string) (map[string]domain.Annotation, error) {
	s := stripCodeFences(strings.TrimSpace(content))

	var (
		out      map[string]domain.Annotation
		firstErr error
	)
	for i := 0; i < len(s); i++ {
		raw, ok, err := decodeJSONAt(s, i)
		switch {
		case !ok:
			continue
		case err != nil:
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = annotationsFrom(raw)
		if len(out) > 0 {
			return out, nil
		}
	}

	switch {
	case out != nil:
		return out, nil
	case firstErr != nil:
		return nil, domain.NewMalformedResponseError("llm", firstErr.Error())
	default:
		return nil, domain.NewMalformedResponseError("llm", "no JSON found in response")
	}
}

func annotationsFrom(raw json.RawMessage) map[string]domain.Annotation {
	var items []json.RawMessage
	switch raw[0] {
	case '[':
		_ = json.Unmarshal(raw, &items)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			items = unwrapObject(raw, obj)
		}
	}

	out := make(map[string]domain.Annotation, len(items))
	for _, item := range items {
		var e annotationEntry
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		id := strings.TrimSpace(string(e.ID))
		abstractZH := strings.TrimSpace(e.AbstractZH)
		tldr := strings.TrimSpace(e.TLDR)
		if id == "" || (abstractZH == "" && tldr == "") {
			continue
		}
		if _, dup := out[id]; dup {
			continue
		}
		out[id] = domain.Annotation{
			AbstractZH: abstractZH,
			TLDR:       tldr,
			Tags:       cleanTags(e.Tags),
		}
	}
	return out
}

func unwrapObject(raw json.RawMessage, obj map[string]json.RawMessage) []json.RawMessage {
	for _, key := range wrapperKeys {
		inner, ok := obj[key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(inner, &items); err == nil {
			return items
		}
	}
	if _, ok := obj["id"]; ok {
		return []json.RawMessage{raw}
	}
	return nil
}

// decodeJSONAt decodes the array or object starting at s[i]. ok is false
// when s[i] opens neither. Trailing text after the value is ignored.
func decodeJSONAt(s string, i int) (raw json.RawMessage, ok bool, err error) {
	if s[i] != '[' && s[i] != '{' {
		return nil, false, nil
	}
	if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err != nil {
		return nil, true, err
	}
	return raw, true, nil
}

func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// cleanTags trims, drops empties and duplicates, and keeps at most MaxTags.
func cleanTags(tags []string) []string {
	out := make([]string, 0, MaxTags)
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
