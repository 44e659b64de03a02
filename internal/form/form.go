// Package form decodes recruiter form submissions into match queries.
package form

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vijay-prabhu/talentmatch/internal/match"
)

// Form field names
const (
	FieldRole                = "role"
	FieldRequiredSkills      = "required_tech_skills"
	FieldRequiredSpecialties = "required_specialties"
	FieldJoinedAfter         = "joined_after"
	FieldMember              = "member"
	FieldExcludeUnavailable  = "exclude_unavailable"
	FieldExcludeUnknown      = "exclude_unknown"
	FieldDesiredSkills       = "desired_tech_skills"
	FieldDesiredSpecialties  = "desired_specialties"
	FieldDesiredExperience   = "desired_experience"

	// FieldSelectionKeys carries an encoded query in export and save forms
	FieldSelectionKeys = "selection_keys"

	fieldCSRF = "csrfmiddlewaretoken"
)

// FieldError reports a form value that could not be decoded
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// clean strips embedded newlines from every value and drops the CSRF token
func clean(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, vs := range values {
		if key == fieldCSRF {
			continue
		}
		cleaned := make([]string, 0, len(vs))
		for _, v := range vs {
			v = strings.ReplaceAll(v, "\r", "")
			cleaned = append(cleaned, strings.ReplaceAll(v, "\n", ""))
		}
		out[key] = cleaned
	}
	return out
}

// Parse decodes submitted form values into a query. Multi-valued fields may
// repeat the key; scalar fields use their first value. Unknown keys are
// ignored. The joined_after date is not validated here.
func Parse(values url.Values) (match.Query, error) {
	v := clean(values)
	var q match.Query
	var err error

	if q.Roles, err = ids(v, FieldRole); err != nil {
		return match.Query{}, err
	}
	if q.RequiredSkills, err = ids(v, FieldRequiredSkills); err != nil {
		return match.Query{}, err
	}
	if q.DesiredSkills, err = ids(v, FieldDesiredSkills); err != nil {
		return match.Query{}, err
	}
	if q.DesiredExperience, err = ids(v, FieldDesiredExperience); err != nil {
		return match.Query{}, err
	}
	q.RequiredSpecialties = names(v, FieldRequiredSpecialties)
	q.DesiredSpecialties = names(v, FieldDesiredSpecialties)
	q.JoinedAfter = strings.TrimSpace(v.Get(FieldJoinedAfter))

	if q.MemberOnly, err = checkbox(v, FieldMember); err != nil {
		return match.Query{}, err
	}
	if q.ExcludeUnavailable, err = checkbox(v, FieldExcludeUnavailable); err != nil {
		return match.Query{}, err
	}
	if q.ExcludeUnknown, err = checkbox(v, FieldExcludeUnknown); err != nil {
		return match.Query{}, err
	}

	return q.Normalize(), nil
}

// ids parses every non-blank value of key as an int64
func ids(v url.Values, key string) ([]int64, error) {
	var out []int64
	for _, s := range v[key] {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &FieldError{Field: key, Value: s, Err: err}
		}
		out = append(out, id)
	}
	return out, nil
}

func names(v url.Values, key string) []string {
	var out []string
	for _, s := range v[key] {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// checkbox parses the first value of key. An absent key is false.
func checkbox(v url.Values, key string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(v.Get(key)))
	switch s {
	case "on", "true", "1", "yes":
		return true, nil
	case "", "off", "false", "0", "no":
		return false, nil
	default:
		return false, &FieldError{Field: key, Value: s, Err: fmt.Errorf("not a boolean")}
	}
}

// Encode returns form values that Parse decodes back into q
func Encode(q match.Query) url.Values {
	q = q.Normalize()
	v := url.Values{}

	addIDs := func(key string, ids []int64) {
		for _, id := range ids {
			v.Add(key, strconv.FormatInt(id, 10))
		}
	}
	addIDs(FieldRole, q.Roles)
	addIDs(FieldRequiredSkills, q.RequiredSkills)
	addIDs(FieldDesiredSkills, q.DesiredSkills)
	addIDs(FieldDesiredExperience, q.DesiredExperience)

	for _, s := range q.RequiredSpecialties {
		v.Add(FieldRequiredSpecialties, s)
	}
	for _, s := range q.DesiredSpecialties {
		v.Add(FieldDesiredSpecialties, s)
	}
	if q.JoinedAfter != "" {
		v.Set(FieldJoinedAfter, q.JoinedAfter)
	}
	if q.MemberOnly {
		v.Set(FieldMember, "on")
	}
	if q.ExcludeUnavailable {
		v.Set(FieldExcludeUnavailable, "on")
	}
	if q.ExcludeUnknown {
		v.Set(FieldExcludeUnknown, "on")
	}
	return v
}

// ParseSelectionKeys decodes a selection_keys payload. It accepts either an
// encoded match.Query or the submitted form data serialized as a JSON
// object, where each value is a string, a number, a boolean or a list.
func ParseSelectionKeys(s string) (match.Query, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return match.Query{}, &FieldError{Field: FieldSelectionKeys, Value: s, Err: err}
	}

	values := url.Values{}
	for key, val := range raw {
		items, ok := val.([]any)
		if !ok {
			items = []any{val}
		}
		for _, it := range items {
			str, err := scalar(it)
			if err != nil {
				return match.Query{}, &FieldError{Field: key, Value: fmt.Sprint(it), Err: err}
			}
			values.Add(key, str)
		}
	}

	return Parse(values)
}

func scalar(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
