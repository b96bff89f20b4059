package tools

import (
	"fmt"
	"strings"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/google/uuid"
)

// Args are the decoded JSON arguments of one tool call.
type Args map[string]interface{}

func invalidArg(key, problem string) error {
	return fmt.Errorf("%w: %s %s", authz.ErrToolInputInvalid, key, problem)
}

// String returns a trimmed string argument and whether it was present.
func (a Args) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func (a Args) RequiredString(key string) (string, error) {
	if _, present := a[key]; present {
		if _, isString := a[key].(string); !isString && a[key] != nil {
			return "", invalidArg(key, "must be a string")
		}
	}
	s, ok := a.String(key)
	if !ok {
		return "", invalidArg(key, "is required")
	}
	return s, nil
}

// OptionalString returns nil when the argument is absent or blank.
func (a Args) OptionalString(key string) *string {
	s, ok := a.String(key)
	if !ok {
		return nil
	}
	return &s
}

// ID parses a required uuid argument and returns it in canonical form.
func (a Args) ID(key string) (string, error) {
	s, err := a.RequiredString(key)
	if err != nil {
		return "", err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", invalidArg(key, "is not a valid id")
	}
	return id.String(), nil
}

// OptionalID is like ID but absent or null yields nil.
func (a Args) OptionalID(key string) (*string, error) {
	if _, ok := a.String(key); !ok {
		if v, present := a[key]; present && v != nil {
			if _, isString := v.(string); !isString {
				return nil, invalidArg(key, "must be a string")
			}
		}
		return nil, nil
	}
	id, err := a.ID(key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (a Args) Role(key string) (authz.Role, error) {
	s, err := a.RequiredString(key)
	if err != nil {
		return "", err
	}
	role, err := authz.ParseRoleInput(s)
	if err != nil {
		return "", invalidArg(key, "is not a known role")
	}
	return role, nil
}
