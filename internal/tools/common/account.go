package common

import (
	"fmt"
	"strings"
	"time"
)

// GetAccountFromArgs returns the "account" argument, or fallback when the
// argument is missing or empty.
func GetAccountFromArgs(args map[string]interface{}, fallback string) string {
	if accountVal, ok := args["account"].(string); ok && strings.TrimSpace(accountVal) != "" {
		return strings.TrimSpace(accountVal)
	}
	return fallback
}

// RequiredString returns a non-empty string argument.
func RequiredString(args map[string]interface{}, name string) (string, error) {
	val, ok := args[name].(string)
	if !ok || strings.TrimSpace(val) == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return strings.TrimSpace(val), nil
}

// RequiredTime parses an RFC3339 argument.
func RequiredTime(args map[string]interface{}, name string) (time.Time, error) {
	val, err := RequiredString(args, name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format: %w", name, err)
	}
	return t, nil
}

// OptionalStringList accepts a single string or an array of strings. A
// missing argument yields an empty list; empty items are rejected.
func OptionalStringList(args map[string]interface{}, name string) ([]string, error) {
	param, ok := args[name]
	if !ok || param == nil {
		return nil, nil
	}

	switch v := param.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%s cannot be empty", name)
		}
		return []string{strings.TrimSpace(v)}, nil
	case []interface{}:
		result := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", name, i)
			}
			if strings.TrimSpace(str) == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", name, i)
			}
			result = append(result, strings.TrimSpace(str))
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", name)
	}
}
