package config

import (
	"fmt"
	"regexp"
)

// subredditName matches a bare subreddit name without the r/ prefix.
var subredditName = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRequired checks that a string field is not empty.
func ValidateRequired(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidateSubreddit checks that value is a bare subreddit name.
func ValidateSubreddit(field, value string) error {
	if !subredditName.MatchString(value) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is not a valid subreddit name", value)}
	}
	return nil
}
