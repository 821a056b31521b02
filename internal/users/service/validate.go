package service

import "strings"

// ValidationError is a rejected request body; its message is safe to
// return to the client.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// userFields are the recognized mutable fields of a user.
var userFields = []string{"firstname", "lastname"}

// ValidateUserData checks a decoded request body against the optional
// required field set. Fields from userFields that are present must be
// non-empty strings after trimming, required or not.
func ValidateUserData(data map[string]interface{}, requiredFields ...string) error {
	if len(data) == 0 {
		return ValidationError("No data provided")
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := data[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return ValidationError("Missing required fields: " + strings.Join(missing, ", "))
	}

	for _, field := range userFields {
		value, ok := data[field]
		if !ok {
			continue
		}
		s, isString := value.(string)
		if !isString || strings.TrimSpace(s) == "" {
			return ValidationError(field + " must be a non-empty string")
		}
	}

	return nil
}
