// Package validation checks profile form input before it reaches the store.
package validation

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"littlesteps/internal/models"
)

var photoRegex = regexp.MustCompile(`^data:image/(png|jpe?g|gif|webp);base64,([A-Za-z0-9+/=]+)$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors collects every failed field of a form
type Errors []ValidationError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// Field returns the message for field, or ""
func (e Errors) Field(field string) string {
	for _, ve := range e {
		if ve.Field == field {
			return ve.Message
		}
	}
	return ""
}

// MissingRequired reports whether any required field was left blank
func (e Errors) MissingRequired() bool {
	for _, ve := range e {
		if strings.HasSuffix(ve.Message, "is required") {
			return true
		}
	}
	return false
}

// ValidateName checks the child's name is present
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) > 100 {
		return ValidationError{Field: "name", Message: "name must be at most 100 characters"}
	}
	return nil
}

// ValidateAge checks the free-text age is present
func ValidateAge(age string) error {
	if strings.TrimSpace(age) == "" {
		return ValidationError{Field: "age", Message: "age is required"}
	}
	if len(age) > 50 {
		return ValidationError{Field: "age", Message: "age must be at most 50 characters"}
	}
	return nil
}

// ValidateGender checks the raw value is one of the accepted genders
func ValidateGender(gender string) (models.Gender, error) {
	g, err := models.ParseGender(gender)
	if err != nil {
		return "", ValidationError{Field: "gender", Message: "gender must be male, female or other"}
	}
	return g, nil
}

// ValidateDateOfBirth accepts an empty value or a YYYY-MM-DD date not in the future
func ValidateDateOfBirth(dob string, now time.Time) error {
	if dob == "" {
		return nil
	}
	d, err := time.Parse(time.DateOnly, dob)
	if err != nil {
		return ValidationError{Field: "dateOfBirth", Message: "date of birth must be YYYY-MM-DD"}
	}
	if d.After(now) {
		return ValidationError{Field: "dateOfBirth", Message: "date of birth cannot be in the future"}
	}
	return nil
}

// ValidatePhoto accepts an empty value or a base64 image data URL whose
// decoded size is within maxBytes
func ValidatePhoto(photo string, maxBytes int64) error {
	if photo == "" {
		return nil
	}
	m := photoRegex.FindStringSubmatch(photo)
	if m == nil {
		return ValidationError{Field: "photo", Message: "photo must be a PNG, JPEG, GIF or WebP image"}
	}
	if int64(base64.StdEncoding.DecodedLen(len(m[2]))) > maxBytes+2 {
		return ValidationError{Field: "photo", Message: fmt.Sprintf("photo must be at most %d KB", maxBytes/1024)}
	}
	return nil
}

// ValidateProfile checks every field of in and returns Errors, or nil
func ValidateProfile(in models.ProfileInput, maxPhotoBytes int64, now time.Time) error {
	var errs Errors
	add := func(err error) {
		var ve ValidationError
		if errors.As(err, &ve) {
			errs = append(errs, ve)
		}
	}

	add(ValidateName(in.Name))
	add(ValidateAge(in.Age))
	if _, err := ValidateGender(string(in.Gender)); err != nil {
		add(err)
	}
	add(ValidateDateOfBirth(in.DateOfBirth, now))
	add(ValidatePhoto(in.Photo, maxPhotoBytes))

	if len(errs) == 0 {
		return nil
	}
	return errs
}
