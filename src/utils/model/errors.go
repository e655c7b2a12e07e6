package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotFound             = errors.New("not found")
	ErrDuplicateApplication = errors.New("user already applied to this job")
	ErrNoApprovedApplicant  = errors.New("no approved applicant")
	ErrAlreadyApproved      = errors.New("another applicant is already approved")
	ErrAlreadyComplete      = errors.New("job already complete")
	ErrAlreadyFinalized     = errors.New("job already finalized")
	ErrInvalidTransition    = errors.New("invalid application status transition")
	ErrConflict             = errors.New("concurrent modification")
	ErrSettlement           = errors.New("settlement failed")
	ErrInvalidExternalId    = fmt.Errorf("%w: invalid external job id", ErrSettlement)
)

// Lists every missing or invalid field of a request
type ValidationError struct {
	Message string
	Fields  []string
}

func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func (self *ValidationError) Error() string {
	if len(self.Fields) == 0 {
		return self.Message
	}
	return self.Message + ": " + strings.Join(self.Fields, ", ")
}

func (self *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (self *ValidationError) MissingFields() []string {
	return self.Fields
}

// Collects fields that failed validation
type Validator struct {
	message string
	fields  []string
}

func NewValidator(message string) *Validator {
	return &Validator{message: message}
}

// Marks field as invalid when ok is false
func (self *Validator) Check(ok bool, field string) *Validator {
	if !ok {
		self.fields = append(self.fields, field)
	}
	return self
}

func (self *Validator) Required(value string, field string) *Validator {
	return self.Check(strings.TrimSpace(value) != "", field)
}

func (self *Validator) Err() error {
	if len(self.fields) == 0 {
		return nil
	}
	return NewValidationError(self.message, self.fields...)
}
