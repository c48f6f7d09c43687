package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPrecondition    = errors.New("deployment precondition not met")
	ErrNotValidated    = fmt.Errorf("%w: version has not passed validation", ErrPrecondition)
	ErrFilesNotStored  = fmt.Errorf("%w: version files have not been stored", ErrPrecondition)
	ErrBuildSubmission = errors.New("build submission failed")
)
