package storage

import (
	"errors"
	"fmt"

	cerrors "github.com/canonica-labs/esql/internal/errors"
)

// ErrProfileNotFound is returned (wrapped) when a profile does not exist.
var ErrProfileNotFound = errors.New("profile not found")

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

func alreadyExists(name string) error {
	return cerrors.NewValidation("add profile", "name",
		fmt.Sprintf("profile %q already exists", name), "remove it first or pick another name")
}

func invalidProfile(op string, err error) error {
	return cerrors.NewValidation(op, "profile", err.Error(), "")
}
