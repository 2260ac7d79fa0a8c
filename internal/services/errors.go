package services

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrMemberNumberTaken    = errors.New("a member with this membership number is already registered")
	ErrEmailTaken           = errors.New("this email address is already in use")
	ErrUsernameTaken        = errors.New("a user with that username already exists")
	ErrAlreadyCompleted     = errors.New("route already completed")
	ErrRouteArchived        = errors.New("route is archived")
	ErrAreaNotFound         = errors.New("area does not exist")
	ErrDeletionNotConfirmed = errors.New("deletion not confirmed")
	ErrConflict             = errors.New("record conflicts with an existing one")
)

// DeleteConfirmation is the literal an admin must type to delete a member.
const DeleteConfirmation = "DELETE"

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
