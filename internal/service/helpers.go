package service

import (
	"errors"

	"github.com/sayu/sayu-backend/internal/apperr"
)

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
