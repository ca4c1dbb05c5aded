package usecase

import "errors"

var ErrNotificationNotFound = errors.New("notification not found")
