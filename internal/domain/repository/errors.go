package repository

import "errors"

// ErrNotFound is returned (wrapped) by repositories when a document does not exist.
var ErrNotFound = errors.New("record not found")
