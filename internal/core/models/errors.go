package models

import "errors"

var (
	ErrForeignComponent = errors.New("component belongs to another entity")
	ErrNilComponent     = errors.New("component is nil")
	ErrEntityExists     = errors.New("entity already exists")
	ErrEntityDestroyed  = errors.New("entity is destroyed")
)
