package service

import (
	"context"
	"medreminder/internal/application/dto"
	"medreminder/internal/domain/entity"
)

// DeviceService manages the delivery targets reminders are pushed to.
type DeviceService interface {
	Register(ctx context.Context, ownerID string, req dto.DeviceRequest) (*entity.Device, error)
	Unregister(ctx context.Context, ownerID string, req dto.DeviceRequest) error
	List(ctx context.Context, ownerID string) ([]*entity.Device, error)
}
