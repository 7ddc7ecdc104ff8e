package service

import (
	"context"
	"fmt"
	"medreminder/internal/application/dto"
	"medreminder/internal/domain/constant"
	"medreminder/internal/domain/entity"
	"medreminder/internal/domain/repository"
	appErrors "medreminder/internal/pkg/errors"
	"medreminder/internal/pkg/logger"
	"strings"
)

type deviceService struct {
	deviceRepo repository.DeviceRepository
	enabled    map[constant.Provider]bool
	log        logger.Logger
}

// NewDeviceService creates a new instance of DeviceService. Only devices on
// one of the enabled providers can be registered.
func NewDeviceService(deviceRepo repository.DeviceRepository, enabled []constant.Provider, log logger.Logger) DeviceService {
	set := make(map[constant.Provider]bool, len(enabled))
	for _, p := range enabled {
		set[p] = true
	}
	return &deviceService{deviceRepo: deviceRepo, enabled: set, log: log}
}

func (s *deviceService) parse(req dto.DeviceRequest) (constant.Provider, string, error) {
	provider := constant.Provider(strings.ToLower(strings.TrimSpace(req.Provider)))
	if !provider.Valid() {
		return "", "", appErrors.NewValidationError("provider", fmt.Sprintf("unknown provider %q", req.Provider))
	}
	if !s.enabled[provider] {
		return "", "", appErrors.NewValidationError("provider", fmt.Sprintf("%s is not configured on this server", provider))
	}
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return "", "", appErrors.NewValidationError("target", "must not be empty")
	}
	return provider, target, nil
}

// Register stores a device. Registering the same target twice returns the existing device.
func (s *deviceService) Register(ctx context.Context, ownerID string, req dto.DeviceRequest) (*entity.Device, error) {
	provider, target, err := s.parse(req)
	if err != nil {
		return nil, err
	}

	device := &entity.Device{OwnerID: ownerID, Provider: provider, Target: target}
	if err := s.deviceRepo.Upsert(ctx, device); err != nil {
		s.log.Error(fmt.Sprintf("Failed to register %s device for owner %s", provider, ownerID), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrPersistence, err)
	}
	s.log.Info(fmt.Sprintf("Registered %s device %s for owner %s", provider, device.ID, ownerID))
	return device, nil
}

func (s *deviceService) Unregister(ctx context.Context, ownerID string, req dto.DeviceRequest) error {
	provider := constant.Provider(strings.ToLower(strings.TrimSpace(req.Provider)))
	if !provider.Valid() {
		return appErrors.NewValidationError("provider", fmt.Sprintf("unknown provider %q", req.Provider))
	}
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return appErrors.NewValidationError("target", "must not be empty")
	}

	if err := s.deviceRepo.Delete(ctx, ownerID, provider, target); err != nil {
		s.log.Error(fmt.Sprintf("Failed to remove %s device for owner %s", provider, ownerID), err)
		return fmt.Errorf("%w: %v", appErrors.ErrPersistence, err)
	}
	s.log.Info(fmt.Sprintf("Removed %s device for owner %s", provider, ownerID))
	return nil
}

func (s *deviceService) List(ctx context.Context, ownerID string) ([]*entity.Device, error) {
	devices, err := s.deviceRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to list devices of owner %s", ownerID), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrPersistence, err)
	}
	return devices, nil
}
