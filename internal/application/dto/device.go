package dto

import "medreminder/internal/domain/entity"

// DeviceRequest is the DTO for registering or removing a delivery target.
type DeviceRequest struct {
	Provider string `json:"provider"`
	Target   string `json:"target"`
}

// DeviceResponse is the DTO for listing devices.
type DeviceResponse struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Target   string `json:"target"`
}

// ToDeviceResponse converts an entity.Device to a DeviceResponse DTO.
func ToDeviceResponse(d *entity.Device) DeviceResponse {
	return DeviceResponse{ID: d.ID, Provider: string(d.Provider), Target: d.Target}
}

// ToDeviceResponseList converts devices to DeviceResponse DTOs.
func ToDeviceResponseList(devices []*entity.Device) []DeviceResponse {
	list := make([]DeviceResponse, len(devices))
	for i, d := range devices {
		list[i] = ToDeviceResponse(d)
	}
	return list
}
