package response

import (
	"spotwise/internal/domain/facility"
	"spotwise/internal/domain/reservation"
	"spotwise/internal/domain/user"
)

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	User        user.User `json:"user"`
}

type ReservationResponse struct {
	ReservationID  string  `json:"reservationId"`
	Status         string  `json:"status"`
	ManagementName string  `json:"managementName"`
	FloorTitle     string  `json:"floorTitle"`
	SlotNumber     int     `json:"slotNumber"`
	ParkingPay     float64 `json:"parkingPay"`
	ImageURI       string  `json:"imageUri,omitempty"`
}

func NewReservationResponse(snap reservation.Snapshot) ReservationResponse {
	return ReservationResponse{
		ReservationID:  snap.ReservationID,
		Status:         snap.Status.String(),
		ManagementName: snap.ManagementName,
		FloorTitle:     snap.FloorTitle,
		SlotNumber:     snap.SlotNumber,
		ParkingPay:     snap.ParkingPay,
		ImageURI:       snap.ImageURI,
	}
}

type EstablishmentResponse struct {
	ManagementName string  `json:"managementName"`
	ParkingPay     float64 `json:"parkingPay"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	TotalSlots     int     `json:"totalSlots"`
}

func NewEstablishmentResponse(f facility.Facility) EstablishmentResponse {
	return EstablishmentResponse{
		ManagementName: f.ManagementName,
		ParkingPay:     f.ParkingPay,
		Latitude:       f.Latitude,
		Longitude:      f.Longitude,
		TotalSlots:     f.TotalSlots(),
	}
}

type SlotsResponse struct {
	ManagementName string           `json:"managementName"`
	ParkingPay     float64          `json:"parkingPay"`
	Floors         []facility.Floor `json:"floors"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unreadCount"`
}

type LocationResponse struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Resolved bool    `json:"resolved"`
}
