package request

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type ReserveRequest struct {
	Facility   string `json:"facility" binding:"required"`
	SlotNumber int    `json:"slotNumber" binding:"required,min=1"`
}

// Pointers so a literal 0 coordinate (valid) is distinguishable from a
// missing field.
type LocationRequest struct {
	Lat *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lng *float64 `json:"lng" binding:"required,min=-180,max=180"`
}
