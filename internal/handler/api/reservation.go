package api

import (
	"io"
	"net/http"

	reqdto "spotwise/internal/handler/dto/request"
	resdto "spotwise/internal/handler/dto/response"
	"spotwise/internal/handler/middleware"
	"spotwise/internal/pkg/errs"
	"spotwise/internal/usecase"

	"github.com/gin-gonic/gin"
)

// proof-of-payment uploads are phone camera shots; anything larger than
// this is rejected before buffering.
const maxProofImageBytes = 10 << 20

type ReservationHandler struct {
	reservationUseCase usecase.ReservationUseCase
}

func NewReservationHandler(reservationUseCase usecase.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{
		reservationUseCase: reservationUseCase,
	}
}

// @Summary Reserve a slot
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body reqdto.ReserveRequest true "Reserve request"
// @Success 201 {object} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req reqdto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	snap, err := h.reservationUseCase.Reserve(c.Request.Context(), middleware.UserEmail(c), req.Facility, req.SlotNumber)
	if err != nil {
		switch {
		case errs.Is(err, errs.ErrReservationExists):
			c.JSON(http.StatusConflict, gin.H{"error": "You already have an active reservation"})
		case errs.Is(err, errs.ErrSlotOccupied):
			c.JSON(http.StatusConflict, gin.H{"error": "Slot is currently occupied"})
		case errs.Is(err, errs.ErrNoSlotSelected), errs.Is(err, errs.ErrUnknownSlot):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Select a valid slot"})
		case errs.Is(err, errs.ErrFacilityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Facility not found"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Reservation could not be saved"})
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.NewReservationResponse(snap))
}

// @Summary Current reservation
// @Tags reservations
// @Produce json
// @Success 200 {object} resdto.ReservationResponse
// @Router /reservations/current [get]
func (h *ReservationHandler) Current(c *gin.Context) {
	snap := h.reservationUseCase.Current(c.Request.Context())
	c.JSON(http.StatusOK, resdto.NewReservationResponse(snap))
}

// @Summary Cancel the current reservation
// @Tags reservations
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/current [delete]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	err := h.reservationUseCase.Cancel(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		switch {
		case errs.Is(err, errs.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No reservation to cancel"})
		case errs.Is(err, errs.ErrSlotOccupied):
			c.JSON(http.StatusConflict, gin.H{"error": "Cannot cancel while the slot is occupied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation cancelled"})
}

// @Summary Submit proof of payment
// @Tags reservations
// @Accept mpfd
// @Produce json
// @Param image formData file true "Proof-of-payment image"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /reservations/current/payment [post]
func (h *ReservationHandler) SubmitPayment(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Proof-of-payment image required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxProofImageBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxProofImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image payload"})
		return
	}

	snap, err := h.reservationUseCase.SubmitPayment(c.Request.Context(), middleware.UserEmail(c), data)
	if err != nil {
		switch {
		case errs.Is(err, errs.ErrReservationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No reservation to pay for"})
		case errs.Is(err, errs.ErrUploadFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Image upload failed, try again"})
		case errs.Is(err, errs.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "Reservation is not payable in its current state"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.NewReservationResponse(snap))
}
