package api

import (
	"errors"
	"net/http"

	resdto "spotwise/internal/handler/dto/response"
	"spotwise/internal/pkg/errs"
	"spotwise/internal/usecase"

	"github.com/gin-gonic/gin"
)

type EstablishmentHandler struct {
	establishmentUseCase usecase.EstablishmentUseCase
}

func NewEstablishmentHandler(establishmentUseCase usecase.EstablishmentUseCase) *EstablishmentHandler {
	return &EstablishmentHandler{
		establishmentUseCase: establishmentUseCase,
	}
}

// @Summary List establishments
// @Tags establishments
// @Produce json
// @Success 200 {array} resdto.EstablishmentResponse
// @Router /establishments [get]
func (h *EstablishmentHandler) List(c *gin.Context) {
	facilities, err := h.establishmentUseCase.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	out := make([]resdto.EstablishmentResponse, 0, len(facilities))
	for _, f := range facilities {
		out = append(out, resdto.NewEstablishmentResponse(f))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Floor and slot view of one establishment
// @Tags establishments
// @Produce json
// @Param name path string true "Management name"
// @Success 200 {object} resdto.SlotsResponse
// @Failure 404 {object} map[string]string
// @Router /establishments/{name}/slots [get]
func (h *EstablishmentHandler) Slots(c *gin.Context) {
	f, err := h.establishmentUseCase.Slots(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, errs.ErrFacilityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Establishment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resdto.SlotsResponse{
		ManagementName: f.ManagementName,
		ParkingPay:     f.ParkingPay,
		Floors:         f.Floors,
	})
}
