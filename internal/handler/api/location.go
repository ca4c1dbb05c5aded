package api

import (
	"context"
	"net/http"
	"time"

	reqdto "spotwise/internal/handler/dto/request"
	resdto "spotwise/internal/handler/dto/response"
	"spotwise/internal/location"

	"github.com/gin-gonic/gin"
)

// A waiting GET blocks at most this long for a first reading before
// falling back to the city-center defaults.
const positionWaitTimeout = 10 * time.Second

type LocationHandler struct {
	store *location.Store
}

func NewLocationHandler(store *location.Store) *LocationHandler {
	return &LocationHandler{store: store}
}

// @Summary Current position
// @Description Last reported position, or defaults until one exists.
// @Tags location
// @Produce json
// @Param wait query bool false "Block until a reading is available"
// @Success 200 {object} resdto.LocationResponse
// @Router /location [get]
func (h *LocationHandler) Get(c *gin.Context) {
	coord, resolved := h.store.Current()

	if !resolved && c.Query("wait") == "true" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), positionWaitTimeout)
		defer cancel()

		awaited, err := location.Await(ctx, location.ProviderFunc(
			func(context.Context) (location.Coordinates, bool, error) {
				cur, ok := h.store.Current()
				return cur, ok, nil
			}), h.store)
		if err == nil {
			coord, resolved = awaited, true
		}
	}

	c.JSON(http.StatusOK, resdto.LocationResponse{
		Lat:      coord.Lat,
		Lng:      coord.Lng,
		Resolved: resolved,
	})
}

// @Summary Report the device position
// @Tags location
// @Accept json
// @Produce json
// @Param request body reqdto.LocationRequest true "Position"
// @Success 200 {object} resdto.LocationResponse
// @Failure 400 {object} map[string]string
// @Router /location [put]
func (h *LocationHandler) Put(c *gin.Context) {
	var req reqdto.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid position"})
		return
	}

	h.store.Set(location.Coordinates{Lat: *req.Lat, Lng: *req.Lng})
	c.JSON(http.StatusOK, resdto.LocationResponse{
		Lat:      *req.Lat,
		Lng:      *req.Lng,
		Resolved: true,
	})
}
