package handlers

import (
	"errors"
	"field-verify/internal/farms"
	"field-verify/internal/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Farms beyond this are not worth listing for an official on foot.
const maxNearbyRadiusMeters = 50000

type FarmHandler struct {
	registry *farms.Registry
}

func NewFarmHandler(registry *farms.Registry) *FarmHandler {
	return &FarmHandler{registry: registry}
}

type nearbyQuery struct {
	Lat    float64 `form:"lat" binding:"min=-90,max=90"`
	Lon    float64 `form:"lon" binding:"min=-180,max=180"`
	Radius float64 `form:"radius"`
}

func (h *FarmHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/farms/nearby", h.Nearby)
	r.GET("/farms/:id", h.GetFarmByID)
}

func (h *FarmHandler) GetFarmByID(c *gin.Context) {
	farm, err := h.registry.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, farms.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	if c.Query("format") == "geojson" {
		feature, err := farms.ToGeoJSON(farm)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
			return
		}
		c.Data(http.StatusOK, "application/geo+json", feature)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(farm))
}

func (h *FarmHandler) Nearby(c *gin.Context) {
	if c.Query("lat") == "" || c.Query("lon") == "" {
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", "lat and lon are required")
		return
	}

	var q nearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if q.Radius <= 0 {
		q.Radius = 1000
	}
	if q.Radius > maxNearbyRadiusMeters {
		q.Radius = maxNearbyRadiusMeters
	}

	found := h.registry.Nearby(models.Coordinate{Lat: q.Lat, Lon: q.Lon}, q.Radius)
	if found == nil {
		found = []models.NearbyFarm{}
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(gin.H{
		"radius_m": q.Radius,
		"farms":    found,
	}))
}
