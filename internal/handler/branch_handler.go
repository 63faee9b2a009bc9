package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/pkg/location"

	"github.com/gin-gonic/gin"
)

type BranchSearcher interface {
	Search(f repository.BranchFilters, now time.Time) ([]repository.BranchResult, error)
}

type BranchHandler struct {
	branches BranchSearcher
	now      func() time.Time
}

func NewBranchHandler(branches BranchSearcher) *BranchHandler {
	return &BranchHandler{branches: branches, now: time.Now}
}

// List serves GET /api/v1/branches?lat&lng&radius_km&vertical&open_now&q for every vertical.
func (h *BranchHandler) List(c *gin.Context) {
	f := repository.BranchFilters{
		Vertical: strings.ToUpper(strings.TrimSpace(c.Query("vertical"))),
		Query:    c.Query("q"),
		OpenNow:  c.Query("open_now") == "true" || c.Query("open_now") == "1",
	}
	if f.Vertical != "" && !validVertical(f.Vertical) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vertical must be one of " + strings.Join(domain.Verticals, ", ")})
		return
	}
	if latStr, lngStr := c.Query("lat"), c.Query("lng"); latStr != "" || lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat/lng"})
			return
		}
		f.Latitude, f.Longitude, f.HasLocation = lat, lng, true
		f.RadiusKm = 10
		if r := c.Query("radius_km"); r != "" {
			radius, err := strconv.ParseFloat(r, 64)
			if err != nil || radius <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius_km"})
				return
			}
			f.RadiusKm = radius
		}
	}
	f.Limit, f.Offset = paging(c)

	results, err := h.branches.Search(f, h.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	out := make([]gin.H, 0, len(results))
	for _, r := range results {
		item := gin.H{"branch": r.Branch, "is_open": r.IsOpen}
		if r.DistanceKm >= 0 {
			item["distance_km"] = location.RoundKm(r.DistanceKm)
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"branches": out, "radius_options_km": domain.SearchRadiusKm})
}

func validVertical(v string) bool {
	for _, x := range domain.Verticals {
		if x == v {
			return true
		}
	}
	return false
}
