package repository

import (
	"sort"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/pkg/hours"
	"storefront/pkg/location"

	"gorm.io/gorm"
)

// BranchFilters for the storefront browse lists.
type BranchFilters struct {
	Latitude    float64
	Longitude   float64
	HasLocation bool
	RadiusKm    float64
	Vertical    string // RESTAURANT, GROCERY, PHARMACY; empty = all
	Query       string // matched against shop and branch name
	OpenNow     bool
	Limit       int
	Offset      int
}

type BranchResult struct {
	Branch     models.Branch
	DistanceKm float64 // -1 when no customer location was given
	IsOpen     bool
}

type BranchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) *BranchRepository {
	return &BranchRepository{db: db}
}

func (r *BranchRepository) Create(b *models.Branch) error {
	return r.db.Create(b).Error
}

func (r *BranchRepository) GetByID(id uint) (*models.Branch, error) {
	var b models.Branch
	err := r.db.First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Search pre-filters in SQL (vertical, name, bounding box) and finishes with FilterBranches.
func (r *BranchRepository) Search(f BranchFilters, now time.Time) ([]BranchResult, error) {
	query := r.db.Model(&models.Branch{}).Where("is_active = ?", true)
	if f.Vertical != "" {
		query = query.Where("vertical = ?", f.Vertical)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR shop_name LIKE ?", like, like)
	}
	if f.HasLocation && f.RadiusKm > 0 {
		latMin, latMax, lngMin, lngMax := location.BoundingBox(f.Latitude, f.Longitude, f.RadiusKm)
		query = query.Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?", latMin, latMax, lngMin, lngMax)
	}
	var list []models.Branch
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return FilterBranches(list, f, now), nil
}

// FilterBranches applies the browse filters in memory and sorts by distance (then name).
// Shared by every vertical's listing.
func FilterBranches(list []models.Branch, f BranchFilters, now time.Time) []BranchResult {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]BranchResult, 0, len(list))
	for _, b := range list {
		if !b.IsActive {
			continue
		}
		if f.Vertical != "" && !strings.EqualFold(b.Vertical, f.Vertical) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(b.Name), q) && !strings.Contains(strings.ToLower(b.ShopName), q) {
			continue
		}
		res := BranchResult{Branch: b, DistanceKm: -1, IsOpen: hours.IsOpen(b.OpeningHours, now)}
		if f.OpenNow && !res.IsOpen {
			continue
		}
		if f.HasLocation {
			res.DistanceKm = location.HaversineKm(f.Latitude, f.Longitude, b.Latitude, b.Longitude)
			if f.RadiusKm > 0 && res.DistanceKm > f.RadiusKm {
				continue
			}
		}
		out = append(out, res)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsOpen != out[j].IsOpen {
			return out[i].IsOpen
		}
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Branch.Name < out[j].Branch.Name
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []BranchResult{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}
