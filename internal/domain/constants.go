package domain

const (
	VerticalRestaurant = "RESTAURANT"
	VerticalGrocery    = "GROCERY"
	VerticalPharmacy   = "PHARMACY"
)

var Verticals = []string{VerticalRestaurant, VerticalGrocery, VerticalPharmacy}

const (
	OrderStatusPlaced    = "PLACED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusPaid      = "PAID"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusAbandoned = "ABANDONED"
)

const ProviderMobileMoney = "mobile_money"

// Search radius options in km
var SearchRadiusKm = []float64{1, 3, 5, 10, 25}
