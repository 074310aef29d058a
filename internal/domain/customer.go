package domain

import "time"

// Model feature names in the order the classifier consumes them.
const (
	FeatureRecencyDays       = "recency_days"
	FeatureOrders            = "orders"
	FeatureMonetary          = "monetary"
	FeatureTenureDays        = "tenure_days"
	FeatureAvgDiscount       = "avg_discount"
	FeatureReturnRate        = "return_rate"
	FeatureCategoryDiversity = "category_diversity"
)

// FeatureNames lists the model features in column order.
var FeatureNames = []string{
	FeatureRecencyDays,
	FeatureOrders,
	FeatureMonetary,
	FeatureTenureDays,
	FeatureAvgDiscount,
	FeatureReturnRate,
	FeatureCategoryDiversity,
}

// CustomerFeatures is the fixed-width feature vector of one customer.
// Recomputed from the full transaction log on every run.
type CustomerFeatures struct {
	CustomerID        string
	LastOrderDate     time.Time
	FirstOrderDate    time.Time
	OrderCount        int     // distinct order_id
	MonetaryTotal     float64 // sum of quantity × unit_price
	AvgDiscountRate   float64 // mean discount over lines
	ReturnRate        float64 // returned lines / total lines
	CategoryDiversity int     // distinct categories
	RecencyDays       int     // global max order date - last order date
	TenureDays        int     // last order date - first order date
}

// Vector returns the model features in FeatureNames order.
func (f CustomerFeatures) Vector() []float64 {
	return []float64{
		float64(f.RecencyDays),
		float64(f.OrderCount),
		f.MonetaryTotal,
		float64(f.TenureDays),
		f.AvgDiscountRate,
		f.ReturnRate,
		float64(f.CategoryDiversity),
	}
}

// Record converts the vector to a FeatureRecord with every value present.
func (f CustomerFeatures) Record() FeatureRecord {
	v := f.Vector()
	return FeatureRecord{
		CustomerID:        f.CustomerID,
		RecencyDays:       &v[0],
		Orders:            &v[1],
		Monetary:          &v[2],
		TenureDays:        &v[3],
		AvgDiscount:       &v[4],
		ReturnRate:        &v[5],
		CategoryDiversity: &v[6],
	}
}

// FeatureRecord is a scoring input whose values may be absent.
// Absent values score as 0.
type FeatureRecord struct {
	CustomerID        string   `json:"-"`
	RecencyDays       *float64 `json:"recency_days"`
	Orders            *float64 `json:"orders"`
	Monetary          *float64 `json:"monetary"`
	TenureDays        *float64 `json:"tenure_days"`
	AvgDiscount       *float64 `json:"avg_discount"`
	ReturnRate        *float64 `json:"return_rate"`
	CategoryDiversity *float64 `json:"category_diversity"`
}

// Vector returns the values in FeatureNames order, substituting 0 for absent values.
func (r FeatureRecord) Vector() []float64 {
	return []float64{
		orZero(r.RecencyDays),
		orZero(r.Orders),
		orZero(r.Monetary),
		orZero(r.TenureDays),
		orZero(r.AvgDiscount),
		orZero(r.ReturnRate),
		orZero(r.CategoryDiversity),
	}
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
