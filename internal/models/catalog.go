package models

type Product struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	SKU       string  `json:"sku"`
	Price     float64 `json:"price"`
	SalePrice float64 `json:"salePrice"` // 0 means no sale
	Stock     int     `json:"stock"`
}

// EffectivePrice returns the sale price when one is set.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.Price
}

const (
	CouponTypePercentage = "percentage"
	CouponTypeFixed      = "fixed"
)

type Coupon struct {
	Code       string  `json:"code"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	MinAmount  float64 `json:"minAmount"`
	UsageLimit int     `json:"usageLimit"` // 0 means unlimited
	UsedCount  int     `json:"usedCount"`
	Active     bool    `json:"active"`
}

type ShippingMethod struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Cost         float64 `json:"cost"`
	FreeAbove    float64 `json:"freeAbove"` // 0 means never free
	DeliveryDays int     `json:"deliveryDays"`
}

// TaxBracket applies Rate to totals falling inside [MinAmount, MaxAmount].
type TaxBracket struct {
	ID        string  `json:"id"`
	MinAmount float64 `json:"minAmount"`
	MaxAmount float64 `json:"maxAmount"`
	Rate      float64 `json:"rate"`
}

type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}
