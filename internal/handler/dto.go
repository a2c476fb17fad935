package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/product"
)

type discountResponse struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type productResponse struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Image         string            `json:"image"`
	Category      string            `json:"category"`
	Tags          []string          `json:"tags"`
	Price         float64           `json:"price"`
	OriginalPrice float64           `json:"originalPrice"`
	Discount      *discountResponse `json:"discount,omitempty"`
	Stock         int               `json:"stock"`
	Rating        float64           `json:"rating"`
}

type lineItemResponse struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Image         string  `json:"image"`
	Price         float64 `json:"price"`
	SelectedSize  string  `json:"selectedSize"`
	SelectedColor string  `json:"selectedColor"`
	Quantity      int     `json:"quantity"`
	LineTotal     float64 `json:"lineTotal"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	Items     []lineItemResponse `json:"items"`
	IsOpen    bool               `json:"isOpen"`
	ItemCount int                `json:"itemCount"`
	Subtotal  float64            `json:"subtotal"`
}

type couponResponse struct {
	Code        string `json:"code,omitempty"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

type quoteResponse struct {
	Subtotal    float64        `json:"subtotal"`
	DeliveryFee float64        `json:"deliveryFee"`
	Discount    float64        `json:"discount"`
	Total       float64        `json:"total"`
	Coupon      couponResponse `json:"coupon"`
}

type customerBody struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	District string `json:"district,omitempty"`
	Address  string `json:"address"`
}

type walletBody struct {
	Number        string `json:"number"`
	TransactionID string `json:"transactionId"`
}

type checkoutResponse struct {
	Step          string        `json:"step"`
	District      string        `json:"district,omitempty"`
	Zone          string        `json:"zone,omitempty"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
	Wallet        *walletBody   `json:"wallet,omitempty"`
	Customer      customerBody  `json:"customer"`
	CouponCode    string        `json:"couponCode,omitempty"`
	OrderID       string        `json:"orderId,omitempty"`
	Quote         quoteResponse `json:"quote"`
}

type orderResponse struct {
	ID            string             `json:"id"`
	Items         []lineItemResponse `json:"items"`
	Customer      customerBody       `json:"customer"`
	PaymentMethod string             `json:"paymentMethod"`
	Wallet        *walletBody        `json:"wallet,omitempty"`
	Subtotal      float64            `json:"subtotal"`
	DeliveryFee   float64            `json:"deliveryFee"`
	Discount      float64            `json:"discount"`
	Total         float64            `json:"total"`
	CouponCode    string             `json:"couponCode,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// imageURL prefixes relative paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" ||
		strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (h *Handler) productResponse(p product.Product) productResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	resp := productResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Image:         h.imageURL(p.ImageURL),
		Category:      p.Category,
		Tags:          tags,
		Price:         money(p.EffectivePrice()),
		OriginalPrice: money(p.Price),
		Stock:         p.Stock,
		Rating:        p.Rating.InexactFloat64(),
	}
	if p.HasDiscount() {
		resp.Discount = &discountResponse{Type: string(p.Discount.Type), Value: p.Discount.Value.InexactFloat64()}
	}
	return resp
}

func (h *Handler) productsResponse(products []product.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.productResponse(p)
	}
	return out
}

func (h *Handler) lineItemsResponse(items []cart.LineItem) []lineItemResponse {
	out := make([]lineItemResponse, len(items))
	for i, item := range items {
		out[i] = lineItemResponse{
			ID:            item.ProductID,
			Title:         item.Title,
			Image:         h.imageURL(item.ImageURL),
			Price:         money(item.UnitPrice),
			SelectedSize:  item.SelectedSize,
			SelectedColor: item.SelectedColor,
			Quantity:      item.Quantity,
			LineTotal:     money(item.LineTotal()),
		}
	}
	return out
}

func (h *Handler) cartResponse(id string, s cart.State) cartResponse {
	return cartResponse{
		ID:        id,
		Items:     h.lineItemsResponse(s.Items),
		IsOpen:    s.IsOpen,
		ItemCount: cart.TotalQuantity(s.Items),
		Subtotal:  money(s.Subtotal()),
	}
}

func quoteToResponse(q pricing.Quote) quoteResponse {
	return quoteResponse{
		Subtotal:    money(q.Subtotal),
		DeliveryFee: money(q.DeliveryFee),
		Discount:    money(q.Discount),
		Total:       money(q.Total),
		Coupon: couponResponse{
			Code:        q.Coupon.Code,
			Status:      string(q.Coupon.Status),
			Description: q.Coupon.Description,
		},
	}
}

func customerToBody(c order.Customer) customerBody {
	return customerBody{
		FullName: c.FullName,
		Phone:    c.Phone,
		Email:    c.Email,
		District: c.District,
		Address:  c.Address,
	}
}

func checkoutToResponse(s checkout.State, q pricing.Quote) checkoutResponse {
	resp := checkoutResponse{
		Step:          string(s.Step),
		District:      s.District,
		Zone:          string(s.Zone),
		PaymentMethod: string(s.PaymentMethod),
		Customer:      customerToBody(s.Customer),
		CouponCode:    s.CouponCode,
		OrderID:       s.OrderID,
		Quote:         quoteToResponse(q),
	}
	if s.PaymentMethod.IsWallet() {
		resp.Wallet = &walletBody{Number: s.WalletNumber, TransactionID: s.TransactionID}
	}
	return resp
}

func (h *Handler) orderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		Items:         h.lineItemsResponse(o.Items),
		Customer:      customerToBody(o.Customer),
		PaymentMethod: o.PaymentMethod,
		Subtotal:      money(o.Subtotal),
		DeliveryFee:   money(o.DeliveryFee),
		Discount:      money(o.Discount),
		Total:         money(o.Total),
		CouponCode:    o.CouponCode,
		CreatedAt:     o.CreatedAt,
	}
	if o.Wallet != nil {
		resp.Wallet = &walletBody{Number: o.Wallet.Number, TransactionID: o.Wallet.TransactionID}
	}
	return resp
}
