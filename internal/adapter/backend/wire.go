package backend

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// envelope mirrors the backend response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// productRef accepts both a bare product id and a populated product document.
type productRef struct {
	ID   string
	Name string
}

func (p *productRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &p.ID)
	}
	var doc struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	p.ID, p.Name = doc.ID, doc.Name
	return nil
}

type wireCoupon struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
}

type wireCartItem struct {
	Product  productRef      `json:"product"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type wireCart struct {
	Items       []wireCartItem  `json:"items"`
	Coupon      *wireCoupon     `json:"coupon"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	Total       decimal.Decimal `json:"total"`
}

type cartData struct {
	Cart *wireCart `json:"cart"`
}

func (w *wireCart) toModel() *model.Cart {
	if w == nil {
		return &model.Cart{}
	}
	cart := &model.Cart{
		Items:       make([]model.CartItem, 0, len(w.Items)),
		Subtotal:    w.Subtotal,
		Tax:         w.Tax,
		Discount:    w.Discount,
		ShippingFee: w.ShippingFee,
		Total:       w.Total,
	}
	for _, it := range w.Items {
		name := it.Name
		if name == "" {
			name = it.Product.Name
		}
		cart.Items = append(cart.Items, model.CartItem{
			ProductRef: it.Product.ID,
			Name:       name,
			UnitPrice:  it.Price,
			Quantity:   it.Quantity,
		})
	}
	if w.Coupon != nil && w.Coupon.Code != "" {
		cart.Coupon = &model.Coupon{
			Code:  w.Coupon.Code,
			Kind:  model.DiscountKind(w.Coupon.DiscountType),
			Value: w.Coupon.DiscountValue,
		}
	}
	return cart
}

type wireAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

func fromAddress(a model.ShippingAddress) wireAddress {
	return wireAddress{
		FullName:     a.FullName,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		Pincode:      a.Pincode,
		Country:      a.Country,
		Phone:        a.Phone,
	}
}

func (w wireAddress) toModel() model.ShippingAddress {
	return model.ShippingAddress{
		FullName:     w.FullName,
		AddressLine1: w.AddressLine1,
		AddressLine2: w.AddressLine2,
		City:         w.City,
		State:        w.State,
		Pincode:      w.Pincode,
		Country:      w.Country,
		Phone:        w.Phone,
	}
}

// The backend names the online method after its gateway provider.
const wireMethodOnline = "razorpay"

func toWireMethod(m model.PaymentMethod) string {
	if m == model.PaymentOnline {
		return wireMethodOnline
	}
	return string(m)
}

func fromWireMethod(s string) model.PaymentMethod {
	switch s {
	case wireMethodOnline, string(model.PaymentOnline):
		return model.PaymentOnline
	default:
		return model.PaymentMethod(s)
	}
}

type wirePayment struct {
	Method            string `json:"method"`
	Status            string `json:"status"`
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

type wireOrderItem struct {
	Product  productRef      `json:"product"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type wireOrder struct {
	ID              string          `json:"_id"`
	OrderNumber     string          `json:"orderNumber"`
	Items           []wireOrderItem `json:"items"`
	ShippingAddress wireAddress     `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Payment         wirePayment     `json:"payment"`
	Status          string          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	Discount        decimal.Decimal `json:"discount"`
	ShippingFee     decimal.Decimal `json:"shippingFee"`
	HandlingFee     decimal.Decimal `json:"handlingFee"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (w *wireOrder) toModel() *model.Order {
	if w == nil {
		return nil
	}
	method := w.Payment.Method
	if method == "" {
		method = w.PaymentMethod
	}
	order := &model.Order{
		ID:     w.ID,
		Number: w.OrderNumber,
		Items:  make([]model.OrderItem, 0, len(w.Items)),
		Pricing: model.Pricing{
			Subtotal:    w.Subtotal,
			Tax:         w.Tax,
			Discount:    w.Discount,
			ShippingFee: w.ShippingFee,
			HandlingFee: w.HandlingFee,
			Total:       w.TotalAmount,
		},
		Payment: model.Payment{
			Method:           fromWireMethod(method),
			Status:           model.PaymentStatus(w.Payment.Status),
			GatewayOrderID:   w.Payment.RazorpayOrderID,
			GatewayPaymentID: w.Payment.RazorpayPaymentID,
			GatewaySignature: w.Payment.RazorpaySignature,
		},
		Status:          model.OrderStatus(w.Status),
		ShippingAddress: w.ShippingAddress.toModel(),
		CreatedAt:       w.CreatedAt,
	}
	if order.Payment.Status == "" {
		order.Payment.Status = model.PaymentStatusPending
	}
	for _, it := range w.Items {
		name := it.Name
		if name == "" {
			name = it.Product.Name
		}
		order.Items = append(order.Items, model.OrderItem{
			ProductRef: it.Product.ID,
			Name:       name,
			UnitPrice:  it.Price,
			Quantity:   it.Quantity,
		})
	}
	return order
}

type orderData struct {
	Order *wireOrder `json:"order"`
}

type ordersData struct {
	Orders []wireOrder `json:"orders"`
}

type createOrderRequest struct {
	ShippingAddress wireAddress `json:"shippingAddress"`
	PaymentMethod   string      `json:"paymentMethod"`
}

type createOrderData struct {
	Order           *wireOrder `json:"order"`
	RazorpayOrderID string     `json:"razorpayOrderId"`
	Key             string     `json:"key"`
	TrialMode       bool       `json:"trialMode"`
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
	OrderID           string `json:"orderId"`
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type couponRequest struct {
	Code string `json:"code"`
}

type wireSavedAddress struct {
	FullName  string `json:"fullName"`
	Street    string `json:"street"`
	Landmark  string `json:"landmark"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"isDefault"`
}

type wireUser struct {
	ID        string             `json:"_id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Phone     string             `json:"phone"`
	Addresses []wireSavedAddress `json:"addresses"`
}

type profileData struct {
	User *wireUser `json:"user"`
}

func (w *wireUser) toModel() *model.Profile {
	if w == nil {
		return &model.Profile{}
	}
	profile := &model.Profile{ID: w.ID, Name: w.Name, Email: w.Email, Phone: w.Phone}
	for _, a := range w.Addresses {
		profile.Addresses = append(profile.Addresses, model.SavedAddress{
			ShippingAddress: model.ShippingAddress{
				FullName:     a.FullName,
				AddressLine1: a.Street,
				AddressLine2: a.Landmark,
				City:         a.City,
				State:        a.State,
				Pincode:      a.ZipCode,
				Country:      a.Country,
				Phone:        a.Phone,
			},
			IsDefault: a.IsDefault,
		})
	}
	return profile
}
