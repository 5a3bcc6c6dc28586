package handlers

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/checkout"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/pricing"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

func toCartResponse(cart *model.Cart) dto.CartResponse {
	resp := dto.CartResponse{Items: make([]dto.CartItemResponse, 0)}
	if cart == nil {
		return resp
	}
	for _, it := range cart.Items {
		resp.Items = append(resp.Items, dto.CartItemResponse{
			ProductID: it.ProductRef,
			Name:      it.Name,
			Price:     it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	if cart.Coupon != nil {
		resp.Coupon = &dto.CouponResponse{
			Code:          cart.Coupon.Code,
			DiscountType:  string(cart.Coupon.Kind),
			DiscountValue: cart.Coupon.Value,
		}
	}
	resp.Subtotal = cart.Subtotal
	resp.Tax = cart.Tax
	resp.Discount = cart.Discount
	resp.ShippingFee = cart.ShippingFee
	resp.Total = cart.Total
	return resp
}

func toTotalsResponse(t pricing.Totals, method model.PaymentMethod) dto.TotalsResponse {
	return dto.TotalsResponse{
		PaymentMethod: string(method),
		Subtotal:      t.Subtotal,
		Discount:      t.Discount,
		Tax:           t.Tax,
		ShippingFee:   t.ShippingFee,
		HandlingFee:   t.HandlingFee,
		Total:         t.Total,
	}
}

func toAddressDTO(a model.ShippingAddress) dto.Address {
	return dto.Address{
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

func fromAddressDTO(a dto.Address) model.ShippingAddress {
	return model.ShippingAddress{
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

func toOrderResponse(order model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:          order.ID,
		OrderNumber: order.Number,
		Status:      string(order.Status),
		Items:       make([]dto.OrderItemResponse, 0, len(order.Items)),
		Pricing: dto.TotalsResponse{
			PaymentMethod: string(order.Payment.Method),
			Subtotal:      order.Pricing.Subtotal,
			Discount:      order.Pricing.Discount,
			Tax:           order.Pricing.Tax,
			ShippingFee:   order.Pricing.ShippingFee,
			HandlingFee:   order.Pricing.HandlingFee,
			Total:         order.Pricing.Total,
		},
		Payment: dto.PaymentResponse{
			Method:         string(order.Payment.Method),
			Status:         string(order.Payment.Status),
			GatewayOrderID: order.Payment.GatewayOrderID,
			PaymentID:      order.Payment.GatewayPaymentID,
		},
		ShippingAddress: toAddressDTO(order.ShippingAddress),
		CreatedAt:       order.CreatedAt,
	}
	for _, it := range order.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID: it.ProductRef,
			Name:      it.Name,
			Price:     it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return resp
}

func toCheckoutResponse(s checkout.Snapshot) dto.CheckoutResponse {
	resp := dto.CheckoutResponse{
		ID:            s.ID,
		Step:          string(s.Step),
		Processing:    s.Processing,
		Address:       toAddressDTO(s.Address),
		AddressSource: string(s.AddressSource),
		PaymentMethod: string(s.Method),
		Notice:        s.Notice,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Totals != nil {
		totals := toTotalsResponse(*s.Totals, s.Method)
		resp.Totals = &totals
	}
	if s.Order != nil {
		order := toOrderResponse(*s.Order)
		resp.Order = &order
	}
	if s.Gateway != nil {
		resp.Gateway = &dto.GatewayResponse{
			SessionID:   s.Gateway.ID,
			Key:         s.Gateway.Key,
			Amount:      s.Gateway.Amount,
			Currency:    s.Gateway.Currency,
			Name:        s.Gateway.Name,
			Description: s.Gateway.Description,
			OrderID:     s.Gateway.OrderRef,
			Prefill: dto.GatewayPrefill{
				Name:    s.Gateway.Prefill.Name,
				Email:   s.Gateway.Prefill.Email,
				Contact: s.Gateway.Prefill.Contact,
			},
		}
	}
	if s.Failure != nil {
		resp.Failure = &dto.FailureResponse{Kind: string(s.Failure.Kind), Message: s.Failure.Message}
	}
	return resp
}
