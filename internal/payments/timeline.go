package payments

import (
	"context"
	"time"

	"backend/internal/models"
)

var statusTexts = map[string]string{
	models.OrderPending:   "awaiting confirmation",
	models.OrderConfirmed: "confirmed",
	models.OrderPreparing: "being prepared",
	models.OrderShipping:  "out for delivery",
	models.OrderDelivered: "delivered",
	models.OrderCancelled: "cancelled",
}

// StatusText returns a human-readable label for an order status.
func StatusText(status string) string {
	if text, ok := statusTexts[status]; ok {
		return text
	}
	return "unknown"
}

var timelineSteps = []struct {
	Key  string
	Text string
}{
	{models.OrderPending, "order placed"},
	{models.OrderConfirmed, "order confirmed"},
	{models.OrderPreparing, "order being prepared"},
	{models.OrderShipping, "out for delivery"},
	{models.OrderDelivered, "delivered"},
}

type TimelineStep struct {
	Key       string     `json:"key"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Current   bool       `json:"current"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// BuildTimeline renders the milestone list for public order tracking. A
// cancelled order gets a single terminal entry instead of the normal ladder.
func BuildTimeline(currentStatus string, createdAt time.Time) []TimelineStep {
	if currentStatus == models.OrderCancelled {
		return []TimelineStep{{
			Key:       models.OrderCancelled,
			Text:      "order cancelled",
			Completed: true,
			Current:   true,
			Timestamp: &createdAt,
		}}
	}

	currentIndex := -1
	for i, step := range timelineSteps {
		if step.Key == currentStatus {
			currentIndex = i
			break
		}
	}

	steps := make([]TimelineStep, 0, len(timelineSteps))
	for i, step := range timelineSteps {
		entry := TimelineStep{
			Key:       step.Key,
			Text:      step.Text,
			Completed: i <= currentIndex,
			Current:   i == currentIndex,
		}
		if i == 0 {
			entry.Timestamp = &createdAt
		}
		steps = append(steps, entry)
	}
	return steps
}

// TrackResult is the public tracking view of an order.
type TrackResult struct {
	OrderNumber string               `json:"orderNumber"`
	Status      string               `json:"status"`
	StatusText  string               `json:"statusText"`
	Timeline    []TimelineStep       `json:"statusTimeline"`
	Items       []models.OrderItem   `json:"items"`
	Shipping    models.ShippingInfo  `json:"shipping"`
	Pricing     models.OrderPricing  `json:"pricing"`
	Payment     models.OrderPayment  `json:"payment"`
	Delivery    models.OrderDelivery `json:"delivery"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// TrackOrder builds the public tracking response for an order number.
func (s *Service) TrackOrder(ctx context.Context, orderNumber string) (*TrackResult, error) {
	order, err := s.factory.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	return &TrackResult{
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		StatusText:  StatusText(order.Status),
		Timeline:    BuildTimeline(order.Status, order.CreatedAt),
		Items:       order.Items,
		Shipping:    order.Shipping,
		Pricing:     order.Pricing,
		Payment:     order.Payment,
		Delivery:    order.Delivery,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}, nil
}
