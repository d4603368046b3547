package model

type RazorpayPayment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	Email            string `json:"email"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type RazorpayTransfer struct {
	ID        string `json:"id"`
	Source    string `json:"source"` // payment id the transfer was made from
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
}

type RazorpayPaymentPayload struct {
	Entity RazorpayPayment `json:"entity"`
}

type RazorpayOrderPayload struct {
	Entity RazorpayOrder `json:"entity"`
}

type RazorpayTransferPayload struct {
	Entity RazorpayTransfer `json:"entity"`
}

type RazorpayWebhookPayload struct {
	Payment  *RazorpayPaymentPayload  `json:"payment,omitempty"`
	Order    *RazorpayOrderPayload    `json:"order,omitempty"`
	Transfer *RazorpayTransferPayload `json:"transfer,omitempty"`
}

type RazorpayWebhookEvent struct {
	Entity    string                 `json:"entity"`
	AccountID string                 `json:"account_id"`
	Event     string                 `json:"event"`
	Contains  []string               `json:"contains"`
	Payload   RazorpayWebhookPayload `json:"payload"`
	CreatedAt int64                  `json:"created_at"`
}

// OrderID returns the provider order id carried by the event, if any.
func (e *RazorpayWebhookEvent) OrderID() string {
	if e.Payload.Order != nil && e.Payload.Order.Entity.ID != "" {
		return e.Payload.Order.Entity.ID
	}
	if e.Payload.Payment != nil {
		return e.Payload.Payment.Entity.OrderID
	}
	return ""
}

func (e *RazorpayWebhookEvent) PaymentID() string {
	if e.Payload.Payment != nil {
		return e.Payload.Payment.Entity.ID
	}
	return ""
}
