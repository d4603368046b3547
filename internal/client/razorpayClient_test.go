package client

import (
	"testing"

	"codehut/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestVerifyPaymentSignature_RoundTrip(t *testing.T) {
	c := NewRazorpayClient(&config.Razorpay{KeyID: "rzp_test", KeySecret: "s3cret"})

	sig := Sign("s3cret", []byte(PaymentSignaturePayload("order_ABC", "pay_XYZ")))

	assert.True(t, c.VerifyPaymentSignature("order_ABC", "pay_XYZ", sig))
	assert.False(t, c.VerifyPaymentSignature("order_ABC", "pay_OTHER", sig))
	assert.False(t, c.VerifyPaymentSignature("order_ABC", "pay_XYZ", ""))
}

func TestVerifyPaymentSignature_SingleCharacterMutation(t *testing.T) {
	c := NewRazorpayClient(&config.Razorpay{KeyID: "rzp_test", KeySecret: "s3cret"})
	sig := Sign("s3cret", []byte(PaymentSignaturePayload("order_1", "pay_1")))

	for i := range sig {
		mutated := []byte(sig)
		if mutated[i] == 'a' {
			mutated[i] = 'b'
		} else {
			mutated[i] = 'a'
		}
		assert.False(t, c.VerifyPaymentSignature("order_1", "pay_1", string(mutated)), "mutation at %d verified", i)
	}

	assert.False(t, c.VerifyPaymentSignature("order_1", "pay_1", sig[:len(sig)-1]))
	assert.False(t, c.VerifyPaymentSignature("order_1", "pay_1", sig+"0"))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)

	c := NewRazorpayClient(&config.Razorpay{WebhookSecret: "whsec"})
	assert.True(t, c.VerifyWebhookSignature(body, Sign("whsec", body)))
	assert.False(t, c.VerifyWebhookSignature(body, Sign("other", body)))

	unconfigured := NewRazorpayClient(&config.Razorpay{})
	assert.False(t, unconfigured.VerifyWebhookSignature(body, Sign("", body)))
}

func TestRazorpaySecretPreference(t *testing.T) {
	c := NewRazorpayClient(&config.Razorpay{KeyID: "k", Secret: "primary", KeySecret: "fallback"})
	sig := Sign("primary", []byte(PaymentSignaturePayload("o", "p")))

	assert.True(t, c.VerifyPaymentSignature("o", "p", sig))
	assert.Equal(t, "k", c.KeyID())
}
