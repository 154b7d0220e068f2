package strategy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"nepeats/internal/pkg/config"
	"nepeats/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "8gBm/:&EnhH.1/q"
	testOrderID = "3f1c2a9e-5b7d-4c11-9e0a-6d2f8b4a1c33"
)

func newEsewa(verify bool) *EsewaStrategy {
	s, _ := NewEsewaStrategy(config.EsewaConfig{
		MerchantID:     "EPAYTEST",
		Secret:         testSecret,
		PaymentURL:     "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
		SuccessURL:     "http://localhost:8080/payments/esewa/success",
		FailureURL:     "http://localhost:8080/payments/esewa/failure",
		VerifyCallback: verify,
	})
	s.now = func() time.Time { return time.UnixMilli(1767225600000) }
	return s
}

// callback 模拟 eSewa 回调的 data 参数
func callback(t *testing.T, fields map[string]interface{}) string {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

// signedCallback 按 eSewa 规则签名的成功回调
func signedCallback(t *testing.T, totalAmount, status string) string {
	t.Helper()
	fields := map[string]string{
		"transaction_code":   "000AE01",
		"status":             status,
		"total_amount":       totalAmount,
		"transaction_uuid":   testOrderID + "-1767225600000",
		"product_code":       "EPAYTEST",
		"signed_field_names": "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names",
	}
	fields["signature"] = Sign(testSecret, signingMessage(fields, fields["signed_field_names"]))

	obj := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		obj[k] = v
	}
	return callback(t, obj)
}

func TestSignKnownVector(t *testing.T) {
	got := Sign(testSecret, "total_amount=100,transaction_uuid=11-201-13,product_code=EPAYTEST")
	assert.Equal(t, "4Ov7pCI1zIOdwtV2BRMUNjz1upIlT/COTxfLhWvVurE=", got)
}

func TestEsewaPay(t *testing.T) {
	s := newEsewa(true)

	out, err := s.Pay(context.Background(), Checkout{OrderID: testOrderID, Total: decimal.RequireFromString("410.00")})
	require.NoError(t, err)

	form, ok := out.(*EsewaForm)
	require.True(t, ok)
	assert.Equal(t, "https://rc-epay.esewa.com.np/api/epay/main/v2/form", form.PaymentURL)

	data := form.PaymentData
	assert.Equal(t, "410", data["amount"])
	assert.Equal(t, "410", data["total_amount"])
	assert.Equal(t, "0", data["tax_amount"])
	assert.Equal(t, "0", data["product_service_charge"])
	assert.Equal(t, "0", data["product_delivery_charge"])
	assert.Equal(t, "EPAYTEST", data["product_code"])
	assert.Equal(t, testOrderID+"-1767225600000", data["transaction_uuid"])
	assert.Equal(t, "total_amount,transaction_uuid,product_code", data["signed_field_names"])

	message := "total_amount=410,transaction_uuid=" + testOrderID + "-1767225600000,product_code=EPAYTEST"
	assert.Equal(t, Sign(testSecret, message), data["signature"])
}

func TestOrderIDFromTransaction(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{testOrderID + "-1767225600000", testOrderID},
		{"o1-42", "o1"},
		{testOrderID, ""},
		{"1767225600000", ""},
		{"-1767225600000", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderIDFromTransaction(tt.in))
		})
	}
}

func TestEsewaNotify(t *testing.T) {
	ctx := context.Background()

	t.Run("Signed success", func(t *testing.T) {
		n, err := newEsewa(true).Notify(ctx, signedCallback(t, "410.0", "COMPLETE"))

		require.NoError(t, err)
		assert.True(t, n.Success)
		assert.Equal(t, testOrderID, n.OrderID)
		assert.Equal(t, "000AE01", n.TransactionID)
		assert.True(t, n.Amount.Equal(decimal.NewFromInt(410)))
	})

	t.Run("Thousands separator in amount", func(t *testing.T) {
		n, err := newEsewa(true).Notify(ctx, signedCallback(t, "1,000.0", "COMPLETE"))

		require.NoError(t, err)
		assert.True(t, n.Amount.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("Tampered payload", func(t *testing.T) {
		data := signedCallback(t, "410.0", "COMPLETE")
		raw, _ := base64.StdEncoding.DecodeString(data)
		var obj map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &obj))
		obj["total_amount"] = "1.0"

		_, err := newEsewa(true).Notify(ctx, callback(t, obj))
		assert.ErrorIs(t, err, errs.ErrVerificationFailed)
	})

	t.Run("Status other than COMPLETE", func(t *testing.T) {
		_, err := newEsewa(true).Notify(ctx, signedCallback(t, "410.0", "PENDING"))
		assert.ErrorIs(t, err, errs.ErrVerificationFailed)
	})

	t.Run("Verification disabled", func(t *testing.T) {
		data := callback(t, map[string]interface{}{
			"transaction_uuid":   testOrderID + "-1767225600000",
			"transaction_code":   "000AE01",
			"total_amount":       410,
			"signed_field_names": "total_amount",
			"signature":          "bogus",
		})

		n, err := newEsewa(false).Notify(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, testOrderID, n.OrderID)
		assert.True(t, n.Amount.Equal(decimal.NewFromInt(410)))
	})

	t.Run("Unsigned payload", func(t *testing.T) {
		data := callback(t, map[string]interface{}{
			"transaction_uuid": testOrderID + "-1767225600000",
			"transaction_code": "000AE01",
			"total_amount":     "410",
		})

		n, err := newEsewa(true).Notify(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, "000AE01", n.TransactionID)
	})

	t.Run("Malformed transaction uuid", func(t *testing.T) {
		data := callback(t, map[string]interface{}{"transaction_uuid": "nope", "total_amount": "410"})
		_, err := newEsewa(true).Notify(ctx, data)
		assert.ErrorIs(t, err, errs.ErrVerificationFailed)
	})

	t.Run("Not base64", func(t *testing.T) {
		_, err := newEsewa(true).Notify(ctx, "%%%")
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})

	t.Run("Missing data", func(t *testing.T) {
		_, err := newEsewa(true).Notify(ctx, "")
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestEsewaResolveOrder(t *testing.T) {
	s := newEsewa(true)

	orderID, err := s.ResolveOrder(callback(t, map[string]interface{}{
		"transaction_uuid": testOrderID + "-1767225600000",
		"signature":        "not checked",
	}))
	require.NoError(t, err)
	assert.Equal(t, testOrderID, orderID)

	_, err = s.ResolveOrder(callback(t, map[string]interface{}{"total_amount": "410"}))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestNewEsewaStrategyRequiresCredentials(t *testing.T) {
	_, err := NewEsewaStrategy(config.EsewaConfig{MerchantID: "EPAYTEST"})
	assert.Error(t, err)
}
