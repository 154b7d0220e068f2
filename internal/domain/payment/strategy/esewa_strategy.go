package strategy

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"nepeats/internal/pkg/config"
	"nepeats/pkg/errs"

	"github.com/shopspring/decimal"
)

// 发起支付时签名的字段，顺序即签名顺序
const esewaSignedFields = "total_amount,transaction_uuid,product_code"

// EsewaForm 前端自动提交到 eSewa 的表单
type EsewaForm struct {
	PaymentURL  string            `json:"paymentUrl"`
	PaymentData map[string]string `json:"paymentData"`
}

type EsewaStrategy struct {
	config config.EsewaConfig
	now    func() time.Time
}

func NewEsewaStrategy(cfg config.EsewaConfig) (*EsewaStrategy, error) {
	if cfg.MerchantID == "" || cfg.Secret == "" {
		return nil, errors.New("esewa config missing")
	}
	return &EsewaStrategy{config: cfg, now: time.Now}, nil
}

// Pay 生成带 HMAC-SHA256 签名的支付表单
func (s *EsewaStrategy) Pay(_ context.Context, co Checkout) (interface{}, error) {
	amount := co.Total.String()
	fields := map[string]string{
		"amount":                  amount,
		"tax_amount":              "0",
		"total_amount":            amount,
		"transaction_uuid":        fmt.Sprintf("%s-%d", co.OrderID, s.now().UnixMilli()),
		"product_code":            s.config.MerchantID,
		"product_service_charge":  "0",
		"product_delivery_charge": "0",
		"success_url":             s.config.SuccessURL,
		"failure_url":             s.config.FailureURL,
		"signed_field_names":      esewaSignedFields,
	}
	fields["signature"] = Sign(s.config.Secret, signingMessage(fields, esewaSignedFields))

	return &EsewaForm{PaymentURL: s.config.PaymentURL, PaymentData: fields}, nil
}

// Notify 处理成功回调
// params 为回调 query 中的 data 参数 (base64 JSON)
func (s *EsewaStrategy) Notify(_ context.Context, params interface{}) (*Notification, error) {
	payload, err := decodeEsewa(params)
	if err != nil {
		return nil, err
	}

	orderID := OrderIDFromTransaction(payload["transaction_uuid"])
	if orderID == "" {
		return nil, fmt.Errorf("%w: malformed transaction_uuid %q", errs.ErrVerificationFailed, payload["transaction_uuid"])
	}

	if s.config.VerifyCallback {
		if err := s.verify(payload); err != nil {
			return nil, err
		}
	}

	n := &Notification{
		OrderID:       orderID,
		TransactionID: payload["transaction_code"],
		Success:       true,
	}
	// eSewa 返回的金额可能带千分位，例如 "1,000.0"
	if raw := strings.ReplaceAll(payload["total_amount"], ",", ""); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed total_amount %q", errs.ErrVerificationFailed, payload["total_amount"])
		}
		n.Amount = amount
	}
	return n, nil
}

// ResolveOrder 失败回调只需取出订单号，不验签
func (s *EsewaStrategy) ResolveOrder(params interface{}) (string, error) {
	payload, err := decodeEsewa(params)
	if err != nil {
		return "", err
	}
	orderID := OrderIDFromTransaction(payload["transaction_uuid"])
	if orderID == "" {
		return "", fmt.Errorf("%w: malformed transaction_uuid", errs.ErrInvalidInput)
	}
	return orderID, nil
}

// verify 回调携带签名时重新计算并比对，状态必须为 COMPLETE
func (s *EsewaStrategy) verify(payload map[string]string) error {
	if status, ok := payload["status"]; ok && status != "COMPLETE" {
		return fmt.Errorf("%w: esewa status %s", errs.ErrVerificationFailed, status)
	}

	names, signature := payload["signed_field_names"], payload["signature"]
	if names == "" || signature == "" {
		return nil
	}
	expected := Sign(s.config.Secret, signingMessage(payload, names))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: esewa signature mismatch", errs.ErrVerificationFailed)
	}
	return nil
}

// Sign base64(HMAC-SHA256(secret, message))
func Sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signingMessage 按 signed_field_names 顺序拼接 name=value
func signingMessage(fields map[string]string, names string) string {
	parts := strings.Split(names, ",")
	for i, name := range parts {
		name = strings.TrimSpace(name)
		parts[i] = name + "=" + fields[name]
	}
	return strings.Join(parts, ",")
}

// OrderIDFromTransaction 从 <orderId>-<unixMillis> 中取订单号
// 订单号本身是 UUID，必须在最后一个 "-" 处截断
func OrderIDFromTransaction(transactionUUID string) string {
	i := strings.LastIndex(transactionUUID, "-")
	if i <= 0 {
		return ""
	}
	if _, err := strconv.ParseInt(transactionUUID[i+1:], 10, 64); err != nil {
		return ""
	}
	return transactionUUID[:i]
}

// decodeEsewa base64 JSON 解码，所有字段转为字符串以便重算签名
func decodeEsewa(params interface{}) (map[string]string, error) {
	data, ok := params.(string)
	if !ok || data == "" {
		return nil, fmt.Errorf("%w: missing esewa callback data", errs.ErrInvalidInput)
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: esewa data is not base64", errs.ErrInvalidInput)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: esewa data is not json", errs.ErrInvalidInput)
	}

	payload := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			payload[k] = val
		case json.Number:
			payload[k] = val.String()
		case nil:
			payload[k] = ""
		default:
			payload[k] = fmt.Sprint(val)
		}
	}
	return payload, nil
}
