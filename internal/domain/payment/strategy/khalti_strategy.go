package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nepeats/internal/pkg/config"
	"nepeats/pkg/errs"

	"github.com/shopspring/decimal"
)

const khaltiProductName = "Food Order"

// KhaltiWidget 前端初始化 Khalti 组件的参数，金额单位为 paisa
type KhaltiWidget struct {
	PublicKey       string `json:"publicKey"`
	Amount          int64  `json:"amount"`
	OrderID         string `json:"orderId"`
	ProductIdentity string `json:"productIdentity"`
	ProductName     string `json:"productName"`
	ProductURL      string `json:"productUrl"`
}

// KhaltiToken 客户端支付完成后提交的令牌
type KhaltiToken struct {
	OrderID string
	Token   string
	Amount  int64
}

type KhaltiStrategy struct {
	config     config.KhaltiConfig
	productURL string
	client     *http.Client
}

func NewKhaltiStrategy(cfg config.KhaltiConfig, frontendURL string) (*KhaltiStrategy, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("khalti config missing")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KhaltiStrategy{
		config:     cfg,
		productURL: frontendURL,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// ToPaisa NPR 转 paisa
func ToPaisa(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (s *KhaltiStrategy) Pay(_ context.Context, co Checkout) (interface{}, error) {
	return &KhaltiWidget{
		PublicKey:       s.config.PublicKey,
		Amount:          ToPaisa(co.Total),
		OrderID:         co.OrderID,
		ProductIdentity: co.OrderID,
		ProductName:     khaltiProductName,
		ProductURL:      s.productURL,
	}, nil
}

type khaltiVerifyResponse struct {
	Idx    string `json:"idx"`
	Amount int64  `json:"amount"`
	Detail string `json:"detail"`
}

// Notify 调用 Khalti 校验接口
// 4xx 视为校验失败，5xx 和网络错误视为网关不可用
func (s *KhaltiStrategy) Notify(ctx context.Context, params interface{}) (*Notification, error) {
	tok, ok := params.(KhaltiToken)
	if !ok || tok.Token == "" {
		return nil, fmt.Errorf("%w: khalti token is required", errs.ErrInvalidInput)
	}

	body, err := json.Marshal(map[string]interface{}{"token": tok.Token, "amount": tok.Amount})
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(s.config.APIURL, "/") + "/payment/verify/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+s.config.SecretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTransport, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: khalti returned %d", errs.ErrTransport, resp.StatusCode)
	}

	var out khaltiVerifyResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode >= http.StatusBadRequest {
		detail := out.Detail
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrVerificationFailed, detail)
	}
	if out.Idx == "" {
		return nil, fmt.Errorf("%w: khalti response has no idx", errs.ErrVerificationFailed)
	}

	n := &Notification{
		OrderID:       tok.OrderID,
		TransactionID: out.Idx,
		Success:       true,
	}
	if out.Amount > 0 {
		n.Amount = decimal.New(out.Amount, -2)
	}
	return n, nil
}
