package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"nepeats/internal/pkg/config"
	"nepeats/pkg/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	baseURL    string
	productID  string
	totalUsers int
	totalStock int
	httpClient *http.Client
)

func init() {
	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

// outcome 单次下单结果
type outcome int

const (
	placed outcome = iota
	outOfStock
	throttled
	failed
)

var rootCmd = &cobra.Command{
	Use:   "stress_tool",
	Short: "Concurrent checkout against a single product to detect over-selling",
	RunE: func(cmd *cobra.Command, args []string) error {
		if productID == "" {
			return fmt.Errorf("--product is required")
		}
		if err := config.LoadConfig(); err != nil {
			return err
		}
		return run()
	},
}

func main() {
	rootCmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "API base URL")
	rootCmd.Flags().StringVar(&productID, "product", "", "Product ID to order")
	rootCmd.Flags().IntVar(&totalUsers, "users", 200, "Number of concurrent customers")
	rootCmd.Flags().IntVar(&totalStock, "stock", 5, "Stock of the product before the run")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// 1. 为每个用户签发令牌，首次下单时服务端自动建档
	tokens := make([]string, totalUsers)
	for i := range tokens {
		token, err := utils.GenerateToken(uuid.NewString(), "customer", time.Hour)
		if err != nil {
			return err
		}
		tokens[i] = token
	}

	fmt.Printf("开始压测：%d 个用户并发购买商品 %s (库存: %d)...\n", totalUsers, productID, totalStock)

	// 2. 并发下单
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = map[outcome]int{}
	)
	start := time.Now()

	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			result := placeOrder(token)
			mu.Lock()
			counts[result]++
			mu.Unlock()
		}(token)
	}

	wg.Wait()
	duration := time.Since(start)

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("QPS: %.2f\n", float64(totalUsers)/duration.Seconds())
	fmt.Printf("下单成功: %d (库存: %d)\n", counts[placed], totalStock)
	fmt.Printf("库存不足: %d\n", counts[outOfStock])
	fmt.Printf("被限流: %d\n", counts[throttled])
	fmt.Printf("其他失败: %d\n", counts[failed])
	fmt.Println("--------------------------------------------------")

	if counts[placed] > totalStock {
		return fmt.Errorf("oversold: %d orders placed for %d units", counts[placed], totalStock)
	}
	return nil
}

func placeOrder(token string) outcome {
	payload := map[string]interface{}{
		"items":         []map[string]interface{}{{"productId": productID, "qty": 1}},
		"paymentMethod": "cash",
		"deliveryAddress": map[string]string{
			"street": "Durbar Marg",
			"city":   "Kathmandu",
			"area":   "Kamalpokhari",
			"phone":  "9800000000",
		},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return failed
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return failed
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return throttled
	}

	// 检查业务状态码
	var result struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return failed
	}
	switch {
	case resp.StatusCode < 300 && result.Code == 0:
		return placed
	case result.Code == 30001:
		return outOfStock
	default:
		return failed
	}
}
