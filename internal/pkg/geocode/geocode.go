package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"nepeats/internal/pkg/config"

	"golang.org/x/time/rate"
)

// Point 经纬度
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place 反向地理编码结果
type Place struct {
	Street      string `json:"street"`
	Area        string `json:"area"`
	City        string `json:"city"`
	Country     string `json:"country"`
	DisplayName string `json:"displayName"`
}

// Query 正向地理编码的地址片段
type Query struct {
	Street string
	Area   string
	City   string
}

// Geocoder 地址与坐标互转，查询失败或无结果时返回 nil
type Geocoder interface {
	Geocode(ctx context.Context, q Query) (*Point, error)
	Reverse(ctx context.Context, lat, lng float64) (*Place, error)
}

var cityCoords = map[string]Point{
	"kathmandu":  {27.7172, 85.3240},
	"pokhara":    {28.2096, 83.9856},
	"lalitpur":   {27.6667, 85.3167},
	"bhaktapur":  {27.6710, 85.4298},
	"biratnagar": {26.4525, 87.2718},
	"birgunj":    {27.0104, 84.8767},
	"dharan":     {26.8125, 87.2833},
	"hetauda":    {27.4287, 85.0325},
	"janakpur":   {26.7288, 85.9244},
	"butwal":     {27.7000, 83.4500},
}

// DefaultCityCoordinates 主要城市的中心坐标，未知城市返回加德满都
func DefaultCityCoordinates(city string) Point {
	if p, ok := cityCoords[strings.ToLower(strings.TrimSpace(city))]; ok {
		return p
	}
	return cityCoords["kathmandu"]
}

// NominatimClient OpenStreetMap Nominatim 客户端
// 使用政策要求每秒不超过一次请求，并携带 User-Agent
type NominatimClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

func NewNominatimClient(cfg config.GeocodeConfig, limiter *rate.Limiter) *NominatimClient {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	return &NominatimClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   limiter,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
	Address     *struct {
		Road          string `json:"road"`
		Neighbourhood string `json:"neighbourhood"`
		Suburb        string `json:"suburb"`
		Village       string `json:"village"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Municipality  string `json:"municipality"`
		Country       string `json:"country"`
	} `json:"address"`
}

func (c *NominatimClient) Geocode(ctx context.Context, q Query) (*Point, error) {
	parts := make([]string, 0, 4)
	for _, s := range []string{q.Street, q.Area, q.City} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, "Nepal")

	params := url.Values{}
	params.Set("q", strings.Join(parts, ", "))
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "np")
	params.Set("addressdetails", "1")

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon: %w", err)
	}
	return &Point{Lat: lat, Lng: lng}, nil
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	var res reverseResult
	if err := c.get(ctx, "/reverse", params, &res); err != nil {
		return nil, err
	}
	if res.Address == nil {
		return nil, nil
	}

	a := res.Address
	return &Place{
		Street:      firstNonEmpty(a.Road, a.Neighbourhood),
		Area:        firstNonEmpty(a.Suburb, a.Neighbourhood, a.Village),
		City:        firstNonEmpty(a.City, a.Town, a.Municipality, "Kathmandu"),
		Country:     firstNonEmpty(a.Country, "Nepal"),
		DisplayName: res.DisplayName,
	}, nil
}

func (c *NominatimClient) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Nop 关闭地理编码时使用
type Nop struct{}

func (Nop) Geocode(ctx context.Context, q Query) (*Point, error)           { return nil, nil }
func (Nop) Reverse(ctx context.Context, lat, lng float64) (*Place, error) { return nil, nil }

var _ Geocoder = (*NominatimClient)(nil)
var _ Geocoder = Nop{}

