package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	App      AppConfig      `mapstructure:"app"`
	Order    OrderConfig    `mapstructure:"order"`
	Esewa    EsewaConfig    `mapstructure:"esewa"`
	Khalti   KhaltiConfig   `mapstructure:"khalti"`
	Frontend FrontendConfig `mapstructure:"frontend"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Geocode  GeocodeConfig  `mapstructure:"geocode"`
	OSS      OSSConfig      `mapstructure:"oss"`
	Push     PushConfig     `mapstructure:"push"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

// DSN gorm/pgx 连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode, d.TimeZone)
}

// URL golang-migrate 使用的连接地址
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type AppConfig struct {
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

// OrderConfig 下单与结算参数
type OrderConfig struct {
	FreeDeliveryThreshold float64 `mapstructure:"free_delivery_threshold"`
	DeliveryCharge        float64 `mapstructure:"delivery_charge"`
	CommissionPercent     float64 `mapstructure:"commission_percent"`
}

type EsewaConfig struct {
	MerchantID     string `mapstructure:"merchant_id"`
	Secret         string `mapstructure:"secret"`
	PaymentURL     string `mapstructure:"payment_url"`
	SuccessURL     string `mapstructure:"success_url"`
	FailureURL     string `mapstructure:"failure_url"`
	VerifyCallback bool   `mapstructure:"verify_callback"`
}

type KhaltiConfig struct {
	PublicKey string        `mapstructure:"public_key"`
	SecretKey string        `mapstructure:"secret_key"`
	APIURL    string        `mapstructure:"api_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type FrontendConfig struct {
	URL string `mapstructure:"url"`
}

// RabbitMQConfig URL 为空时不发布订单事件
type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type GeocodeConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
}

type PushConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	AppKey          int64  `mapstructure:"app_key"`
	RegionID        string `mapstructure:"region_id"` // e.g., "cn-hangzhou"
}

var GlobalConfig Config

// Validate 验证配置
func (c *Config) Validate() error {
	// JWT 配置验证
	if c.JWT.Secret == "" || c.JWT.Secret == "your_super_secret_key" {
		return errors.New("please set a secure JWT secret")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret should be at least 32 characters")
	}

	// 数据库配置验证
	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return errors.New("database configuration is incomplete")
	}

	// Redis 配置验证
	if c.Redis.Addr == "" {
		return errors.New("redis address is required")
	}

	// 下单参数验证
	if c.Order.FreeDeliveryThreshold < 0 || c.Order.DeliveryCharge < 0 {
		return errors.New("delivery threshold and charge must not be negative")
	}
	if c.Order.CommissionPercent < 0 || c.Order.CommissionPercent > 100 {
		return errors.New("commission percent must be within [0, 100]")
	}

	// 支付网关验证
	if c.Esewa.MerchantID == "" || c.Esewa.Secret == "" {
		return errors.New("esewa merchant id and secret are required")
	}
	if c.Khalti.SecretKey == "" {
		return errors.New("khalti secret key is required")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	// 空默认值让 AutomaticEnv 能识别这些键
	for _, key := range []string{
		"database.user", "database.password", "database.dbname", "redis.password", "jwt.secret",
		"khalti.public_key", "khalti.secret_key", "rabbitmq.url",
		"oss.endpoint", "oss.access_key_id", "oss.access_key_secret", "oss.bucket_name",
		"push.access_key_id", "push.access_key_secret", "push.region_id",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("push.app_key", 0)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "Asia/Kathmandu")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.debug", true)

	v.SetDefault("order.free_delivery_threshold", 500)
	v.SetDefault("order.delivery_charge", 50)
	v.SetDefault("order.commission_percent", 15)

	v.SetDefault("esewa.merchant_id", "EPAYTEST")
	v.SetDefault("esewa.secret", "8gBm/:&EnhH.1/q")
	v.SetDefault("esewa.payment_url", "https://rc-epay.esewa.com.np/api/epay/main/v2/form")
	v.SetDefault("esewa.success_url", "http://localhost:8080/payments/esewa/success")
	v.SetDefault("esewa.failure_url", "http://localhost:8080/payments/esewa/failure")
	v.SetDefault("esewa.verify_callback", true)

	v.SetDefault("khalti.api_url", "https://a.khalti.com/api/v2")
	v.SetDefault("khalti.timeout", 10*time.Second)

	v.SetDefault("frontend.url", "http://localhost:5173")
	v.SetDefault("rabbitmq.exchange", "orders_topic")

	v.SetDefault("geocode.enabled", true)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "NepEats-FoodDelivery/1.0")
	v.SetDefault("geocode.min_interval", time.Second)
	v.SetDefault("geocode.timeout", 5*time.Second)
}

// LoadConfig 加载配置
// 按 APP_ENV 选择 configs/config[.<env>].yaml，环境变量覆盖文件
func LoadConfig() error {
	// 获取环境变量，默认为dev
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	// 根据环境选择配置文件
	configName := "config"
	if env != "dev" {
		configName = "config." + env
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// 设置默认值
	setDefaults(v)

	// 绑定环境变量，例如 ORDER_DELIVERY_CHARGE -> order.delivery_charge
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unable to decode into struct: %w", err)
	}

	applyEnvOverrides(&cfg)

	// 验证配置
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	GlobalConfig = cfg
	return nil
}

// applyEnvOverrides 兼容部署环境中沿用的扁平变量名
func applyEnvOverrides(cfg *Config) {
	overrides := map[string]*string{
		"DB_HOST":               &cfg.Database.Host,
		"DB_USER":               &cfg.Database.User,
		"DB_PASSWORD":           &cfg.Database.Password,
		"DB_NAME":               &cfg.Database.DBName,
		"REDIS_ADDR":            &cfg.Redis.Addr,
		"JWT_SECRET":            &cfg.JWT.Secret,
		"ESEWA_MERCHANT_ID":     &cfg.Esewa.MerchantID,
		"ESEWA_MERCHANT_SECRET": &cfg.Esewa.Secret,
		"ESEWA_PAYMENT_URL":     &cfg.Esewa.PaymentURL,
		"ESEWA_SUCCESS_URL":     &cfg.Esewa.SuccessURL,
		"ESEWA_FAILURE_URL":     &cfg.Esewa.FailureURL,
		"KHALTI_PUBLIC_KEY":     &cfg.Khalti.PublicKey,
		"KHALTI_SECRET_KEY":     &cfg.Khalti.SecretKey,
		"KHALTI_API_URL":        &cfg.Khalti.APIURL,
		"FRONTEND_URL":          &cfg.Frontend.URL,
		"RABBITMQ_URL":          &cfg.RabbitMQ.URL,
	}
	for key, dst := range overrides {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
}
