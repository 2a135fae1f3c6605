package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Chat     ChatConfig
	Catalog  CatalogConfig
	Log      LogConfig
	AI       AIConfig
	Telegram TelegramConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	telegram, err := loadTelegramConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Chat:     chat,
		Catalog:  CatalogConfig{CSVPath: strings.TrimSpace(os.Getenv("CATALOG_CSV_PATH"))},
		Log:      loadLogConfig(),
		AI:       ai,
		Telegram: telegram,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	PublicBaseURL  string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:8080"))
	baseURL := strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/")

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port, AllowedOrigins: origins, PublicBaseURL: baseURL}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins, PublicBaseURL: baseURL}, nil
}

// ChatConfig 控制模拟回复延迟与提交限流。
type ChatConfig struct {
	ReplyDelay  time.Duration
	SubmitRate  float64
	SubmitBurst int
	LLMTimeout  time.Duration
}

func loadChatConfig() (ChatConfig, error) {
	cfg := ChatConfig{
		ReplyDelay:  1200 * time.Millisecond,
		SubmitRate:  2,
		SubmitBurst: 5,
		LLMTimeout:  20 * time.Second,
	}

	delay, err := parseOptionalIntEnv("CHAT_REPLY_DELAY_MS")
	if err != nil {
		return ChatConfig{}, err
	}
	if delay != nil {
		if *delay < 0 {
			return ChatConfig{}, fmt.Errorf("invalid CHAT_REPLY_DELAY_MS value %d: must not be negative", *delay)
		}
		cfg.ReplyDelay = time.Duration(*delay) * time.Millisecond
	}

	rate, err := parseOptionalFloatEnv("CHAT_SUBMIT_RATE")
	if err != nil {
		return ChatConfig{}, err
	}
	if rate != nil {
		cfg.SubmitRate = *rate
	}

	burst, err := parseOptionalIntEnv("CHAT_SUBMIT_BURST")
	if err != nil {
		return ChatConfig{}, err
	}
	if burst != nil {
		if *burst < 1 {
			cfg.SubmitBurst = 1
		} else {
			cfg.SubmitBurst = *burst
		}
	}

	timeout, err := parseOptionalIntEnv("CHAT_LLM_TIMEOUT_SECONDS")
	if err != nil {
		return ChatConfig{}, err
	}
	if timeout != nil && *timeout > 0 {
		cfg.LLMTimeout = time.Duration(*timeout) * time.Second
	}

	return cfg, nil
}

// CatalogConfig 指定投资产品目录 CSV 的位置，为空时使用内置数据。
type CatalogConfig struct {
	CSVPath string
}

// LogConfig 描述日志级别与输出格式。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
	}
}

// TelegramConfig 描述可选的 Telegram 机器人接入。
type TelegramConfig struct {
	Token string
	Debug bool
}

// Enabled 表示是否配置了机器人令牌。
func (c TelegramConfig) Enabled() bool {
	return c.Token != ""
}

func loadTelegramConfig() (TelegramConfig, error) {
	debug, err := parseBoolEnv("TELEGRAM_DEBUG", false)
	if err != nil {
		return TelegramConfig{}, err
	}
	return TelegramConfig{
		Token: strings.TrimSpace(os.Getenv("TELEGRAM_APITOKEN")),
		Debug: debug,
	}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
