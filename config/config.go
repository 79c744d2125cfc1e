package config

import (
	"log"

	"minhacomanda-api/models"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign staff tokens — set by Load
var JWTSecret []byte

// App holds process-wide configuration, resolved once at startup and passed
// into components instead of re-read from the environment per request.
type App struct {
	Port   string
	DBPath string

	// Public base URL of this service, used to build webhook notification URLs
	PublicBaseURL string

	// Pix payment gateway: "mercadopago" or "disabled"
	PixProvider     string
	MPAccessToken   string
	MPWebhookSecret string
	MPBaseURL       string

	TelegramBotToken      string
	TelegramChatID        int64
	TelegramWebhookSecret string
	TelegramBaseURL       string
}

// Load reads configuration from the environment with sensible defaults.
func Load() *App {
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_PATH", "minhacomanda.db")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("PIX_PROVIDER", "disabled")
	viper.SetDefault("MP_BASE_URL", "https://api.mercadopago.com")
	viper.SetDefault("TELEGRAM_BASE_URL", "https://api.telegram.org")
	viper.SetDefault("JWT_SECRET", "minhacomanda_super_secret_2024")

	cfg := &App{
		Port:                  viper.GetString("PORT"),
		DBPath:                viper.GetString("DB_PATH"),
		PublicBaseURL:         viper.GetString("PUBLIC_BASE_URL"),
		PixProvider:           viper.GetString("PIX_PROVIDER"),
		MPAccessToken:         viper.GetString("MP_ACCESS_TOKEN"),
		MPWebhookSecret:       viper.GetString("MP_WEBHOOK_SECRET"),
		MPBaseURL:             viper.GetString("MP_BASE_URL"),
		TelegramBotToken:      viper.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:        viper.GetInt64("TELEGRAM_CHAT_ID"),
		TelegramWebhookSecret: viper.GetString("TELEGRAM_WEBHOOK_SECRET"),
		TelegramBaseURL:       viper.GetString("TELEGRAM_BASE_URL"),
	}
	JWTSecret = []byte(viper.GetString("JWT_SECRET"))
	return cfg
}

func InitDB(path string) {
	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.Restaurant{},
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.StaffUser{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderEvent{},
		&models.WaiterCall{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database connected and migrated successfully")
}
