package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	GatewayToken   string `mapstructure:"GATEWAY_TOKEN"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`

	ProfileSyncURL      string        `mapstructure:"PROFILE_SYNC_URL"`
	ProfileSyncToken    string        `mapstructure:"PROFILE_SYNC_TOKEN"`
	ProfileSyncInterval time.Duration `mapstructure:"PROFILE_SYNC_INTERVAL"`

	LevelCurve      string `mapstructure:"LEVEL_CURVE"`
	ReviewXP        int64  `mapstructure:"REVIEW_XP"`
	ChallengePostXP int64  `mapstructure:"CHALLENGE_POST_XP"`

	SubmissionQuotaFree    int           `mapstructure:"SUBMISSION_QUOTA_FREE"`
	SubmissionQuotaPremium int           `mapstructure:"SUBMISSION_QUOTA_PREMIUM"`
	SubmissionQuotaWindow  time.Duration `mapstructure:"SUBMISSION_QUOTA_WINDOW"`
	ChallengeQuotaFree     int           `mapstructure:"CHALLENGE_QUOTA_FREE"`
	ChallengeQuotaPremium  int           `mapstructure:"CHALLENGE_QUOTA_PREMIUM"`
	ChallengeQuotaWindow   time.Duration `mapstructure:"CHALLENGE_QUOTA_WINDOW"`

	// StreakSweepAt is the UTC wall time (HH:MM) of the daily streak reset.
	StreakSweepAt string `mapstructure:"STREAK_SWEEP_AT"`

	CloudflareAccountID string `mapstructure:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID       string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret   string `mapstructure:"R2_ACCESS_KEY_SECRET"`
	R2Bucket            string `mapstructure:"R2_BUCKET_NAME"`
	CDNBaseURL          string `mapstructure:"CDN_BASE_URL"`
}

var defaults = map[string]any{
	"PORT":                     "5200",
	"DATABASE_URL":             "",
	"ALLOWED_ORIGINS":          "http://localhost:3000",
	"GATEWAY_TOKEN":            "",
	"REDIS_ADDR":               "",
	"PROFILE_SYNC_URL":         "",
	"PROFILE_SYNC_TOKEN":       "",
	"PROFILE_SYNC_INTERVAL":    "1m",
	"LEVEL_CURVE":              "standard",
	"REVIEW_XP":                10,
	"CHALLENGE_POST_XP":        20,
	"SUBMISSION_QUOTA_FREE":    1,
	"SUBMISSION_QUOTA_PREMIUM": 3,
	"SUBMISSION_QUOTA_WINDOW":  "24h",
	"CHALLENGE_QUOTA_FREE":     3,
	"CHALLENGE_QUOTA_PREMIUM":  5,
	"CHALLENGE_QUOTA_WINDOW":   "168h",
	"STREAK_SWEEP_AT":          "00:05",
	"CLOUDFLARE_ACCOUNT_ID":    "",
	"R2_ACCESS_KEY_ID":         "",
	"R2_ACCESS_KEY_SECRET":     "",
	"R2_BUCKET_NAME":           "",
	"CDN_BASE_URL":             "",
}

// LoadConfig reads .env, an optional app.env under path, then the process environment.
func LoadConfig(path string) (config Config, err error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	config.LevelCurve = strings.ToLower(strings.TrimSpace(config.LevelCurve))
	return
}

// AllowedOriginList splits ALLOWED_ORIGINS on commas and trims each entry.
func (c Config) AllowedOriginList() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func (c Config) R2Enabled() bool {
	return c.CloudflareAccountID != "" && c.R2Bucket != "" && c.R2AccessKeyID != ""
}
