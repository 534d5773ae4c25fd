package config

import (
	"encoding/base64"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	bindAddr string

	slotCount       int
	maxWaiting      int
	inviteCodeBytes int
	deltaRingSize   int
	redeemDedup     time.Duration

	signingSecret []byte
	studioKey     string
	env           string
}

var (
	config Config
)

func init() {
	// optional; the environment wins over .env entries
	_ = godotenv.Load(".env")

	signingSecret, err := base64.StdEncoding.DecodeString(os.Getenv("SIGNING_SECRET"))
	if err != nil {
		panic("can't decode signing secret")
	}
	config = Config{
		bindAddr: os.Getenv("BIND_ADDR"),

		slotCount:       intEnv("SLOT_COUNT", 6),
		maxWaiting:      intEnv("MAX_WAITING", 0),
		inviteCodeBytes: intEnv("INVITE_CODE_BYTES", 12),
		deltaRingSize:   intEnv("DELTA_RING_SIZE", 256),
		redeemDedup:     time.Duration(intEnv("REDEEM_DEDUP_WINDOW_SECONDS", 10)) * time.Second,

		signingSecret: signingSecret,
		studioKey:     os.Getenv("STUDIO_KEY"),
		env:           os.Getenv("ENV"),
	}
	if config.bindAddr == "" {
		config.bindAddr = "0.0.0.0:8080"
	}
	if config.env == "" {
		config.env = "LOCAL"
	}
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func GetBindAddr() string {
	return config.bindAddr
}

func GetSlotCount() int {
	return config.slotCount
}

func GetMaxWaiting() int {
	return config.maxWaiting
}

func GetInviteCodeBytes() int {
	return config.inviteCodeBytes
}

func GetDeltaRingSize() int {
	return config.deltaRingSize
}

func GetRedeemDedupWindow() time.Duration {
	return config.redeemDedup
}

func GetSigningSecret() []byte {
	return config.signingSecret
}

func GetStudioKey() string {
	return config.studioKey
}

func GetIsProd() bool {
	return config.env != "LOCAL"
}
