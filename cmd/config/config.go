package config

import (
	"flag"
	"github.com/joho/godotenv"
	"os"
	"strconv"
	"time"
)

var (
	RunAddress    string
	DatabaseURI   string
	LogLevel      string
	JWTSecret     string
	ClaimUnit     int
	PointsRate    string
	AdminEmail    string
	AdminPassword string
	SweepInterval time.Duration
)

func ParseFlags() {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	flag.StringVar(&RunAddress, "a", ":8080", "address to run server")
	flag.StringVar(&DatabaseURI, "d", "", "database uri")
	flag.StringVar(&LogLevel, "l", "info", "log level")
	flag.StringVar(&JWTSecret, "s", "", "secret used to sign session tokens")
	flag.IntVar(&ClaimUnit, "claim-unit", 5, "points are claimed in multiples of this unit")
	flag.StringVar(&PointsRate, "points-rate", "1", "points accrued per unit of net weight")
	flag.StringVar(&AdminEmail, "admin-email", "", "bootstrap staff account email")
	flag.StringVar(&AdminPassword, "admin-password", "", "bootstrap staff account password")
	flag.DurationVar(&SweepInterval, "sweep-interval", time.Minute, "how often expired revoked tokens are dropped")
	flag.Parse()

	if envRunAddr := os.Getenv("RUN_ADDRESS"); envRunAddr != "" {
		RunAddress = envRunAddr
	}
	if databaseURI := os.Getenv("DATABASE_URI"); databaseURI != "" {
		DatabaseURI = databaseURI
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		LogLevel = logLevel
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		JWTSecret = secret
	}
	if unit := os.Getenv("CLAIM_UNIT"); unit != "" {
		if v, err := strconv.Atoi(unit); err == nil {
			ClaimUnit = v
		}
	}
	if rate := os.Getenv("POINTS_RATE"); rate != "" {
		PointsRate = rate
	}
	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		AdminEmail = email
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		AdminPassword = password
	}
	if interval := os.Getenv("SWEEP_INTERVAL"); interval != "" {
		if v, err := time.ParseDuration(interval); err == nil {
			SweepInterval = v
		}
	}
}
