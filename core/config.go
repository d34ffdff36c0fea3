package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		DefaultFromEmail string
		FrontendBaseURL  string
		SendgridApiKey   string
		RollbarToken     string

		// applicants must sign up with an address of this domain
		SchoolEmailDomain    string
		EmailCodeTTL         time.Duration
		EmailVerificationTTL time.Duration

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      int
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		SendCodeRate              float64 // requests per second per client
		SendCodeBurst             int
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}
)

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewConfig loads the configuration from the environment.
// Variables are prefixed with the value of ENV, e.g. DEV_DATABASE_NAME.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "LIKELION SCH")
	v.SetDefault("secretKey", "0a3k$-ejq)r8n!x=5ab6w2c#t+hs(y9m!_g*2p1v&z7f4u0d")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("schoolEmailDomain", "sch.ac.kr")
	v.SetDefault("emailCodeTTL", 2*time.Minute)
	v.SetDefault("emailVerificationTTL", 10*time.Minute)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server.sendCodeRate", 0.2)
	v.SetDefault("server.sendCodeBurst", 3)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "recruit")
	v.SetDefault("database.user", "recruit")
	v.SetDefault("database.password", "recruit")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:                  env,
		Build:                v.GetString("build"),
		Debug:                v.GetBool("debug"),
		TestMode:             v.GetBool("testMode"),
		AppName:              v.GetString("appName"),
		SecretKey:            v.GetString("secretKey"),
		DefaultFromEmail:     v.GetString("defaultFromEmail"),
		FrontendBaseURL:      v.GetString("frontendBaseURL"),
		SendgridApiKey:       v.GetString("sendgridApiKey"),
		RollbarToken:         v.GetString("rollbarToken"),
		SchoolEmailDomain:    v.GetString("schoolEmailDomain"),
		EmailCodeTTL:         v.GetDuration("emailCodeTTL"),
		EmailVerificationTTL: v.GetDuration("emailVerificationTTL"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetInt("server.port"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			SendCodeRate:              v.GetFloat64("server.sendCodeRate"),
			SendCodeBurst:             v.GetInt("server.sendCodeBurst"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
	}
}

// NewTestConfig returns the configuration used by package tests: no network, no report, short TTLs.
func NewTestConfig() *Config {
	return &Config{
		Env:                  "TEST",
		Build:                "test",
		TestMode:             true,
		AppName:              "LIKELION SCH",
		SecretKey:            "test-secret",
		DefaultFromEmail:     "noreply@localhost",
		FrontendBaseURL:      "http://localhost:5173",
		SchoolEmailDomain:    "sch.ac.kr",
		EmailCodeTTL:         2 * time.Minute,
		EmailVerificationTTL: 10 * time.Minute,
		Server: ServerConfig{
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
			SendCodeRate:              1000,
			SendCodeBurst:             1000,
			DisableReqLogs:            true,
		},
		Database: DatabaseConfig{Engine: "memory"},
	}
}
