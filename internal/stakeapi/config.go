package stakeapi

import (
	"context"
	"encoding/json"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// App bundles the process-wide clients. Constructed once at start, torn down
// at shutdown; nothing here is package-level state.
type App struct {
	Rdb *redis.Client
	Db  *gorm.DB
	Aqc *asynq.Client
	Aqi *asynq.Inspector
}

// AppConfig is the mutable runtime configuration. Defaults live in code, the
// current value is cached in Redis under "app_config" so admins can rewrite
// it without a deploy.
type AppConfig struct {
	Settings AppSettings `json:"settings"`
}

type AppSettings struct {
	Levels []Level       `json:"levels"`
	Limits LimitSettings `json:"limits"`
}

type LimitSettings struct {
	WithdrawCooldownDays int `json:"withdraw_cooldown_days"` // Rolling window, not calendar months
	HoldDays             int `json:"hold_days"`              // Deposit hold notice on first qualifying deposit
	AccrualIntervalSec   int `json:"accrual_interval_sec"`
}

func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Settings: AppSettings{
			Levels: DefaultLevels(),
			Limits: LimitSettings{
				WithdrawCooldownDays: 30,
				HoldDays:             7,
				AccrualIntervalSec:   60,
			},
		},
	}
}

func Init() *App {
	loadEnv()
	app := &App{
		Rdb: setupRedis(),
		Db:  setupDb(),
		Aqc: setupAsynqClient(),
		Aqi: setupAsynqInspector(),
	}
	return app
}

// LoadAppConfig returns the cached runtime config, seeding the cache with the
// defaults on first run.
func LoadAppConfig(ctx context.Context, rdb *redis.Client) *AppConfig {
	cfg := DefaultAppConfig()
	raw, _ := rdb.Get(ctx, "app_config").Result()
	if len(raw) > 0 {
		if err := json.Unmarshal([]byte(raw), cfg); err == nil {
			return cfg
		}
	}
	seed, _ := json.Marshal(cfg)
	rdb.Set(ctx, "app_config", seed, 0)
	return cfg
}

// StoreAppConfig rewrites the cached runtime config.
func StoreAppConfig(ctx context.Context, rdb *redis.Client, cfg *AppConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, "app_config", raw, 0).Err()
}

func setupRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
}

func setupDb() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect to the db")
	}
	return db
}

func setupAsynqClient() *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

func setupAsynqInspector() *asynq.Inspector {
	return asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

// SetupAsynqServer builds the worker-process task server. Notifications get
// their own low-throughput queue.
func SetupAsynqServer() *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"notify": 1,
			},
		},
	)
}

func loadEnv() {
	env := os.Getenv("APP_ENV")
	if "" == env {
		env = "development"
	}

	godotenv.Load(".env." + env + ".local")

	if "test" != env {
		godotenv.Load(".env.local")
	}
	godotenv.Load(".env." + env)
	godotenv.Load()
}
