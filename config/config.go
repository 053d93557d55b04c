package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Drivers suportados para o escopo de longa duração (conjunto durável + sessão persistente).
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config armazena todas as configurações do serviço SokoFresh.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Armazenamento de longa duração
	StorageDriver string
	SQLitePath    string
	DatabaseURL   string
	DBTimeout     time.Duration

	// Escopo de curta duração (Redis). Vazio = memória do processo.
	RedisAddr  string
	SessionTTL time.Duration

	// Contexto de navegação (cookie) e limpeza das instâncias ociosas
	CookieSecure   bool
	CookieMaxAge   time.Duration
	SessionIdleTTL time.Duration

	// Segurança. JWTSecretKey só é exigida pelo servidor HTTP (ver cmd/main.go).
	JWTSecretKey string
	TokenExpiry  time.Duration
	BcryptCost   int

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Dataset de semente (YAML). Vazio = listagens embutidas.
	SeedFile string
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
// O .env (se existir) já foi carregado pelo godotenv no main.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Armazenamento
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverSQLite)),
		SQLitePath:    getEnv("SQLITE_PATH", "sokofresh.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DBTimeout:     getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Sessão de curta duração
		RedisAddr:  getEnv("REDIS_ADDR", ""),
		SessionTTL: getDurationEnv("SESSION_TTL_MIN", 30) * time.Minute,

		CookieSecure:   getBoolEnv("COOKIE_SECURE", false),
		CookieMaxAge:   getDurationEnv("COOKIE_MAX_AGE_HOURS", 720) * time.Hour,
		SessionIdleTTL: getDurationEnv("SESSION_IDLE_MIN", 30) * time.Minute,

		// 4. Segurança (JWT + bcrypt)
		JWTSecretKey: getEnv("JWT_SECRET_KEY", ""),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,
		BcryptCost:   getIntEnv("BCRYPT_COST", 10),

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Semente
		SeedFile: getEnv("SEED_FILE", ""),
	}

	if cfg.StorageDriver == DriverPostgres && cfg.DatabaseURL == "" {
		log.Fatalf("❌ Erro de Configuração: STORAGE_DRIVER=postgres exige DATABASE_URL.")
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getBoolEnv lê uma variável de ambiente booleana ("true", "1", "false"...).
func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é booleano. Usando padrão (%t).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
