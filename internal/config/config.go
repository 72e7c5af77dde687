package config

import "github.com/ilyakaznacheev/cleanenv"

// Config se arma env-first con cleanenv. Todo tiene default razonable
// para levantar en modo dev (memoria, sin verifier, sin webhook).
type Config struct {
	Port string `env:"PORT" env-default:"8080"`

	// Si DB_DSN viene vacío, los repos son in-memory.
	DBDSN string `env:"DB_DSN"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text"`
	AppName   string `env:"APP_NAME" env-default:"eprf-collab"`

	// Si JWT_SECRET viene vacío, el middleware corre en modo dev
	// (X-Debug-User-ID / X-Debug-Callsign).
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER" env-default:"eprf-collab"`

	// Admin directory: un id raíz fijo más lista dinámica (CSV).
	RootAdminID  string   `env:"ROOT_ADMIN_ID" env-default:"sys-root"`
	AdminUserIDs []string `env:"ADMIN_USER_IDS" env-separator:","`

	// Webhook opcional para replicar notificaciones hacia afuera.
	NotifyWebhookURL string `env:"NOTIFY_WEBHOOK_URL"`

	SweepSchedule string `env:"SWEEP_SCHEDULE" env-default:"@every 10m"`
}

func Load() (Config, error) {
	var c Config
	if err := cleanenv.ReadEnv(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
