package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = "../../.env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env     string
	DB      db
	Server  server
	Logger  logger
	Uploads uploads
}

type defaultConfig struct {
	RunAddress  string
	DatabaseURI string
	LogLevel    string
	Env         string
	Migrations  string
	UploadsDir  string
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress string `env:"RUN_ADDRESS"`
}

type logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type uploads struct {
	Dir string `env:"UPLOADS_DIR"`
}

func MustLoad() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()
	d := defaultConfig{
		RunAddress:  viper.GetString("run_address"),
		DatabaseURI: viper.GetString("database_uri"),
		LogLevel:    viper.GetString("log_level"),
		Env:         viper.GetString("app_env"),
		Migrations:  viper.GetString("migrations_path"),
		UploadsDir:  viper.GetString("uploads_dir"),
	}
	if d.RunAddress == "" {
		d.RunAddress = ":8080"
	}
	if d.Env == "" {
		d.Env = EnvLocal
	}
	if d.UploadsDir == "" {
		d.UploadsDir = "uploads"
	}

	if err := os.MkdirAll(d.UploadsDir, 0750); err != nil {
		log.Fatalf("cannot create uploads dir %s: %v", d.UploadsDir, err)
	}

	config := Config{
		Env: d.Env,
		DB: db{
			DatabaseURI: d.DatabaseURI,
			Migrations:  d.Migrations,
		},
		Server:  server{RunAddress: d.RunAddress},
		Logger:  logger{LogLevel: d.LogLevel},
		Uploads: uploads{Dir: d.UploadsDir},
	}

	return &config
}
