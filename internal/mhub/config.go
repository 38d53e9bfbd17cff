package mhub

import (
	"fmt"
	"log"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ConfigPath string
	Profile    string // postgres | memory
	Verbose    bool
	ApiGinMode string

	Ip       string
	Port     string
	BasePath string

	// seconds the server waits for in-flight requests on shutdown
	ShutdownGrace int

	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string

	// auth
	AuthProvider string // local | keycloak
	JWTSecret    []byte
	Issuer       string
	AuthAddress  string
	Realm        string
	ClientID     string
	ClientSecret string
	Audience     string

	// database
	InitSQLPath string
	DBAddress   string
	DBUser      string
	DBPassword  string
	DBName      string
}

func loadConfig(path string) Config {
	if err := godotenv.Load(path); err != nil {
		log.Printf("Failed to load the config file at %s, using default ones...", path)
	}

	s := strings.Split(path, "/")
	config := Config{
		ConfigPath: s[len(s)-1],
		Profile:    getEnv("PROFILE", "postgres"),
		Verbose:    getBoolEnv("VERBOSE", "true"),
		ApiGinMode: getEnv("GIN_MODE", "debug"),

		Ip:       getEnv("IP", "localhost"),
		Port:     getEnv("PORT", "5080"),
		BasePath: getEnv("BASE_PATH", "/api/v1"),

		ShutdownGrace: getIntEnv("SHUTDOWN_GRACE_SECONDS", 5),

		AllowedOrigins: getEnvFields("ALLOW_ORIGINS", []string{"*"}),
		AllowedMethods: getEnvFields("ALLOW_METHODS", []string{"*"}),
		AllowedHeaders: getEnvFields("ALLOW_HEADERS", []string{"*"}),

		AuthProvider: getEnv("AUTH_PROVIDER", "local"),
		JWTSecret:    []byte(getEnv("JWT_SECRET", "")),
		Issuer:       getEnv("TOKEN_ISSUER", "taskhub"),
		AuthAddress:  getEnv("AUTH_ADDRESS", "localhost:5555"),
		Realm:        getEnv("KC_REALM", "taskhub"),
		ClientID:     getEnv("KC_CLIENT", "taskhub-api"),
		ClientSecret: getEnv("KC_CLIENT_SECRET", ""),
		Audience:     getEnv("KC_AUDIENCE", "taskhub-front"),

		InitSQLPath: getEnv("INIT_SQL_PATH", "./internal/mhub/db/init.sql"),
		DBAddress:   getEnv("DB_ADDRESS", "api-db:5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "taskhub"),
	}

	if config.AuthProvider == "local" && len(config.JWTSecret) == 0 {
		log.Fatalf("JWT_SECRET must be set when AUTH_PROVIDER=local")
	}

	if config.Verbose {
		log.Print(config.toString())
	}

	return config
}

func getEnv(env, fallback string) string {
	if value, exists := os.LookupEnv(env); exists {
		return value
	}

	return fallback
}

func getEnvFields(env string, fallback []string) []string {
	if value, exists := os.LookupEnv(env); exists {
		fields := strings.Split(strings.TrimSpace(value), ",")

		return fields
	}

	return fallback
}

func getBoolEnv(env, fallback string) bool {
	if value, exists := os.LookupEnv(env); exists {
		return strings.ToLower(value) == "true"
	}

	return strings.ToLower(fallback) == "true"
}

func getIntEnv(env string, fallback int) int {
	if value, exists := os.LookupEnv(env); exists {
		int_value, err := strconv.Atoi(value)
		if err == nil {
			return int_value
		}
	}

	return fallback
}

func (cfg *Config) toString() string {
	var strBuilder strings.Builder

	reflectedValues := reflect.ValueOf(cfg).Elem()
	reflectedTypes := reflect.TypeOf(cfg).Elem()

	strBuilder.WriteString(fmt.Sprintf("[CFG]CONFIGURATION: %s\n", cfg.ConfigPath))

	for i := 0; i < reflectedValues.NumField(); i++ {
		fieldName := reflectedTypes.Field(i).Name
		fieldValue := reflectedValues.Field(i).Interface()

		// never dump secrets
		switch fieldName {
		case "JWTSecret", "ClientSecret", "DBPassword":
			fieldValue = "<redacted>"
		}

		strBuilder.WriteString("[CFG]")
		if i < 9 {
			strBuilder.WriteString(fmt.Sprintf("%d.  ", i+1))
		} else {
			strBuilder.WriteString(fmt.Sprintf("%d. ", i+1))
		}
		if len(fieldName) <= 6 {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t\t\t\t-> %v\n", fieldName, fieldValue))
		} else if len(fieldName) <= 14 {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t\t\t-> %v\n", fieldName, fieldValue))
		} else if len(fieldName) <= 25 {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t\t-> %v\n", fieldName, fieldValue))
		} else {
			strBuilder.WriteString(fmt.Sprintf("%v\t\t-> %v\n", fieldName, fieldValue))
		}
	}

	return strBuilder.String()
}
