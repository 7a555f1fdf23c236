package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	backendURLVar = "BACKEND_URL"
	storageVar    = "STORAGE_PATH"
)

type EnvVars struct{}

var _ Config = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" || port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Storefront")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetBackendBaseURL() string {
	return GetEnv(backendURLVar, "http://localhost:9000")
}

func (EnvVars) GetBackendTimeoutSeconds() int {
	v, err := strconv.Atoi(GetEnv("BACKEND_TIMEOUT_SECONDS", "15"))
	if err != nil {
		return 15
	}
	return v
}

func (EnvVars) GetGatewayAKeyID() string {
	return GetEnv("GATEWAY_A_KEY_ID", "")
}

// GetGatewayBReturnURL is the URL gateway B redirects back to after its hosted
// payment page (e.g., "http://localhost:8080/checkout/return").
func (EnvVars) GetGatewayBReturnURL() string {
	return GetEnv("GATEWAY_B_RETURN_URL", "http://localhost:8080/checkout/return")
}

func (EnvVars) GetStoragePath() string {
	return GetEnv(storageVar, "./data/storefront.json")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
