package config

type Config interface {
	EnvConfig
	BackendConfig
	GatewayConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

// BackendConfig locates the storefront REST backend this client talks to.
type BackendConfig interface {
	GetBackendBaseURL() string
	GetBackendTimeoutSeconds() int
}

// GatewayConfig holds the client-side identifiers for the two payment gateways.
type GatewayConfig interface {
	GetGatewayAKeyID() string
	GetGatewayBReturnURL() string
}

type StorageConfig interface {
	GetStoragePath() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
