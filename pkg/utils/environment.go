package utils

import "strings"

type AppEnvironment string

const (
	PRODUCTION  AppEnvironment = "production"
	DEVELOPMENT AppEnvironment = "development"
)

func (e AppEnvironment) Get() string {
	return string(e)
}

func (e AppEnvironment) IsProduction() bool {
	return e == PRODUCTION
}

// FromEnvironmentStr falls back to development for anything unknown.
func FromEnvironmentStr(env string) AppEnvironment {
	switch strings.ToLower(env) {
	case "production":
		return PRODUCTION
	default:
		return DEVELOPMENT
	}
}
