package common

import (
	"context"

	"github.com/blockwork-protocol/marketplace/src/utils/config"
)

type ContextKey int

const (
	ContextKeyConfig ContextKey = iota
)

func SetConfig(ctx context.Context, config *config.Config) context.Context {
	return context.WithValue(ctx, ContextKeyConfig, config)
}

func GetConfig(ctx context.Context) *config.Config {
	out, _ := ctx.Value(ContextKeyConfig).(*config.Config)
	return out
}
