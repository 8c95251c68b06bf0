package main

import (
	"context"

	"github.com/spf13/viper"
)

// configKey is the context key for the viper instance.
type configKey struct{}

// withConfig stores the viper instance on a context.
func withConfig(ctx context.Context, v *viper.Viper) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, v)
}

// configFrom retrieves the viper instance, falling back to a fresh one.
func configFrom(ctx context.Context) *viper.Viper {
	if v, ok := ctx.Value(configKey{}).(*viper.Viper); ok {
		return v
	}
	return viper.New()
}
