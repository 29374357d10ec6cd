//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/climateengine/build-sensor/internal/app"
	"github.com/climateengine/build-sensor/internal/storage"
)

func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(AppSet)
	return &app.App{}, nil, nil
}

func InitializeHistoryStore(ctx context.Context) (storage.Store, func(), error) {
	wire.Build(HistorySet)
	return nil, nil, nil
}
