//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/tactics/internal/game/battle"
)

func initializeApp(ctx context.Context, path string) (*app, func(), error) {
	wire.Build(
		provideConfig,
		provideLogger,
		provideContent,
		provideArchive,
		battle.NewService,
		newApp,
	)
	return nil, nil, nil
}
