package main

import (
	"go.uber.org/fx"

	"github.com/yourusername/media-fetch-bot/internal/app"
)

func main() {
	fx.New(app.CreateApp()).Run()
}
