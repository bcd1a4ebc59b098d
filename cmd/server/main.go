package main

import (
	"context"
	"log"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
