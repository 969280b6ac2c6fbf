package main

import (
	"context"
	"time"

	"github.com/passgate/passgate/internal/app"
)

func main() {
	application := app.New()    // Wire configuration, resources and modules
	wait := application.Start() // Serve until a termination signal arrives
	<-wait
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Drain the server, sweeper and broker connections
}
