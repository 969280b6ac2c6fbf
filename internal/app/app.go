package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/passgate/passgate/internal/pkg/clock"
	"github.com/passgate/passgate/internal/pkg/config"
	"github.com/passgate/passgate/internal/pkg/goroutine"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/pkg/jwt"
	"github.com/passgate/passgate/internal/pkg/mail"
	"github.com/passgate/passgate/internal/pkg/messaging"
	"github.com/passgate/passgate/internal/pkg/passcode"
	"github.com/passgate/passgate/internal/pkg/router"
	"github.com/passgate/passgate/internal/pkg/uid"
	"github.com/passgate/passgate/internal/pkg/validator"
	"github.com/passgate/passgate/internal/verification/usecase"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	passcode  passcode.Generator
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	mail      mail.Mail
	messaging messaging.Messaging

	// modules
	verification *usecase.Usecase

	// server
	router     *router.Router
	httpServer *http.Server

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
