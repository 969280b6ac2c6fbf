// Package verification wires the passcode verification module: challenge
// issuance, resend with cooldown, single-use redemption, the operator status
// view, and the background sweep of expired challenges.
package verification

import (
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
	"github.com/passgate/passgate/internal/verification/inbound"
	"github.com/passgate/passgate/internal/verification/outbound/bridge"
	"github.com/passgate/passgate/internal/verification/outbound/mailer"
	"github.com/passgate/passgate/internal/verification/outbound/mq"
	"github.com/passgate/passgate/internal/verification/outbound/store"
	"github.com/passgate/passgate/internal/verification/usecase"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	DBConn     *pgxpool.Pool
	CacheConn  *redis.Client
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Passcode   passcode.Generator         `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	OID        uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

// New validates the dependency set, builds the module, and registers its
// routes. The returned usecase owns the sweeper lifecycle; the caller starts
// and stops it alongside the server.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	driver := dep.Config.GetString("modules.verification.store_driver")
	if driver == "" {
		driver = store.DriverMemory
	}

	repoStore, err := store.NewFromDriver(driver, store.FactoryOptions{
		Pool:       dep.DBConn,
		Redis:      dep.CacheConn,
		Instrument: dep.Instrument,
	})
	if err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoStore:     repoStore,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Sink:          mailer.New(dep.Mail, dep.Config, dep.Instrument),
		Bridge:        bridge.New(dep.DBConn, dep.Instrument),
		Validator:     dep.Validator,
		Config:        dep.Config,
		Passcode:      dep.Passcode,
		UID:           dep.UID,
		OID:           dep.OID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config.GetString("modules.verification.operator_key"))

	return uc, nil
}
