package app

import (
	"log/slog"
	"os"

	"github.com/passgate/passgate/internal/verification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.verification.enabled") {
		uc, err := verification.New(verification.Dependency{
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Mail:       a.mail,
			Config:     a.config,
			Instrument: a.ins,
			Passcode:   a.passcode,
			UID:        a.uid,
			OID:        a.oid,
			Clock:      a.clock,
			Validator:  a.validator,
			JWT:        a.jwt,
		})
		if err != nil {
			slog.Error("failed to init module verification", "error", err)
			os.Exit(1)
		}

		a.verification = uc
	}
}
