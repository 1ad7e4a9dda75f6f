package server

import (
	"context"
	"log"
	"time"

	"stakevault/internal/stakeapi"
	"stakevault/internal/worker"
)

// WorkerInit runs the background process: the asynq consumer for admin
// notifications plus the interest accruer sweeping every account on a timer.
func WorkerInit() {
	app := stakeapi.Init()
	sessions := buildSessions(app)

	srv := stakeapi.SetupAsynqServer()
	go func() {
		if err := srv.Run(stakeapi.NotifyMux()); err != nil {
			log.Fatal("Failed to run the notify worker: ", err)
		}
	}()

	cfg := sessions.Config()
	interval := time.Duration(cfg.Settings.Limits.AccrualIntervalSec) * time.Second
	pool := worker.NewPool(5, 100)
	defer pool.Close()

	accruer := stakeapi.NewAccruer(sessions, pool, interval)
	accruer.Run(context.Background())
}
