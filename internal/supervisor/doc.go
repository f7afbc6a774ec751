// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package supervisor provides process supervision for the recommendation
service using suture v4.

# Overview

Long-running services are organized into two layers:

	RootSupervisor ("marquee")
	├── DataSupervisor ("data-layer")
	│   └── TrainingService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A service that returns an error or panics is restarted with suture's
backoff. Failures are counted per layer, so a training loop that keeps
crashing never takes the HTTP server down with it.

# Logging

Supervisor events are logged through sutureslog. The slog logger comes
from logging.NewSlogLogger, so events land in the same zerolog output as
the rest of the service.

# Shutdown

Cancelling the context passed to Serve stops every service. The HTTP
server drains connections for its shutdown timeout; an in-flight training
run is cancelled before its snapshot is saved. Services still running
after TreeConfig.ShutdownTimeout are listed by UnstoppedServiceReport.

# Usage

	tree, err := supervisor.NewSupervisorTree(slogger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewTrainingService(engine, trainCfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tree.Serve(ctx)
*/
package supervisor
