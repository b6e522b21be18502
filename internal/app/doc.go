// Package app wires the operations dashboard together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, config.yaml, .env and OPSDASH_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Create the in-memory session store
//	4. Initialize the dashboard and health services
//	5. Set up the chi router, middleware and handlers
//	6. Configure the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests, stops
// the session sweeper and flushes telemetry. The package never calls
// os.Exit; errors are returned to main.
package app
