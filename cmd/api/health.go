package main

import (
	"net/http"
	"time"
)

// HealthCheck godoc
//
//	@Summary		Health check
//	@Description	Reports liveness. It touches no dependencies.
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	map[string]any	"Server is running"
//	@Router			/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"success":   true,
		"message":   "Server is running",
		"env":       app.config.Env,
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := writeJSON(w, http.StatusOK, data); err != nil {
		app.internalServerError(w, r, err)
	}
}
