package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Register       http.HandlerFunc
	Login          http.HandlerFunc
	VehiclesList   http.HandlerFunc
	VehicleCreate  http.HandlerFunc
	VehicleHistory http.HandlerFunc
	Health         http.HandlerFunc
}

// NewRouter registers endpoints. Vehicle routes sit behind the auth
// middleware; auth and health do not.
func NewRouter(routes Routes, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	if routes.Health != nil {
		mux.Handle("GET /api/health", routes.Health)
	}
	if routes.Register != nil {
		mux.Handle("POST /api/auth/register", routes.Register)
	}
	if routes.Login != nil {
		mux.Handle("POST /api/auth/login", routes.Login)
	}

	authenticated := func(handler http.HandlerFunc) http.Handler {
		if authMiddleware == nil {
			return handler
		}
		return authMiddleware(handler)
	}

	if routes.VehiclesList != nil {
		mux.Handle("GET /api/vehicles", authenticated(routes.VehiclesList))
	}
	if routes.VehicleCreate != nil {
		mux.Handle("POST /api/vehicles", authenticated(routes.VehicleCreate))
	}
	if routes.VehicleHistory != nil {
		mux.Handle("GET /api/vehicles/{vehicleID}/data", authenticated(routes.VehicleHistory))
	}

	return mux
}
