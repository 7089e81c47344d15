package httpserver

import "net/http"

// Routes groups handlers. Nil handlers are not registered.
type Routes struct {
	Health http.HandlerFunc
	Latest http.HandlerFunc
	Recent http.HandlerFunc
	Feed   http.HandlerFunc
}

// NewRouter registers endpoints. apiMiddleware wraps every /api/ route.
func NewRouter(routes Routes, apiMiddleware ...func(http.Handler) http.Handler) http.Handler {
	api := http.NewServeMux()
	if routes.Latest != nil {
		api.Handle("/api/readings/latest", method(http.MethodGet, routes.Latest))
	}
	if routes.Recent != nil {
		api.Handle("/api/readings", method(http.MethodGet, routes.Recent))
	}
	if routes.Feed != nil {
		api.Handle("/api/readings/ws", method(http.MethodGet, routes.Feed))
	}

	var apiHandler http.Handler = api
	for i := len(apiMiddleware) - 1; i >= 0; i-- {
		apiHandler = apiMiddleware[i](apiHandler)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
