package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// RequestObserver receives one observation per served request.
type RequestObserver interface {
	ObserveRequest(route string, status int, elapsed time.Duration)
}

// Metrics reports every request to observer, labelled with the matched
// route template so that path parameters do not explode label cardinality.
func Metrics(observer RequestObserver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)

			next.ServeHTTP(rw, r)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			observer.ObserveRequest(route, rw.statusCode, time.Since(start))
		})
	}
}

// Instrument installs Metrics on router, including its not-found and
// method-not-allowed responses, which router middleware never sees. Those
// are reported under the "unmatched" route.
func Instrument(router *mux.Router, observer RequestObserver) {
	observe := Metrics(observer)
	router.Use(observe)
	router.NotFoundHandler = observe(http.NotFoundHandler())
	router.MethodNotAllowedHandler = observe(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}))
}
