package mock

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewChiHandler builds the mock API on chi.
func NewChiHandler(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get(PathHello, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Hello())
	})
	r.Get(PathUsers, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Users())
	})
	r.Post(PathUsers, func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if !bindRequest(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusCreated, svc.CreateUser(req))
	})
	r.Get(PathTrees, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Trees())
	})
	r.Post(PathTrees, func(w http.ResponseWriter, r *http.Request) {
		var req CreateTreeRequest
		if !bindRequest(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusCreated, svc.CreateTree(req))
	})
	r.Get(PathTree, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Tree(chi.URLParam(r, "id")))
	})
	return r
}

func bindRequest(w http.ResponseWriter, r *http.Request, out any) bool {
	data, err := io.ReadAll(r.Body)
	if err == nil {
		err = decodeBody(data, out)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, badRequest(err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}
