package handler

import (
	"net/http"
	"strconv"

	"github.com/sakif/devforum/internal/auth"
	"github.com/sakif/devforum/internal/repository"
)

// callerID returns the authenticated caller's id, or "" for anonymous
// requests. Routes behind RequireAuth always see a non-empty id.
func callerID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// listOptionsFromQuery reads the shared pagination parameters. Out-of-range
// values are clamped by the service layer, so parsing here stays forgiving.
func listOptionsFromQuery(r *http.Request) repository.ListOptions {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	return repository.ListOptions{
		Page:     page,
		PageSize: pageSize,
		Query:    q.Get("query"),
		Sort:     q.Get("filter"),
	}
}
