package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/shopnotes/binder"
)

var (
	binderJSON  = binder.JSON()
	binderPath  = binder.Path(chi.URLParam)
	binderQuery = binder.Query()
)
