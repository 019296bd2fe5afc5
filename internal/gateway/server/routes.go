package server

import (
	"net/http"

	"maturix/internal/gateway/handler"
	"maturix/internal/gateway/middleware"
)

func NewMux(svc *handler.Service) http.Handler {
	return middleware.CORS(handler.BuildMux(svc))
}
