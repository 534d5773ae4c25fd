package app

import (
	"log"
	"net/http"

	"github.com/atlantiplex/stage-api/controller"
	"github.com/atlantiplex/stage-api/session"
	"github.com/gorilla/mux"
)

type App struct {
	Router     *mux.Router
	Controller *controller.Controller
}

func (a *App) Initialize(core *session.Orchestrator) {
	a.Controller = controller.NewController(core)
	a.initRouter()
}

func (a *App) Run(addr string) {
	log.Printf("serving on %s...", addr)
	log.Fatalf("server error: %s", http.ListenAndServe(addr, withMiddleware(a.Router)))
}
