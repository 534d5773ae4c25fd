package app

import "github.com/gorilla/mux"

func (a *App) initRouter() {
	a.Router = mux.NewRouter()

	// health
	a.Router.HandleFunc("/health", a.Controller.Health).Methods("GET", "OPTIONS")

	a.Router.HandleFunc("/session/invites", a.Controller.IssueInvite).Methods("POST", "OPTIONS")
	a.Router.HandleFunc("/session/join", a.Controller.Join).Methods("POST", "OPTIONS")
	a.Router.HandleFunc("/session/leave", a.Controller.Leave).Methods("POST", "OPTIONS")

	a.Router.HandleFunc("/session/media", a.Controller.SetMedia).Methods("PUT", "OPTIONS")
	a.Router.HandleFunc("/session/hand", a.Controller.RaiseHand).Methods("POST", "OPTIONS")
	a.Router.HandleFunc("/session/hand", a.Controller.LowerHand).Methods("DELETE")

	a.Router.HandleFunc("/session/moderate", a.Controller.Moderate).Methods("POST", "OPTIONS")

	a.Router.HandleFunc("/session/snapshot", a.Controller.GetSnapshot).Methods("GET", "OPTIONS")
	a.Router.HandleFunc("/session/stats", a.Controller.GetStats).Methods("GET", "OPTIONS")
	a.Router.HandleFunc("/session/events", a.Controller.Events).Methods("GET")

	a.Router.HandleFunc("/version", a.Controller.GetVersion).Methods("GET", "OPTIONS")
}
