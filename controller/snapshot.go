package controller

import (
	"encoding/json"
	"net/http"
)

// GetSnapshot returns the full committed state plus the latest sequence
// number, for UIs that prefer polling over the event stream.
func (c *Controller) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(c.Core.Snapshot())
}

// GetStats exposes the core's counters.
func (c *Controller) GetStats(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(c.Core.Counters())
}
