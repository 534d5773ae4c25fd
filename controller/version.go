package controller

import (
	"encoding/json"
	"net/http"

	"github.com/atlantiplex/stage-api/version"
)

func (c *Controller) GetVersion(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(version.Get())
}
