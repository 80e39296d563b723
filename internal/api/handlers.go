package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/susu3304/tipbot/internal/db"
)

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("server running successfully"))
}

func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := a.store.ListGroups(r.Context())
	if err != nil {
		a.internalError(w, r, "list groups", err)
		return
	}
	if groups == nil {
		groups = []db.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (a *API) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupIDVar(w, r)
	if !ok {
		return
	}

	group, err := a.store.GetGroup(r.Context(), groupID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		a.internalError(w, r, "get group", err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (a *API) handleListReactions(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupIDVar(w, r)
	if !ok {
		return
	}
	messageID := mux.Vars(r)["message_id"]

	reactions, err := a.store.ListReactions(r.Context(), groupID, messageID)
	if err != nil {
		a.internalError(w, r, "list reactions", err)
		return
	}
	if reactions == nil {
		reactions = []db.Reaction{}
	}
	writeJSON(w, http.StatusOK, reactions)
}

func (a *API) handleListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := a.store.ListPendingRewards(r.Context())
	if err != nil {
		a.internalError(w, r, "list rewards", err)
		return
	}
	if rewards == nil {
		rewards = []db.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (a *API) handleGetReward(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	value, err := a.store.GetReward(r.Context(), username)
	if err != nil {
		a.internalError(w, r, "get reward", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": username,
		"value":    value,
	})
}

func groupIDVar(w http.ResponseWriter, r *http.Request) (int64, bool) {
	groupID, err := strconv.ParseInt(mux.Vars(r)["group_id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group_id")
		return 0, false
	}
	return groupID, true
}

func (a *API) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	a.logger.Error(r.Context(), "admin api query failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
