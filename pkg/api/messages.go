package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatledger/pkg/logger"
	"chatledger/pkg/models"
	"chatledger/pkg/store"
	"chatledger/pkg/utils"
	"chatledger/pkg/validation"
)

type appendMessageRequest struct {
	Text string `json:"text"`
}

type appendMessageResponse struct {
	ID       string `json:"id"`
	Chat     string `json:"chat"`
	Awaiting bool   `json:"awaiting"`
}

type viewResponse struct {
	Chat     models.Chat    `json:"chat"`
	Entries  []models.Entry `json:"entries"`
	Awaiting []string       `json:"awaiting"`
}

// AppendMessage appends a user message to the chat's ledger and starts
// async reply acquisition. The message is durable when the 202 goes
// out; the reply shows up in the view later.
func (h *Handlers) AppendMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req appendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid message payload")
		return
	}
	if err := validation.ValidateMessageText(req.Text); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.Orc.Submit(r.Context(), id, req.Text)
	if err == store.ErrNotFound {
		utils.JSONError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		logger.Error("message_append_failed", "chat", id, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "append message failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusAccepted, appendMessageResponse{
		ID:       m.ID,
		Chat:     m.Chat,
		Awaiting: true,
	})
}

// ChatView returns the merged time-ordered sequence of persisted user
// messages and in-memory replies, plus the message ids still awaiting a
// reply.
func (h *Handlers) ChatView(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := h.Dir.GetChat(id)
	if err == store.ErrNotFound {
		utils.JSONError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		logger.Error("chat_view_failed", "chat", id, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "view failed")
		return
	}
	entries, err := h.Dir.View(id)
	if err != nil {
		logger.Error("chat_view_failed", "chat", id, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "view failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, viewResponse{
		Chat:     c,
		Entries:  entries,
		Awaiting: h.Orc.Awaiting(id),
	})
}
