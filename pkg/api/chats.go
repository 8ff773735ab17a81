package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"chatledger/pkg/logger"
	"chatledger/pkg/store"
	"chatledger/pkg/telemetry"
	"chatledger/pkg/utils"
	"chatledger/pkg/validation"
)

type createChatRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
}

// CreateChat inserts a chat and makes it active. Supplying an existing
// id replaces that chat wholesale.
func (h *Handlers) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	// empty body is fine: id and title are both optional
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.JSONError(w, http.StatusBadRequest, "invalid chat payload")
		return
	}
	if err := validation.ValidateChatTitle(req.Title); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.Dir.CreateChat(req.ID, req.Title)
	if err != nil {
		logger.Error("chat_create_failed", "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "create chat failed")
		return
	}
	telemetry.ChatsCreated.Inc()
	_ = utils.JSONWrite(w, http.StatusCreated, c)
}

// ListChats returns all chats, most recently touched first.
func (h *Handlers) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.Dir.ListChats()
	if err != nil {
		logger.Error("chat_list_failed", "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "list chats failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

func (h *Handlers) GetChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := h.Dir.GetChat(id)
	if err == store.ErrNotFound {
		utils.JSONError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		logger.Error("chat_get_failed", "chat", id, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "get chat failed")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

func (h *Handlers) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.Dir.GetChat(id); err == store.ErrNotFound {
		utils.JSONError(w, http.StatusNotFound, "chat not found")
		return
	} else if err != nil {
		logger.Error("chat_delete_failed", "chat", id, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "delete chat failed")
		return
	}
	if err := h.Dir.DeleteChat(id); err != nil {
		logger.Error("chat_delete_failed", "chat", id, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "delete chat failed")
		return
	}
	telemetry.ChatsDeleted.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// ActivateChat points the active pointer at the chat. Unknown ids leave
// the pointer untouched; the call still succeeds.
func (h *Handlers) ActivateChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Dir.SwitchActive(id); err != nil {
		logger.Error("chat_activate_failed", "chat", id, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "activate chat failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActiveChat returns the active chat, or null when none is set.
func (h *Handlers) ActiveChat(w http.ResponseWriter, r *http.Request) {
	c, ok, err := h.Dir.ActiveChat()
	if err != nil {
		logger.Error("active_chat_failed", "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "get active chat failed")
		return
	}
	if !ok {
		_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"active": nil})
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"active": c})
}
