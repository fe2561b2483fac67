package handlers

import (
	"net/http"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/push"
)

// subscribeRequest mirrors the browser PushSubscription JSON.
type subscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

type broadcastRequest struct {
	Title string `json:"title" validate:"required,max=120"`
	Body  string `json:"body" validate:"max=500"`
	URL   string `json:"url" validate:"omitempty,url"`
	Icon  string `json:"icon" validate:"omitempty,url"`
}

func (a *App) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if a.VAPIDPublicKey == "" {
		a.writeError(w, r, push.ErrDisabled)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"publicKey": a.VAPIDPublicKey})
}

func (a *App) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !a.decode(w, r, &req) {
		return
	}
	sub, err := a.Push.Subscribe(r.Context(), push.SubscribeInput{
		UserID:   a.currentUserID(r),
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"id": sub.ID})
}

func (a *App) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Push.Unsubscribe(r.Context(), req.Endpoint); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.Push.Broadcast(r.Context(), domain.PushPayload{
		Title: req.Title,
		Body:  req.Body,
		URL:   req.URL,
		Icon:  req.Icon,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}
