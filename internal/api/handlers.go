package api

import (
	"net/http"
	"strconv"

	"github.com/wisdomcircle/circled/internal/assets"
	"github.com/wisdomcircle/circled/internal/models"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	user, err := s.identity.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondData(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	token, user, err := s.identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.chat.ListAll(r.Context())
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	respondData(w, http.StatusOK, msgs)
}

type postMessageRequest struct {
	Body string `json:"message"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	msg, err := s.chat.Append(r.Context(), viewerFrom(r.Context()), req.Body)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondData(w, http.StatusCreated, msg)
}

func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	q := models.ProfileQuery{
		City:   r.URL.Query().Get("city"),
		Gender: r.URL.Query().Get("gender"),
		MinAge: queryInt(r, "min_age"),
		MaxAge: queryInt(r, "max_age"),
	}
	entries, err := s.profiles.Directory(r.Context(), q)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, entries)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.Get(r.Context(), viewerFrom(r.Context()).UserID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd models.ProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, s.logger, err)
		return
	}
	p, err := s.profiles.Update(r.Context(), viewerFrom(r.Context()), upd)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondData(w, http.StatusOK, p)
}

type uploadRequest struct {
	Filename string `json:"filename"`
	DataURL  string `json:"data"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	mimeType, data, err := assets.DecodeDataURL(req.DataURL)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	url, err := s.assets.Save(r.Context(), viewerFrom(r.Context()).UserID, req.Filename, mimeType, data)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondData(w, http.StatusCreated, map[string]string{"url": url})
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
