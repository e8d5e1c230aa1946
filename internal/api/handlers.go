package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"veo-prompt-studio/internal/apperr"
	"veo-prompt-studio/internal/prompt"
)

type optionsResponse struct {
	Options      map[string][]string `json:"options"`
	OutputModels []string            `json:"outputModels"`
	Templates    []string            `json:"templates"`
}

type sessionResponse struct {
	ID     string         `json:"id"`
	State  prompt.State   `json:"state"`
	Output *prompt.Output `json:"output,omitempty"`
}

type createdResponse struct {
	ID    string       `json:"id"`
	State prompt.State `json:"state"`
}

type valueRequest struct {
	Value string `json:"value"`
}

type templateRequest struct {
	Name string `json:"name"`
}

type fieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, optionsResponse{
		Options:      prompt.Options(),
		OutputModels: prompt.OutputModels(),
		Templates:    prompt.TemplateNames(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, State: sess.Snapshot()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	resp := sessionResponse{ID: sess.ID, State: sess.Snapshot()}
	if out := sess.Output(); !out.IsZero() {
		resp.Output = &out
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st, err := sess.Reset()
	s.respondState(w, sess.ID, st, err)
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req valueRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := sess.SetField(mux.Vars(r)["key"], req.Value)
	s.respondState(w, sess.ID, st, err)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if _, ok := prompt.LookupTemplate(req.Name); !ok && req.Name != "" {
		s.writeError(w, apperr.NotFound("template tidak ditemukan"))
		return
	}
	st, err := sess.ApplyTemplate(req.Name)
	s.respondState(w, sess.ID, st, err)
}

func (s *Server) handleAddCharacter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	id, st, err := sess.AddCharacter()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id, State: st})
}

func (s *Server) handleUpdateCharacter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req fieldRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := sess.UpdateCharacter(mux.Vars(r)["cid"], req.Field, req.Value)
	s.respondState(w, sess.ID, st, err)
}

func (s *Server) handleRemoveCharacter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st, err := sess.RemoveCharacter(mux.Vars(r)["cid"])
	s.respondState(w, sess.ID, st, err)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	slot, err := parseSlot(mux.Vars(r)["slot"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, apperr.Validation("file gambar tidak ditemukan", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, apperr.Validation("file gambar terlalu besar", err))
		return
	}

	st, err := sess.UploadImage(mux.Vars(r)["cid"], slot, header.Filename, data, s.images)
	if err != nil {
		s.logger.Warn("image upload rejected", "session_id", sess.ID, "slot", slot, "err", err)
	}
	s.respondState(w, sess.ID, st, err)
}

func (s *Server) handleClearImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	slot, err := parseSlot(mux.Vars(r)["slot"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	st, err := sess.ClearImage(mux.Vars(r)["cid"], slot)
	s.respondState(w, sess.ID, st, err)
}

func (s *Server) handleAddDialogue(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	id, st, err := sess.AddDialogueLine()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id, State: st})
}

func (s *Server) handleUpdateDialogue(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req fieldRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := sess.UpdateDialogueLine(mux.Vars(r)["did"], req.Field, req.Value)
	s.respondState(w, sess.ID, st, err)
}

func (s *Server) handleRemoveDialogue(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st, err := sess.RemoveDialogueLine(mux.Vars(r)["did"])
	s.respondState(w, sess.ID, st, err)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	out, err := sess.Render()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleExport serves the copy action. Nothing to copy is a 204.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	tab := q.Get("tab")
	if tab == "" {
		tab = prompt.TabText
	}
	lang := q.Get("lang")
	if lang == "" {
		lang = prompt.LangID
	}

	text := sess.Export(tab, lang)
	if strings.TrimSpace(text) == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	contentType := "text/plain; charset=utf-8"
	if tab == prompt.TabJSON {
		contentType = "application/json; charset=utf-8"
	}
	w.Header().Set("content-type", contentType)
	_, _ = io.WriteString(w, text)
}

func (s *Server) handleInspire(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if s.inspirer == nil {
		s.writeError(w, apperr.External("Gagal mendapatkan inspirasi. Silakan coba lagi.", errors.New("no generator configured")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	idea, err := s.inspirer.Inspire(ctx)
	if err != nil {
		if isClientGone(err) {
			return
		}
		s.writeError(w, err)
		return
	}
	st, err := sess.SetField("mainDescription", idea)
	s.respondState(w, sess.ID, st, err)
}

func (s *Server) respondState(w http.ResponseWriter, id string, st prompt.State, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, State: st})
}

func parseSlot(raw string) (prompt.ImageSlot, error) {
	switch slot := prompt.ImageSlot(raw); slot {
	case prompt.SlotReference, prompt.SlotClothingReference:
		return slot, nil
	}
	return "", apperr.Validation("slot gambar tidak dikenal", nil)
}
