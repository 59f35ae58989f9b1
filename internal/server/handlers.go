package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/curation-cli/internal/model"
	"github.com/sells-group/curation-cli/internal/session"
	"github.com/sells-group/curation-cli/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type itemView struct {
	ID               string `json:"id"`
	AssetURL         string `json:"asset_url"`
	OriginalFilename string `json:"original_filename"`
	SourceCount      int    `json:"source_count"`
	Reviewed         bool   `json:"reviewed"`
}

type listItemsResponse struct {
	Items    []itemView `json:"items"`
	Total    int        `json:"total"`
	Reviewed int        `json:"reviewed"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ItemFilter{Mode: store.Mode(q.Get("mode"))}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}

	batch, err := s.store.ListItems(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list items", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list items failed")
		return
	}

	resp := listItemsResponse{
		Items:    make([]itemView, 0, len(batch.Items)),
		Total:    batch.Total,
		Reviewed: batch.Reviewed,
	}
	for _, iws := range batch.Items {
		resp.Items = append(resp.Items, itemView{
			ID:               iws.Item.ID,
			AssetURL:         iws.Item.AssetURL(s.opts.AssetsBaseURL),
			OriginalFilename: iws.Item.OriginalFilename,
			SourceCount:      len(iws.Sources),
			Reviewed:         iws.Reviewed,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type openSessionRequest struct {
	ItemID string `json:"item_id"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	iws, err := s.store.GetItem(r.Context(), req.ItemID)
	if eris.Is(err, store.ErrItemNotFound) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		zap.L().Error("server: get item", zap.String("item_id", req.ItemID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load item failed")
		return
	}
	if len(iws.Sources) == 0 {
		writeError(w, http.StatusConflict, "item has no source analyses")
		return
	}

	existing, err := s.store.GetEntry(r.Context(), req.ItemID)
	if err != nil && !eris.Is(err, store.ErrEntryNotFound) {
		zap.L().Error("server: get entry", zap.String("item_id", req.ItemID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load entry failed")
		return
	}

	// Opening a session for an item another session holds closes the old
	// one; its scheduler must be stopped here too. Session background
	// work runs under the server's lifetime context: the request context
	// is canceled as soon as this handler returns, which would kill the
	// autosave loop and the in-flight similarity ranking with it.
	prev := s.sessions.GetByItem(req.ItemID)
	sess := s.sessions.Open(s.baseCtx, iws.Item, iws.Sources, existing)
	if prev != nil {
		s.dropScheduler(prev.ID)
	}
	s.startScheduler(s.baseCtx, sess)

	zap.L().Info("server: session opened",
		zap.String("session_id", sess.ID),
		zap.String("item_id", req.ItemID),
		zap.Int("sources", len(iws.Sources)),
	)
	writeJSON(w, http.StatusCreated, s.sessionView(sess))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := chi.URLParam(r, "sessionID")
	sess := s.sessions.Get(id)
	if sess == nil || sess.Closed() {
		writeError(w, http.StatusNotFound, "session not found")
		return nil
	}
	return sess
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	sess.Close()
	s.dropScheduler(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var cmd session.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid command body")
		return
	}
	if err := sess.Apply(cmd); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if sched := s.scheduler(sess.ID); sched != nil {
		sched.MarkActivity()
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

type saveResponse struct {
	EntryID  string `json:"entry_id"`
	Version  int    `json:"version"`
	Reviewed int    `json:"reviewed"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	entry := sess.Assemble()
	reviewed, err := s.store.SaveEntry(r.Context(), entry)
	if err != nil {
		zap.L().Error("server: save entry", zap.String("session_id", sess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{
		EntryID:  entry.ID,
		Version:  entry.Version,
		Reviewed: reviewed,
	})
}

type activityRequest struct {
	Visible *bool `json:"visible,omitempty"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	sched := s.scheduler(sess.ID)
	if sched == nil {
		writeError(w, http.StatusNotFound, "session has no scheduler")
		return
	}

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Visible != nil {
		sched.SetVisible(*req.Visible)
	}
	sched.MarkActivity()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKeepalive(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	s.touch(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

type sourceView struct {
	Index           int    `json:"index"`
	Producer        string `json:"producer"`
	ProducerVersion string `json:"producer_version,omitempty"`
}

type fieldView struct {
	Key        string                    `json:"key"`
	Label      string                    `json:"label"`
	Kind       string                    `json:"kind"`
	Candidates []session.RankedCandidate `json:"candidates,omitempty"`
	List       []model.Candidate         `json:"list,omitempty"`
	Ranked     *rankedView               `json:"ranked,omitempty"`
}

type rankedView struct {
	Labels         []string `json:"labels"`
	SourceIndex    *int     `json:"source_index,omitempty"`
	ManuallyEdited bool     `json:"manually_edited"`
}

type sectionView struct {
	Name   string      `json:"name"`
	Fields []fieldView `json:"fields"`
}

type sessionView struct {
	SessionID string        `json:"session_id"`
	Item      itemView      `json:"item"`
	Sources   []sourceView  `json:"sources"`
	Sections  []sectionView `json:"sections"`
}

func (s *Server) sessionView(sess *session.Session) sessionView {
	item := sess.Item()
	view := sessionView{
		SessionID: sess.ID,
		Item: itemView{
			ID:               item.ID,
			AssetURL:         item.AssetURL(s.opts.AssetsBaseURL),
			OriginalFilename: item.OriginalFilename,
			SourceCount:      len(sess.Sources()),
		},
	}
	for i, src := range sess.Sources() {
		view.Sources = append(view.Sources, sourceView{
			Index:           i,
			Producer:        src.Producer,
			ProducerVersion: src.ProducerVersion,
		})
	}

	reg := s.sessions.Registry()
	for _, name := range reg.Sections() {
		sec := sectionView{Name: name}
		for _, spec := range reg.Section(name) {
			fv := fieldView{Key: spec.Key, Label: spec.Label, Kind: string(spec.Kind)}
			switch spec.Kind {
			case model.KindScalar:
				if cands, err := sess.FieldCandidates(spec.Key); err == nil {
					fv.Candidates = cands
				}
			case model.KindList:
				if cs, err := sess.ListCandidates(spec.Key); err == nil {
					fv.List = cs.Candidates
				}
			case model.KindRanked:
				list := sess.Saliency()
				fv.Ranked = &rankedView{
					Labels:         list.Labels,
					SourceIndex:    list.SourceIndex,
					ManuallyEdited: list.ManuallyEdited,
				}
			}
			sec.Fields = append(sec.Fields, fv)
		}
		view.Sections = append(view.Sections, sec)
	}
	return view
}
