package http

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/apperr"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/models"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/service"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

type noteResponse struct {
	*models.Note
	WordCount      int `json:"wordCount"`
	CharacterCount int `json:"characterCount"`
	ReadingTime    int `json:"readingTime"`
}

func newNoteResponse(n *models.Note) noteResponse {
	return noteResponse{
		Note:           n,
		WordCount:      n.WordCount(),
		CharacterCount: n.CharacterCount(),
		ReadingTime:    n.ReadingTime(),
	}
}

type noteEnvelope struct {
	Message string       `json:"message,omitempty"`
	Note    noteResponse `json:"note"`
}

type noteListResponse struct {
	Notes      []noteResponse   `json:"notes"`
	Category   string           `json:"category,omitempty"`
	Pagination query.Pagination `json:"pagination"`
}

type tagRequest struct {
	Tag string `json:"tag"`
}

func writeNote(w http.ResponseWriter, status int, message string, n *models.Note) {
	writeJSON(w, status, noteEnvelope{Message: message, Note: newNoteResponse(n)})
}

func writeNotes(w http.ResponseWriter, notes []*models.Note, category string, pagination query.Pagination) {
	out := make([]noteResponse, len(notes))
	for i, n := range notes {
		out[i] = newNoteResponse(n)
	}
	writeJSON(w, http.StatusOK, noteListResponse{Notes: out, Category: category, Pagination: pagination})
}

func parseBool(values url.Values, field string) (*bool, error) {
	v := values.Get(field)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperr.Validation("Validation failed",
			apperr.FieldError{Field: field, Message: field + " must be true or false"})
	}
	return &b, nil
}

func (a *API) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req service.CreateNoteInput
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := a.Service.CreateNote(r.Context(), userID(r), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeNote(w, http.StatusCreated, "Note created successfully", n)
}

func (a *API) handleListNotes(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	p, err := query.Parse(values, service.NoteQuery)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	filter := store.NoteFilter{Category: values.Get("category")}
	archived, err := parseBool(values, "archived")
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if archived != nil {
		filter.Archived = *archived
	}
	if filter.Pinned, err = parseBool(values, "pinned"); err != nil {
		writeAppError(w, r, err)
		return
	}

	notes, pagination, err := a.Service.ListNotes(r.Context(), userID(r), filter, p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeNotes(w, notes, "", pagination)
}

// noteView serves the fixed-filter listings. They accept the same paging and
// sort parameters as the main list.
func (a *API) noteView(w http.ResponseWriter, r *http.Request,
	list func(p query.Params) ([]*models.Note, query.Pagination, error), category string) {
	p, err := query.Parse(r.URL.Query(), service.NoteQuery)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	notes, pagination, err := list(p)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeNotes(w, notes, category, pagination)
}

func (a *API) handlePinnedNotes(w http.ResponseWriter, r *http.Request) {
	a.noteView(w, r, func(p query.Params) ([]*models.Note, query.Pagination, error) {
		return a.Service.PinnedNotes(r.Context(), userID(r), p)
	}, "")
}

func (a *API) handleArchivedNotes(w http.ResponseWriter, r *http.Request) {
	a.noteView(w, r, func(p query.Params) ([]*models.Note, query.Pagination, error) {
		return a.Service.ArchivedNotes(r.Context(), userID(r), p)
	}, "")
}

func (a *API) handleNotesByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	a.noteView(w, r, func(p query.Params) ([]*models.Note, query.Pagination, error) {
		return a.Service.NotesByCategory(r.Context(), userID(r), category, p)
	}, category)
}

func (a *API) handleNoteTags(w http.ResponseWriter, r *http.Request) {
	tags, err := a.Service.NoteTags(r.Context(), userID(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (a *API) handleNoteStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Service.NoteStats(r.Context(), userID(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleGetNote(w http.ResponseWriter, r *http.Request) {
	n, err := a.Service.GetNote(r.Context(), userID(r), chi.URLParam(r, "noteId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeNote(w, http.StatusOK, "", n)
}

func (a *API) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateNoteInput
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := a.Service.UpdateNote(r.Context(), userID(r), chi.URLParam(r, "noteId"), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeNote(w, http.StatusOK, "Note updated successfully", n)
}

func (a *API) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := a.Service.DeleteNote(r.Context(), userID(r), chi.URLParam(r, "noteId")); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Note deleted successfully"})
}

func (a *API) handleTogglePin(w http.ResponseWriter, r *http.Request) {
	n, err := a.Service.TogglePin(r.Context(), userID(r), chi.URLParam(r, "noteId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	message := "Note unpinned successfully"
	if n.IsPinned {
		message = "Note pinned successfully"
	}
	writeNote(w, http.StatusOK, message, n)
}

func (a *API) handleToggleArchive(w http.ResponseWriter, r *http.Request) {
	n, err := a.Service.ToggleArchive(r.Context(), userID(r), chi.URLParam(r, "noteId"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	message := "Note unarchived successfully"
	if n.IsArchived {
		message = "Note archived successfully"
	}
	writeNote(w, http.StatusOK, message, n)
}

func (a *API) handleAddTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := a.Service.AddTag(r.Context(), userID(r), chi.URLParam(r, "noteId"), req.Tag)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeNote(w, http.StatusOK, "Tag added successfully", n)
}

func (a *API) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid tag")
		return
	}
	n, err := a.Service.RemoveTag(r.Context(), userID(r), chi.URLParam(r, "noteId"), tag)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeNote(w, http.StatusOK, "Tag removed successfully", n)
}

func (a *API) handleAddReminder(w http.ResponseWriter, r *http.Request) {
	var req service.ReminderInput
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := a.Service.AddReminder(r.Context(), userID(r), chi.URLParam(r, "noteId"), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeNote(w, http.StatusOK, "Reminder added successfully", n)
}
