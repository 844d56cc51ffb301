package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/app/chat"
	"github.com/taskdeck/taskdeck/internal/app/tasks"
	"github.com/taskdeck/taskdeck/internal/domain"
)

type Server struct {
	tasksSvc *tasks.Service
	chatSvc  *chat.Service
}

func NewServer(tasksSvc *tasks.Service, chatSvc *chat.Service) http.Handler {
	s := &Server{tasksSvc: tasksSvc, chatSvc: chatSvc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /api/tasks        → GET: list, POST: create, PUT: update (body id),
	//                     DELETE: delete (?id=)
	// /api/tasks/{id}   → GET / PUT / DELETE
	mux.HandleFunc("/api/tasks", s.handleTasks)
	mux.HandleFunc("/api/tasks/", s.handleTaskWithID)

	mux.HandleFunc("/api/groups", s.handleGroups)
	mux.HandleFunc("/api/groups/", s.handleGroupWithID)

	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/categories/", s.handleCategoryWithID)

	// /api/chat         → POST: create thread, GET: list newest-first
	// /api/chat/{id}    → POST: run a turn (SSE), GET: read thread,
	//                     PATCH: rename, DELETE
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/chat/", s.handleChatWithID)

	return chainMiddlewares(mux, withRequestID, withLogging, withCORS)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type taskRequest struct {
	ID          string  `json:"id,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
	GroupID     *string `json:"groupId,omitempty"`
	Date        *string `json:"date,omitempty"`
}

func (req *taskRequest) toPatch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		st := domain.Status(*req.Status)
		patch.Status = &st
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		patch.Priority = &p
	}
	if req.CategoryID != nil {
		c := domain.CategoryID(*req.CategoryID)
		patch.CategoryID = &c
	}
	if req.GroupID != nil {
		g := domain.GroupID(*req.GroupID)
		patch.GroupID = &g
	}
	if req.Date != nil && *req.Date != "" {
		t, err := parseDate(*req.Date)
		if err != nil {
			return patch, err
		}
		patch.Due = t
	}
	return patch, nil
}

type groupRequest struct {
	ID   string  `json:"id,omitempty"`
	Name *string `json:"name,omitempty"`
}

type categoryRequest struct {
	ID    string  `json:"id,omitempty"`
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type chatTurnRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

func parseDate(s string) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil, domain.NewValidationError("date", "must be an ISO 8601 date")
		}
	}
	return &t, nil
}

// ─────────────────────────────────────────────
// Tasks
// ─────────────────────────────────────────────

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.tasksSvc.ListTasks(r.Context())
		if err != nil {
			internalError(w, "Failed to fetch tasks")
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(list))

	case http.MethodPost:
		var req taskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		in := tasks.CreateTaskInput{}
		if req.Title != nil {
			in.Title = *req.Title
		}
		if req.Description != nil {
			in.Description = *req.Description
		}
		if req.Status != nil {
			in.Status = domain.Status(*req.Status)
		}
		if req.Priority != nil {
			in.Priority = domain.Priority(*req.Priority)
		}
		if req.CategoryID != nil {
			in.CategoryID = domain.CategoryID(*req.CategoryID)
		}
		if req.GroupID != nil {
			in.GroupID = domain.GroupID(*req.GroupID)
		}
		if req.Date != nil && *req.Date != "" {
			due, err := parseDate(*req.Date)
			if err != nil {
				badRequest(w, err.Error())
				return
			}
			in.Due = due
		}
		task, err := s.tasksSvc.CreateTask(r.Context(), in)
		if err != nil {
			if domain.IsValidation(err) {
				badRequest(w, err.Error())
				return
			}
			internalError(w, "Failed to create task")
			return
		}
		writeJSON(w, http.StatusCreated, task)

	case http.MethodPut:
		var req taskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		if req.ID == "" {
			badRequest(w, "Task ID is required")
			return
		}
		s.updateTask(w, r, domain.TaskID(req.ID), req)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			badRequest(w, "Task ID is required")
			return
		}
		if err := s.tasksSvc.DeleteTask(r.Context(), domain.TaskID(id)); err != nil {
			internalError(w, "Failed to delete task")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTaskWithID(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/api/tasks/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := s.tasksSvc.GetTask(r.Context(), domain.TaskID(id))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				notFound(w, "Task not found")
				return
			}
			internalError(w, "Failed to fetch task")
			return
		}
		writeJSON(w, http.StatusOK, task)

	case http.MethodPut:
		var req taskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		s.updateTask(w, r, domain.TaskID(id), req)

	case http.MethodDelete:
		if err := s.tasksSvc.DeleteTask(r.Context(), domain.TaskID(id)); err != nil {
			internalError(w, "Failed to delete task")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, id domain.TaskID, req taskRequest) {
	patch, err := req.toPatch()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	task, err := s.tasksSvc.UpdateTask(r.Context(), id, patch)
	if err != nil {
		if domain.IsValidation(err) || errors.Is(err, domain.ErrGroupImmutable) {
			badRequest(w, err.Error())
			return
		}
		internalError(w, "Failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ─────────────────────────────────────────────
// Groups
// ─────────────────────────────────────────────

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.tasksSvc.ListGroups(r.Context())
		if err != nil {
			internalError(w, "Failed to fetch groups")
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(list))

	case http.MethodPost:
		var req groupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		name := ""
		if req.Name != nil {
			name = *req.Name
		}
		group, err := s.tasksSvc.CreateGroup(r.Context(), name)
		if err != nil {
			if domain.IsValidation(err) {
				badRequest(w, err.Error())
				return
			}
			internalError(w, "Failed to create group")
			return
		}
		writeJSON(w, http.StatusCreated, group)

	case http.MethodPut:
		var req groupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		if req.ID == "" {
			badRequest(w, "Group ID is required")
			return
		}
		s.updateGroup(w, r, domain.GroupID(req.ID), req)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			badRequest(w, "Group ID is required")
			return
		}
		s.deleteGroup(w, r, domain.GroupID(id))

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleGroupWithID(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/api/groups/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		group, err := s.tasksSvc.GetGroup(r.Context(), domain.GroupID(id))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				notFound(w, "Group not found")
				return
			}
			internalError(w, "Failed to fetch group")
			return
		}
		writeJSON(w, http.StatusOK, group)

	case http.MethodPut:
		var req groupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		s.updateGroup(w, r, domain.GroupID(id), req)

	case http.MethodDelete:
		s.deleteGroup(w, r, domain.GroupID(id))

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request, id domain.GroupID, req groupRequest) {
	group, err := s.tasksSvc.UpdateGroup(r.Context(), id, domain.GroupPatch{Name: req.Name})
	if err != nil {
		if domain.IsValidation(err) {
			badRequest(w, err.Error())
			return
		}
		internalError(w, "Failed to update group")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request, id domain.GroupID) {
	if err := s.tasksSvc.DeleteGroup(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrGroupNotEmpty) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		internalError(w, "Failed to delete group")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Group deleted"})
}

// ─────────────────────────────────────────────
// Categories
// ─────────────────────────────────────────────

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.tasksSvc.ListCategories(r.Context())
		if err != nil {
			internalError(w, "Failed to fetch categories")
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(list))

	case http.MethodPost:
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		name, color := "", ""
		if req.Name != nil {
			name = *req.Name
		}
		if req.Color != nil {
			color = *req.Color
		}
		category, err := s.tasksSvc.CreateCategory(r.Context(), name, color)
		if err != nil {
			if domain.IsValidation(err) {
				badRequest(w, err.Error())
				return
			}
			internalError(w, "Failed to create category")
			return
		}
		writeJSON(w, http.StatusCreated, category)

	case http.MethodPut:
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		if req.ID == "" {
			badRequest(w, "Category ID is required")
			return
		}
		s.updateCategory(w, r, domain.CategoryID(req.ID), req)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			badRequest(w, "Category ID is required")
			return
		}
		if err := s.tasksSvc.DeleteCategory(r.Context(), domain.CategoryID(id)); err != nil {
			internalError(w, "Failed to delete category")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCategoryWithID(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/api/categories/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		category, err := s.tasksSvc.GetCategory(r.Context(), domain.CategoryID(id))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				notFound(w, "Category not found")
				return
			}
			internalError(w, "Failed to fetch category")
			return
		}
		writeJSON(w, http.StatusOK, category)

	case http.MethodPut:
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		s.updateCategory(w, r, domain.CategoryID(id), req)

	case http.MethodDelete:
		if err := s.tasksSvc.DeleteCategory(r.Context(), domain.CategoryID(id)); err != nil {
			internalError(w, "Failed to delete category")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request, id domain.CategoryID, req categoryRequest) {
	category, err := s.tasksSvc.UpdateCategory(r.Context(), id, domain.CategoryPatch{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		if domain.IsValidation(err) {
			badRequest(w, err.Error())
			return
		}
		internalError(w, "Failed to update category")
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// ─────────────────────────────────────────────
// Chat
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req titleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		thread, err := s.chatSvc.CreateThread(r.Context(), req.Title)
		if err != nil {
			if domain.IsValidation(err) {
				badRequest(w, "Invalid or missing title")
				return
			}
			internalError(w, "Failed to create chat thread")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": string(thread.ID)})

	case http.MethodGet:
		threads, err := s.chatSvc.ListThreads(r.Context())
		if err != nil {
			internalError(w, "Failed to fetch chat threads")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": emptyIfNil(threads)})

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleChatWithID(w http.ResponseWriter, r *http.Request) {
	id := pathID(r.URL.Path, "/api/chat/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	threadID := domain.ThreadID(id)

	switch r.Method {
	case http.MethodPost:
		s.handleChatTurn(w, r, threadID)

	case http.MethodGet:
		thread, err := s.chatSvc.GetThread(r.Context(), threadID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				notFound(w, "Chat thread not found")
				return
			}
			internalError(w, "Failed to fetch chat thread")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"thread": thread.Thread})

	case http.MethodPatch:
		var req titleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		thread, err := s.chatSvc.RenameThread(r.Context(), threadID, req.Title)
		if err != nil {
			if domain.IsValidation(err) {
				badRequest(w, "Invalid or missing title")
				return
			}
			internalError(w, "Failed to update chat thread")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": thread})

	case http.MethodDelete:
		if err := s.chatSvc.DeleteThread(r.Context(), threadID); err != nil {
			internalError(w, "Failed to delete chat thread")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Chat thread deleted"})

	default:
		methodNotAllowed(w)
	}
}

// handleChatTurn runs one agentic turn and streams incremental output back
// as Server-Sent Events.
func (s *Server) handleChatTurn(w http.ResponseWriter, r *http.Request, id domain.ThreadID) {
	var req chatTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		badRequest(w, "messages are required")
		return
	}

	stream, err := newSSEWriter(w)
	if err != nil {
		internalError(w, "streaming unsupported")
		return
	}

	result, err := s.chatSvc.RunTurn(r.Context(), id, req.Messages, stream.WriteEvent)
	if err != nil {
		stream.WriteError(err)
		return
	}
	stream.WriteDone(result.Truncated)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

// pathID extracts the trailing identifier of a single-segment subpath.
func pathID(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

// emptyIfNil keeps list responses as [] rather than null.
func emptyIfNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
