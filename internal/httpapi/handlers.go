package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"Herald/internal/domain"
	"Herald/internal/usecase"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if job := q.Get("job"); job != "" {
		report, err := h.deps.Dispatcher.Dispatch(r.Context(), job)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	switch action := q.Get("action"); action {
	case "preview":
		page, err := h.deps.Exporter.Preview(r.Context(), q.Get("id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, page)
	case "export":
		export, err := h.deps.Exporter.Export(r.Context(), q.Get("id"), q.Get("format"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(export.Body)
	case "lists":
		lists, err := h.deps.Handoff.Lists(r.Context())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lists": lists})
	case "":
		h.writeError(w, r, domain.Invalid("action", "one of action or job is required"))
	default:
		h.writeError(w, r, domain.Invalid("action", "unknown action %q", action))
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, domain.Invalid("", "read body: %v", err))
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.writeError(w, r, domain.Invalid("", "malformed JSON body: %v", err))
		return
	}

	switch env.Action {
	case "":
		h.generate(w, r, body)
	case actionSendEditorialPrompt:
		h.sendPrompt(w, r, body)
	case actionSubmitEditorial:
		h.submitEditorial(w, r, body)
	case actionSendfoxSend:
		h.handoff(w, r, body)
	case actionAggregateIntelligence:
		h.aggregate(w, r)
	case actionExecuteAgent:
		h.executeAgent(w, r, body)
	case actionUpdateEdition:
		h.updateEdition(w, r, body)
	default:
		h.writeError(w, r, domain.Invalid("action", "unknown action %q", env.Action))
	}
}

// decode unmarshals body into req and validates it.
func decode(body []byte, req any) error {
	if err := json.Unmarshal(body, req); err != nil {
		return domain.Invalid("", "malformed JSON body: %v", err)
	}
	return check(req)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, body []byte) {
	var req generateRequest
	if err := decode(body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.deps.Generator.Generate(r.Context(), usecase.GenerateRequest{
		EditionType: domain.EditionType(req.EditionType),
		EditionID:   strings.TrimSpace(req.EditionID),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (h *Handler) sendPrompt(w http.ResponseWriter, r *http.Request, body []byte) {
	var req promptRequest
	if err := decode(body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.deps.Editorial.SendPrompt(r.Context(), req.EditionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) submitEditorial(w http.ResponseWriter, r *http.Request, body []byte) {
	var req editorialRequest
	if err := decode(body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	edition, err := h.deps.Editorial.Submit(r.Context(), req.EditionID, req.Topic, req.Takeaway)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"edition": edition})
}

func (h *Handler) handoff(w http.ResponseWriter, r *http.Request, body []byte) {
	var req handoffRequest
	if err := decode(body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.deps.Handoff.Prepare(r.Context(), req.EditionID, strings.TrimSpace(req.ListID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request) {
	result, err := h.deps.Aggregator.Run(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) executeAgent(w http.ResponseWriter, r *http.Request, body []byte) {
	var req agentRequest
	if err := decode(body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.deps.Agents.Execute(r.Context(), domain.AgentRequest{
		AgentType:      domain.AgentType(req.AgentType),
		Title:          req.Title,
		Description:    req.Description,
		TargetPlatform: req.TargetPlatform,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) updateEdition(w http.ResponseWriter, r *http.Request, body []byte) {
	var req updateRequest
	if err := decode(body, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	edition, err := h.deps.Lifecycle.Advance(r.Context(), req.EditionID,
		domain.EditionStatus(strings.ToLower(strings.TrimSpace(req.Status))), req.ScheduledFor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"edition": edition})
}
