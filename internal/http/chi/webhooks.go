package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/google/uuid"
	"github.com/marcelsud/webhook-viewer/stream"
	"github.com/marcelsud/webhook-viewer/webhook"
	"github.com/marcelsud/webhook-viewer/webhook/payload"
)

/* HTTP layer DTOs for webhook API
 * Separate from domain entities to avoid leaking internal structure
 */

// captureResponse represents the API response when a webhook is received
type captureResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Storage   string `json:"storage"`
}

// listResponse represents a page of stored webhooks
type listResponse struct {
	Success       bool             `json:"success"`
	Data          []webhook.Record `json:"data"`
	Count         int              `json:"count"`
	Storage       string           `json:"storage"`
	UsingFallback bool             `json:"usingFallback"`
}

type getResponse struct {
	Success bool           `json:"success"`
	Data    webhook.Record `json:"data"`
	Storage string         `json:"storage"`
}

// deleteRequest represents the payload of a bulk delete
type deleteRequest struct {
	IDs []string `json:"ids"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Deleted int    `json:"deleted"`
	Storage string `json:"storage"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// captureWebhook handles ANY /api/webhook and /api/webhook/*
func (a *api) captureWebhook() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Read request body
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		rec := webhook.Record{
			ID:        uuid.NewString(),
			Method:    r.Method,
			URL:       r.URL.RequestURI(),
			Headers:   flattenHeaders(r),
			Body:      payload.Decode(r.Header.Get("Content-Type"), body),
			Timestamp: a.now(),
		}

		tier := a.service.Store(r.Context(), rec)
		a.metrics.RecordStored(r.Context(), tier)

		delivered := a.hub.PublishAdded(rec)
		a.metrics.RecordBroadcast(r.Context(), stream.TypeWebhook, delivered)

		logger := httplog.LogEntry(r.Context())
		logger.Info().
			Str("id", rec.ID).
			Str("method", rec.Method).
			Str("storage", tier.String()).
			Int("delivered", delivered).
			Msg("webhook received")

		writeJSON(w, http.StatusOK, captureResponse{
			Success:   true,
			Message:   "Webhook received and stored",
			ID:        rec.ID,
			Timestamp: rec.Timestamp.UTC().Format(webhook.TimestampLayout),
			Storage:   tier.String(),
		})
	})
}

// listWebhooks handles GET /api/webhooks?limit=N
func (a *api) listWebhooks() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Missing or unusable limits fall back to the default page size
		limit := a.listLimit
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
			limit = n
		}

		records, tier := a.service.List(r.Context(), limit)
		if records == nil {
			records = []webhook.Record{}
		}

		writeJSON(w, http.StatusOK, listResponse{
			Success:       true,
			Data:          records,
			Count:         len(records),
			Storage:       tier.String(),
			UsingFallback: tier == webhook.Fallback,
		})
	})
}

// getWebhook handles GET /api/webhooks/{id}
func (a *api) getWebhook() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}

		rec, tier := a.service.Get(r.Context(), id)
		if rec == nil {
			http.Error(w, "webhook not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, getResponse{
			Success: true,
			Data:    *rec,
			Storage: tier.String(),
		})
	})
}

// deleteWebhooks handles DELETE /api/webhooks with {"ids": [...]}
func (a *api) deleteWebhooks() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req deleteRequest
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.maxBodyBytes)).Decode(&req)
		if err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		ids := compactIDs(req.IDs)
		if len(ids) == 0 {
			http.Error(w, "ids must be a non-empty array", http.StatusBadRequest)
			return
		}

		tier := a.service.Delete(r.Context(), ids)

		delivered := a.hub.PublishDeleted(ids)
		a.metrics.RecordBroadcast(r.Context(), stream.TypeWebhookDeleted, delivered)

		writeJSON(w, http.StatusOK, deleteResponse{
			Success: true,
			Deleted: len(ids),
			Storage: tier.String(),
		})
	})
}

// health handles GET /health
func (a *api) health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:  "healthy",
			Storage: a.service.Decide(r.Context()).String(),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// flattenHeaders joins repeated values with ", " and lowercases the names
func flattenHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, len(r.Header)+1)
	for key, values := range r.Header {
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}
	// Go moves Host out of the header map
	if r.Host != "" {
		headers["host"] = r.Host
	}
	return headers
}

// compactIDs drops empty and repeated ids, keeping the first occurrence order
func compactIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
