package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/minio/minio-go/v7"

	"github.com/conveyor-data/conveyor-go/internal/definition"
	"github.com/conveyor-data/conveyor-go/internal/domain"
	"github.com/conveyor-data/conveyor-go/internal/platform/auditlog"
	"github.com/conveyor-data/conveyor-go/internal/platform/auth"
	"github.com/conveyor-data/conveyor-go/internal/platform/objectstore"
	"github.com/conveyor-data/conveyor-go/internal/repo"
	repopg "github.com/conveyor-data/conveyor-go/internal/repo/postgres"
)

type registryAPI struct {
	logger         *slog.Logger
	db             *sql.DB
	store          *minio.Client
	storeCfg       objectstore.Config
	uploadMaxBytes int64
}

func newRegistryAPI(logger *slog.Logger, db *sql.DB, store *minio.Client, storeCfg objectstore.Config) *registryAPI {
	return &registryAPI{
		logger:         logger,
		db:             db,
		store:          store,
		storeCfg:       storeCfg,
		uploadMaxBytes: 50 << 20, // 50 MiB
	}
}

func (api *registryAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /scripts/upload", api.handleUploadScript)

	mux.HandleFunc("GET /pipelines", api.handleListPipelines)
	mux.HandleFunc("POST /pipelines", api.handleCreatePipeline)
	mux.HandleFunc("GET /pipelines/{pipeline_id}", api.handleGetPipeline)
}

type scriptUpload struct {
	URI           string    `json:"uri"`
	Bucket        string    `json:"bucket"`
	Key           string    `json:"key"`
	SizeBytes     int64     `json:"size_bytes"`
	ContentSHA256 string    `json:"content_sha256"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
}

type pipelineStep struct {
	StepID          string   `json:"step_id"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Ordinal         int      `json:"ordinal"`
	StepString      string   `json:"step_string"`
	InputURI        string   `json:"input_uri,omitempty"`
	OutputURI       string   `json:"output_uri"`
	AdditionalFiles []string `json:"additional_files"`
}

type pipeline struct {
	PipelineID  string         `json:"pipeline_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	AMIVersion  string         `json:"ami_version"`
	RunID       string         `json:"run_id"`
	CreatedAt   time.Time      `json:"created_at"`
	CreatedBy   string         `json:"created_by"`
	Steps       []pipelineStep `json:"steps,omitempty"`
}

func renderPipeline(p domain.Pipeline, withSteps bool) pipeline {
	out := pipeline{
		PipelineID:  p.ID,
		Name:        p.Name,
		Description: p.Description,
		AMIVersion:  p.AMIVersion,
		RunID:       p.RunID,
		CreatedAt:   p.CreatedAt,
		CreatedBy:   p.CreatedBy,
	}
	if !withSteps {
		return out
	}
	out.Steps = make([]pipelineStep, 0, len(p.Steps))
	for _, step := range p.Steps {
		files := step.AdditionalFiles
		if files == nil {
			files = []string{}
		}
		out.Steps = append(out.Steps, pipelineStep{
			StepID:          step.ID,
			Name:            step.Name,
			Type:            step.Type,
			Ordinal:         step.Ordinal,
			StepString:      step.StepString,
			InputURI:        step.InputURI,
			OutputURI:       step.OutputURI,
			AdditionalFiles: files,
		})
	}
	return out
}

func (api *registryAPI) handleUploadScript(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	now := time.Now().UTC()
	uploadID := uuid.NewString()

	r.Body = http.MaxBytesReader(w, r.Body, api.uploadMaxBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_multipart")
		return
	}

	var (
		script        domain.ScriptFile
		contentSHA256 string
		sizeBytes     int64
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			api.writeError(w, r, http.StatusBadRequest, "invalid_multipart")
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		if sizeBytes > 0 || script.Path.Key != "" {
			_ = part.Close()
			api.writeError(w, r, http.StatusBadRequest, "multiple_files_not_supported")
			return
		}

		filename := sanitizeFilename(part.FileName())
		contentType := strings.TrimSpace(part.Header.Get("Content-Type"))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		key := uploadID + "/" + filename

		hasher := sha256.New()
		counter := &countingWriter{}
		reader := io.TeeReader(part, io.MultiWriter(hasher, counter))

		uploadCtx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		script, err = objectstore.UploadScript(uploadCtx, api.store, api.storeCfg, key, reader, -1, contentType)
		cancel()
		_ = part.Close()
		if err != nil {
			api.writeError(w, r, http.StatusBadRequest, "upload_failed")
			return
		}
		contentSHA256 = hex.EncodeToString(hasher.Sum(nil))
		sizeBytes = counter.n
	}

	if script.Path.Key == "" {
		api.writeError(w, r, http.StatusBadRequest, "file_required")
		return
	}

	_, err = auditlog.Insert(r.Context(), api.db, auditlog.Event{
		OccurredAt:   now,
		Actor:        identity.Subject,
		Action:       "script.upload",
		ResourceType: "script",
		ResourceID:   uploadID,
		RequestID:    r.Header.Get("X-Request-Id"),
		IP:           requestIP(r.RemoteAddr),
		UserAgent:    r.UserAgent(),
		Payload: map[string]any{
			"service":        "registry",
			"uri":            script.Path.URI(),
			"content_sha256": contentSHA256,
			"size_bytes":     sizeBytes,
		},
	})
	if err != nil {
		api.writeError(w, r, http.StatusInternalServerError, "audit_failed")
		return
	}

	api.writeJSON(w, http.StatusCreated, scriptUpload{
		URI:           script.Path.URI(),
		Bucket:        script.Path.Bucket,
		Key:           script.Path.Key,
		SizeBytes:     sizeBytes,
		ContentSHA256: contentSHA256,
		CreatedAt:     now,
		CreatedBy:     identity.Subject,
	})
}

func (api *registryAPI) handleCreatePipeline(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_body")
		return
	}
	def, err := definition.Parse(body)
	if err != nil {
		api.logger.Warn("definition rejected", "error", err)
		api.writeError(w, r, http.StatusBadRequest, "invalid_definition")
		return
	}

	assembled, err := definition.Assemble(def, definition.AssembleOptions{
		RunID:     r.URL.Query().Get("run_id"),
		CreatedBy: identity.Subject,
	})
	if err != nil {
		api.logger.Warn("assembly failed", "error", err, "pipeline", def.Name)
		api.writeError(w, r, http.StatusBadRequest, "invalid_definition")
		return
	}

	now := time.Now().UTC()
	assembled.DefinitionYAML = string(body)
	assembled.CreatedAt = now

	type integrityInput struct {
		PipelineID string    `json:"pipeline_id"`
		Name       string    `json:"name"`
		AMIVersion string    `json:"ami_version"`
		RunID      string    `json:"run_id"`
		Definition string    `json:"definition"`
		CreatedAt  time.Time `json:"created_at"`
		CreatedBy  string    `json:"created_by"`
	}
	integrity, err := integritySHA256(integrityInput{
		PipelineID: assembled.ID,
		Name:       assembled.Name,
		AMIVersion: assembled.AMIVersion,
		RunID:      assembled.RunID,
		Definition: assembled.DefinitionYAML,
		CreatedAt:  now,
		CreatedBy:  identity.Subject,
	})
	if err != nil {
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	assembled.IntegritySHA256 = integrity

	tx, err := api.db.BeginTx(r.Context(), nil)
	if err != nil {
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if err := repopg.NewPipelineStore(tx).CreatePipeline(r.Context(), assembled); err != nil {
		if errors.Is(err, repo.ErrNameExists) || isUniqueViolation(err) {
			api.writeError(w, r, http.StatusConflict, "pipeline_name_exists")
			return
		}
		api.logger.Error("pipeline insert failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	_, err = auditlog.Insert(r.Context(), tx, auditlog.Event{
		OccurredAt:   now,
		Actor:        identity.Subject,
		Action:       "pipeline.create",
		ResourceType: "pipeline",
		ResourceID:   assembled.ID,
		RequestID:    r.Header.Get("X-Request-Id"),
		IP:           requestIP(r.RemoteAddr),
		UserAgent:    r.UserAgent(),
		Payload: map[string]any{
			"service":     "registry",
			"pipeline_id": assembled.ID,
			"name":        assembled.Name,
			"run_id":      assembled.RunID,
			"ami_version": assembled.AMIVersion,
			"steps":       len(assembled.Steps),
		},
	})
	if err != nil {
		api.writeError(w, r, http.StatusInternalServerError, "audit_failed")
		return
	}

	if err := tx.Commit(); err != nil {
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	w.Header().Set("Location", "/pipelines/"+assembled.ID)
	api.writeJSON(w, http.StatusCreated, renderPipeline(assembled, true))
}

func (api *registryAPI) handleListPipelines(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(parseIntQuery(r, "limit", 100), 1, 500)

	store := repopg.NewPipelineStore(api.db)
	pipelines, err := store.ListPipelines(r.Context(), repo.PipelineFilter{
		Name:      r.URL.Query().Get("name"),
		CreatedBy: r.URL.Query().Get("created_by"),
		Limit:     limit,
	})
	if err != nil {
		api.logger.Error("pipeline list failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	out := make([]pipeline, 0, len(pipelines))
	for _, p := range pipelines {
		out = append(out, renderPipeline(p, false))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"pipelines": out})
}

func (api *registryAPI) handleGetPipeline(w http.ResponseWriter, r *http.Request) {
	pipelineID := strings.TrimSpace(r.PathValue("pipeline_id"))
	if pipelineID == "" {
		api.writeError(w, r, http.StatusBadRequest, "pipeline_id_required")
		return
	}

	store := repopg.NewPipelineStore(api.db)
	found, err := store.GetPipeline(r.Context(), pipelineID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			api.writeError(w, r, http.StatusNotFound, "not_found")
			return
		}
		api.logger.Error("pipeline lookup failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	api.writeJSON(w, http.StatusOK, renderPipeline(found, true))
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

func (api *registryAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *registryAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func integritySHA256(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal integrity input: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func requestIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

func sanitizeFilename(name string) string {
	base := path.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == "/" {
		return "script.bin"
	}
	return base
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func clampInt(v int, min int, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
