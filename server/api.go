package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AMFbot-Gz/AMFbot-Suite/downloader"
	"github.com/AMFbot-Gz/AMFbot-Suite/imagegen"
	"github.com/AMFbot-Gz/AMFbot-Suite/jobs"
	"github.com/AMFbot-Gz/AMFbot-Suite/videogen"
)

// JobService is the job intake and lookup surface the API needs.
// *jobs.Coordinator is the production implementation.
type JobService interface {
	SubmitImage(req jobs.ImageRequest) (string, error)
	SubmitVideo(req jobs.VideoRequest) (string, error)
	GetStatus(id string) (jobs.Job, error)
	ResultPath(id string) (string, error)
}

// ImageService reports and releases image model residency.
type ImageService interface {
	ModelInfo() imagegen.ModelInfo
	Unload()
}

// VideoService reports and releases video model residency.
type VideoService interface {
	ModelInfo() videogen.ModelInfo
	Unload()
}

// DownloadService reports in-flight weight downloads.
type DownloadService interface {
	ActiveDownloads() []downloader.Snapshot
}

// API holds the REST handlers for the generation service. Any of the
// model-facing services may be nil; the matching endpoints then report
// what is absent instead of panicking.
type API struct {
	jobs      JobService
	image     ImageService
	video     VideoService
	downloads DownloadService
	logger    *zap.Logger
}

// NewAPI creates the handler set. jobSvc must be non-nil.
func NewAPI(jobSvc JobService, image ImageService, video VideoService, downloads DownloadService, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		jobs:      jobSvc,
		image:     image,
		video:     video,
		downloads: downloads,
		logger:    logger,
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (api *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", api.handleHealth)
	mux.HandleFunc("/api/generate/image", api.handleGenerateImage)
	mux.HandleFunc("/api/generate/video", api.handleGenerateVideo)
	mux.HandleFunc("/api/jobs/", api.handleJobStatus)
	mux.HandleFunc("/api/download/", api.handleDownload)
	mux.HandleFunc("/api/models/info", api.handleModelsInfo)
	mux.HandleFunc("/api/models/unload", api.handleModelsUnload)
	mux.HandleFunc("/api/models/downloads", api.handleDownloadsStatus)
}

type imageGenerateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Model          string `json:"model,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	Seed           *int64 `json:"seed,omitempty"`
	NumImages      int    `json:"num_images,omitempty"`
}

type videoGenerateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	NumFrames      int    `json:"num_frames,omitempty"`
	Seed           *int64 `json:"seed,omitempty"`
	ImagePath      string `json:"image_path,omitempty"`
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type jobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	// Result is the first output path; multi-image jobs list every path
	// in ResultPaths.
	Result      string    `json:"result,omitempty"`
	ResultPaths []string  `json:"result_paths,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
}

type downloadStatusResponse struct {
	ModelID         string  `json:"model_id"`
	TotalBytes      int64   `json:"total_bytes"`
	DownloadedBytes int64   `json:"downloaded_bytes"`
	Percentage      float64 `json:"percentage"`
	CurrentFile     string  `json:"current_file,omitempty"`
	FilesCompleted  int     `json:"files_completed"`
	FilesTotal      int     `json:"files_total"`
}

type healthResponse struct {
	Status         string `json:"status"`
	ImageAvailable bool   `json:"image_available"`
	VideoAvailable bool   `json:"video_available"`
	ImageLoaded    bool   `json:"image_loaded"`
	VideoLoaded    bool   `json:"video_loaded"`
}

func (api *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := healthResponse{Status: "ok"}
	if api.image != nil {
		resp.ImageAvailable = true
		resp.ImageLoaded = api.image.ModelInfo().Loaded
	}
	if api.video != nil {
		resp.VideoAvailable = true
		info := api.video.ModelInfo()
		resp.VideoLoaded = info.TextLoaded || info.ImageLoaded
	}
	api.writeJSON(w, http.StatusOK, resp)
}

func (api *API) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req imageGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	id, err := api.jobs.SubmitImage(jobs.ImageRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Variant:        req.Model,
		Width:          req.Width,
		Height:         req.Height,
		Seed:           req.Seed,
		NumImages:      req.NumImages,
	})
	if err != nil {
		api.writeSubmitError(w, err)
		return
	}

	api.writeJSON(w, http.StatusAccepted, submitResponse{JobID: id, Status: string(jobs.StatusPending)})
}

func (api *API) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req videoGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	id, err := api.jobs.SubmitVideo(jobs.VideoRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
		NumFrames:      req.NumFrames,
		Seed:           req.Seed,
		ImagePath:      req.ImagePath,
	})
	if err != nil {
		api.writeSubmitError(w, err)
		return
	}

	api.writeJSON(w, http.StatusAccepted, submitResponse{JobID: id, Status: string(jobs.StatusPending)})
}

func (api *API) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" || strings.Contains(id, "/") {
		api.writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	job, err := api.jobs.GetStatus(id)
	if err != nil {
		api.writeError(w, http.StatusNotFound, fmt.Sprintf("job %q not found", id))
		return
	}

	resp := jobResponse{
		JobID:       job.ID,
		Status:      string(job.Status),
		ResultPaths: job.Result,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		FinishedAt:  job.FinishedAt,
	}
	if len(job.Result) > 0 {
		resp.Result = job.Result[0]
	}
	api.writeJSON(w, http.StatusOK, resp)
}

func (api *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/download/")
	if id == "" || strings.Contains(id, "/") {
		api.writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	path, err := api.jobs.ResultPath(id)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		api.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, jobs.ErrInvalidState):
		api.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		api.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(path))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func (api *API) handleModelsInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Absent backends report an explicit null so clients can tell "not in
	// this deployment" apart from a missing key.
	info := map[string]any{"image": nil, "video": nil}
	if api.image != nil {
		info["image"] = api.image.ModelInfo()
	}
	if api.video != nil {
		info["video"] = api.video.ModelInfo()
	}
	api.writeJSON(w, http.StatusOK, info)
}

func (api *API) handleModelsUnload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if api.image != nil {
		api.image.Unload()
	}
	if api.video != nil {
		api.video.Unload()
	}
	api.logger.Info("models unloaded via api")
	api.writeJSON(w, http.StatusOK, map[string]string{"status": "unloaded"})
}

func (api *API) handleDownloadsStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		api.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	active := []downloadStatusResponse{}
	if api.downloads != nil {
		for _, snap := range api.downloads.ActiveDownloads() {
			active = append(active, downloadStatusResponse{
				ModelID:         snap.ModelID,
				TotalBytes:      snap.TotalBytes,
				DownloadedBytes: snap.DownloadedBytes,
				Percentage:      snap.Percentage(),
				CurrentFile:     snap.CurrentFile,
				FilesCompleted:  snap.FilesCompleted,
				FilesTotal:      snap.FilesTotal,
			})
		}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"downloads": active})
}

// writeSubmitError maps submission failures to status codes: missing
// backends and shutdown are service conditions, everything else is the
// caller's input.
func (api *API) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrUnavailable), errors.Is(err, jobs.ErrClosed):
		api.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		api.writeError(w, http.StatusBadRequest, err.Error())
	}
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// ErrorResponse is the JSON shape of every error the API returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (api *API) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		api.logger.Warn("response encode failed", zap.Error(err))
	}
}

func (api *API) writeError(w http.ResponseWriter, status int, message string) {
	api.writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
