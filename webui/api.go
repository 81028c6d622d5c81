package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"colorizer/batch"
	"colorizer/colorize"
	"colorizer/imageio"
	"colorizer/logging"
	"colorizer/metrics"
	"colorizer/presets"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client-facing error messages.
const (
	msgModelNotLoaded = "Model not loaded"
	msgNoImage        = "No image file provided"
	msgNoImages       = "No image files provided"
	msgNoFile         = "No file selected"
	msgNoFiles        = "No files selected"
	msgNotAllowed     = "File type not allowed"
	msgTooLarge       = "File too large"
	msgFileNotFound   = "File not found"
)

// StatusResponse is returned by /api/status and /health.
type StatusResponse struct {
	Status      string               `json:"status"`
	ModelLoaded bool                 `json:"model_loaded"`
	Timestamp   time.Time            `json:"timestamp"`
	Version     string               `json:"version,omitempty"`
	Uptime      string               `json:"uptime,omitempty"`
	Tasks       *metrics.TaskMetrics `json:"tasks,omitempty"`
}

// Parameters echoes the settings a request ran with.
type Parameters struct {
	Intensity  float64 `json:"intensity"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Warmth     float64 `json:"warmth"`
	Sharpness  float64 `json:"sharpness"`
}

func parametersOf(s colorize.Settings) Parameters {
	return Parameters{
		Intensity:  s.Intensity,
		Brightness: s.Brightness,
		Contrast:   s.Contrast,
		Saturation: s.Saturation,
		Warmth:     s.Warmth,
		Sharpness:  s.Sharpness,
	}
}

// ColorizeResponse is returned by POST /api/colorize. Images are base64
// JPEG payloads without a data: prefix.
type ColorizeResponse struct {
	Success       bool       `json:"success"`
	ResultImage   string     `json:"result_image"`
	OriginalImage string     `json:"original_image,omitempty"`
	Style         string     `json:"style"`
	Preset        string     `json:"preset,omitempty"`
	Parameters    Parameters `json:"parameters"`
	Degraded      bool       `json:"degraded,omitempty"`
	Warning       string     `json:"warning,omitempty"`
}

// BatchItem is one file of a batch response.
type BatchItem struct {
	Filename       string `json:"filename"`
	Success        bool   `json:"success"`
	Degraded       bool   `json:"degraded,omitempty"`
	OutputFilename string `json:"output_filename,omitempty"`
	DownloadURL    string `json:"download_url,omitempty"`
	Error          string `json:"error,omitempty"`
}

// BatchResponse is returned by POST /api/batch_colorize.
type BatchResponse struct {
	Success        bool        `json:"success"`
	Results        []BatchItem `json:"results"`
	ProcessedCount int         `json:"processed_count"`
	TotalCount     int         `json:"total_count"`
}

// HistoryResponse is returned by GET /api/history.
type HistoryResponse struct {
	History []string            `json:"history"`
	Count   int                 `json:"count"`
	Totals  metrics.TaskMetrics `json:"totals"`
}

// PresetsResponse is returned by GET /api/presets.
type PresetsResponse struct {
	Presets []presets.Preset `json:"presets"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleStatus handles GET /api/status.
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	st := s.store.Status(s.model.Ready())
	totals := s.store.Totals()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:      "running",
		ModelLoaded: st.ModelLoaded,
		Timestamp:   st.Timestamp,
		Version:     st.Version,
		Uptime:      FormatDuration(st.Uptime),
		Tasks:       &totals,
	})
}

// HandleHealth handles GET /health. It answers 200 while the process is up,
// whether or not the model loaded.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.store.Status(s.model.Ready())
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:      st.Health,
		ModelLoaded: st.ModelLoaded,
		Timestamp:   st.Timestamp,
	})
}

// HandleColorize handles POST /api/colorize with a multipart "image" file
// and optional preset, style and slider fields.
func (s *Server) HandleColorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.model.Ready() {
		writeError(w, http.StatusInternalServerError, msgModelNotLoaded)
		return
	}
	if !s.parseForm(w, r) {
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoImage)
		return
	}
	file.Close()
	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	if !allowedUpload(header.Filename) {
		writeError(w, http.StatusBadRequest, msgNotAllowed)
		return
	}

	settings, presetName, err := parseSettings(r.FormValue, s.presets)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := sanitizeFilename(header.Filename)
	task := metrics.NewTask(metrics.TaskTypeColorize, name)
	task.Style = settings.Style.String()

	var resp ColorizeResponse
	var status int
	err = s.track(r.Context(), "colorize", func(ctx context.Context) error {
		resp, status, err = s.colorizeUpload(header, name, settings)
		return err
	})
	if errors.Is(err, errShuttingDown) {
		writeError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}
	if err != nil {
		s.finishTask(task.Finish(err))
		writeError(w, status, err.Error())
		return
	}

	resp.Preset = presetName
	if presetName != "" {
		s.store.Record(metrics.NewTask(metrics.TaskTypePreset, presetName).Finish(nil))
	}
	if resp.Degraded {
		s.finishTask(task.Degrade(errors.New(resp.Warning)))
	} else {
		s.finishTask(task.Finish(nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

// colorizeUpload runs the pipeline on one uploaded file. The saved upload is
// removed before returning.
func (s *Server) colorizeUpload(header *multipart.FileHeader, name string, settings colorize.Settings) (ColorizeResponse, int, error) {
	start := time.Now()
	path, err := saveUpload(header, s.config.UploadDir, name)
	if err != nil {
		return ColorizeResponse{}, http.StatusInternalServerError, err
	}
	defer os.Remove(path)

	img, _, err := imageio.Load(path)
	if err != nil {
		return ColorizeResponse{}, http.StatusBadRequest, errors.New("Could not read image")
	}

	res, err := colorize.Colorize(img, s.model, settings)
	if err != nil {
		return ColorizeResponse{}, http.StatusInternalServerError, err
	}

	result, err := imageio.EncodeBase64JPEG(res.Image, imageio.PreviewQuality)
	if err != nil {
		return ColorizeResponse{}, http.StatusInternalServerError, errors.New("Failed to convert result image")
	}
	original, err := imageio.EncodeBase64JPEG(img, imageio.PreviewQuality)
	if err != nil {
		s.logger.Warn("original preview encoding failed", zap.Error(err))
		original = ""
	}

	resp := ColorizeResponse{
		Success:       true,
		ResultImage:   result,
		OriginalImage: original,
		Style:         strings.ToLower(settings.Style.String()),
		Parameters:    parametersOf(settings),
		Degraded:      res.Degraded,
	}
	if res.Degraded {
		resp.Warning = "Colorization failed; returned grayscale image"
		if res.Err != nil {
			resp.Warning += ": " + res.Err.Error()
		}
	}

	fields := []zap.Field{
		logging.Input(name),
		logging.Settings(settings),
		logging.ImageSize(img.Bounds()),
		logging.Duration(start),
	}
	if res.Degraded {
		s.logger.Warn("colorize request degraded", append(fields, logging.Degraded(res.Err)...)...)
	} else {
		s.logger.Info("colorize request complete", fields...)
	}
	return resp, http.StatusOK, nil
}

// HandleBatchColorize handles POST /api/batch_colorize with multipart
// "images" files. Results are written to the output folder as
// colorized_<name> and listed in input order.
func (s *Server) HandleBatchColorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.model.Ready() {
		writeError(w, http.StatusInternalServerError, msgModelNotLoaded)
		return
	}
	if !s.parseForm(w, r) {
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, msgNoImages)
		return
	}
	if files[0].Filename == "" {
		writeError(w, http.StatusBadRequest, msgNoFiles)
		return
	}

	settings, _, err := parseSettings(r.FormValue, s.presets)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp BatchResponse
	err = s.track(r.Context(), "batch", func(ctx context.Context) error {
		resp, err = s.runBatch(ctx, files, settings)
		return err
	})
	switch {
	case errors.Is(err, errShuttingDown):
		writeError(w, http.StatusServiceUnavailable, "Server is shutting down")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) runBatch(ctx context.Context, files []*multipart.FileHeader, settings colorize.Settings) (BatchResponse, error) {
	batchID := uuid.NewString()
	task := metrics.NewTask(metrics.TaskTypeBatch, fmt.Sprintf("%d uploads", len(files)))
	task.Style = settings.Style.String()

	results := make([]BatchItem, len(files))
	var jobs []batch.Job
	var jobIndex []int
	displayName := make(map[string]string)

	for i, fh := range files {
		results[i].Filename = fh.Filename
		if !allowedUpload(fh.Filename) {
			results[i].Error = msgNotAllowed
			continue
		}
		name := sanitizeFilename(fh.Filename)
		path, err := saveUpload(fh, s.config.UploadDir, name)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		defer os.Remove(path)

		results[i].Filename = name
		displayName[path] = name
		jobs = append(jobs, batch.Job{Input: path, Name: outputSourceName(name)})
		jobIndex = append(jobIndex, i)
	}

	runner := batch.NewRunner(s.model, batch.Config{
		Settings: settings,
		Quality:  s.config.OutputQuality,
		Workers:  s.config.BatchWorkers,
	}, s.logger.Named("batch"))
	runner.OnProgress = func(p batch.Progress) {
		s.hub.Broadcast(NewWSMessage(MessageTypeBatchProgress, BatchProgressData{
			BatchID:   batchID,
			Filename:  displayName[p.Item.Input],
			Completed: p.Completed,
			Total:     p.Total,
			Success:   p.Item.Success,
			Error:     p.Item.Error,
		}))
	}

	report, err := runner.RunJobs(ctx, jobs, s.config.OutputDir)
	if err != nil {
		s.finishTask(task.Finish(err))
		return BatchResponse{}, err
	}

	for k, item := range report.Items {
		res := &results[jobIndex[k]]
		if !item.Success {
			res.Error = item.Error
			continue
		}
		out := filepath.Base(item.Output)
		res.Success = true
		res.Degraded = item.Degraded
		res.OutputFilename = out
		res.DownloadURL = "/download/" + url.PathEscape(out)
	}

	resp := BatchResponse{Success: true, Results: results, TotalCount: len(files)}
	for _, res := range results {
		if res.Success {
			resp.ProcessedCount++
		}
	}

	task.Note = fmt.Sprintf("%d/%d files processed", resp.ProcessedCount, resp.TotalCount)
	s.finishTask(task.Finish(nil))
	return resp, nil
}

// outputSourceName maps upload names whose format cannot be written back
// (GIF) to PNG.
func outputSourceName(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".gif") {
		return strings.TrimSuffix(name, filepath.Ext(name)) + imageio.FormatPNG.Ext()
	}
	return name
}

// HandleDownload handles GET /download/{filename} from the output folder.
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/download/")
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." || name == "." {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	f, err := os.Open(filepath.Join(s.config.OutputDir, name))
	if err != nil {
		writeError(w, http.StatusNotFound, msgFileNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		writeError(w, http.StatusNotFound, msgFileNotFound)
		return
	}

	if format, ok := imageio.FormatFromPath(name); ok {
		w.Header().Set("Content-Type", format.MIME())
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// HandleHistory serves GET (recent lines, ?limit=N) and DELETE (clear).
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := s.config.HistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
				limit = n
			}
		}
		lines := s.store.HistoryLines(limit)
		writeJSON(w, http.StatusOK, HistoryResponse{History: lines, Count: len(lines), Totals: s.store.Totals()})
	case http.MethodDelete:
		s.store.Clear()
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleHistoryExport handles GET /api/history/export as a text attachment.
func (s *Server) HandleHistoryExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	now := time.Now()
	var buf bytes.Buffer
	if err := s.store.Export(&buf, now); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "colorizer_history_"+now.Format("20060102_150405")+".txt"))
	w.Write(buf.Bytes())
}

// HandlePresets handles GET /api/presets.
func (s *Server) HandlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var all []presets.Preset
	if s.presets != nil {
		all = s.presets.All()
	}
	writeJSON(w, http.StatusOK, PresetsResponse{Presets: all})
}

// RegisterRoutes registers the API routes on mux. The heavy endpoints sit
// behind the rate limiter.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	limited := func(h http.HandlerFunc) http.Handler {
		return s.limiter.Middleware(h)
	}
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/api/status", s.HandleStatus)
	mux.Handle("/api/colorize", limited(s.HandleColorize))
	mux.Handle("/api/batch_colorize", limited(s.HandleBatchColorize))
	mux.HandleFunc("/api/history", s.HandleHistory)
	mux.HandleFunc("/api/history/export", s.HandleHistoryExport)
	mux.HandleFunc("/api/presets", s.HandlePresets)
	mux.HandleFunc("/download/", s.HandleDownload)
	mux.HandleFunc("/ws", s.hub.HandleConnection)
	mux.Handle("/", s.static)
}

// parseForm applies the upload size limit and parses the multipart body.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		} else {
			writeError(w, http.StatusBadRequest, "Invalid form data")
		}
		return false
	}
	return true
}

// finishTask records a finished task and announces it to websocket clients.
func (s *Server) finishTask(task metrics.TaskRecord) {
	s.store.Record(task)
	s.hub.Broadcast(NewWSMessage(MessageTypeTaskComplete, TaskCompleteData{
		TaskID:   task.ID,
		TaskType: task.Type,
		Status:   task.Status,
		Message:  task.Action(),
		Duration: task.Duration.Round(time.Millisecond).String(),
		Error:    task.ErrorMsg,
	}))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
