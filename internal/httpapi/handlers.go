package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ritchie-gr8/video-editor/internal/api"
	"github.com/ritchie-gr8/video-editor/internal/fileutil"
	"github.com/ritchie-gr8/video-editor/internal/jobqueue"
	"github.com/ritchie-gr8/video-editor/internal/logging"
	"github.com/ritchie-gr8/video-editor/internal/services"
	"github.com/ritchie-gr8/video-editor/internal/store"
	"github.com/ritchie-gr8/video-editor/internal/textutil"
	"github.com/ritchie-gr8/video-editor/internal/video"
)

const msgVideoNotFound = "Video not found!"

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	records, err := store.Snapshot(r.Context(), s.store)
	if err != nil {
		s.writeFailure(w, r, err, "Failed to load videos")
		return
	}
	userID := strings.TrimSpace(r.Header.Get(headerUserID))
	if userID != "" {
		records = slices.DeleteFunc(records, func(rec *video.Record) bool {
			return rec.UserID != userID
		})
	}
	// Newest upload first.
	slices.Reverse(records)
	s.writeJSON(w, http.StatusOK, api.FromRecords(records))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	fileName := strings.TrimSpace(r.Header.Get(headerFileName))
	ext := textutil.Extension(fileName)
	if fileName == "" || !s.cfg.ExtensionAllowed(ext) {
		s.writeError(w, http.StatusBadRequest,
			"Only these formats are allowed: "+strings.Join(s.cfg.Media.AllowedExtensions, ", "))
		return
	}

	id := video.NewID()
	ctx := services.WithVideoID(r.Context(), id)
	logger := logging.WithContext(ctx, s.logger)
	dir := s.layout.Dir(id)

	rec, err := s.storeUpload(ctx, r, id, fileName, ext)
	if err != nil {
		fileutil.RemoveAllQuietly(dir)
		if ctx.Err() != nil {
			logger.Info("upload aborted by client", logging.String(logging.FieldEventType, "upload_aborted"))
			return
		}
		s.writeFailure(w, r.WithContext(ctx), err, "Failed to upload the video")
		return
	}

	logger.Info("video uploaded",
		logging.String(logging.FieldEventType, "upload_succeeded"),
		logging.String("name", rec.Name),
		logging.String("dimensions", video.DimensionsKey(rec.Dimensions.Width, rec.Dimensions.Height)),
	)
	s.writeJSON(w, http.StatusCreated, api.UploadResponse{
		Status:  "success",
		Message: "The file was uploaded successfully!",
		VideoID: id,
	})
}

func (s *Server) storeUpload(ctx context.Context, r *http.Request, id, fileName, ext string) (*video.Record, error) {
	original := s.layout.Original(id, ext)
	if _, err := fileutil.WriteStream(original, r.Body); err != nil {
		return nil, services.Wrap(services.ErrTransient, "http", "upload", "store original", err)
	}
	if err := s.media.Thumbnail(ctx, original, s.layout.Thumbnail(id)); err != nil {
		return nil, err
	}
	width, height, err := s.media.Dimensions(ctx, original)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(fileName)
	rec := &video.Record{
		VideoID:    id,
		Name:       strings.TrimSuffix(base, filepath.Ext(base)),
		Extension:  ext,
		Dimensions: video.Dimensions{Width: width, Height: height},
		UserID:     strings.TrimSpace(r.Header.Get(headerUserID)),
		Resizes:    make(map[string]video.ResizeState),
		CreatedAt:  time.Now().UTC(),
	}
	err = store.Mutate(ctx, s.store, func(st store.Store) error {
		st.Put(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Server) handleExtractAudio(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("videoId"))
	ctx := services.WithVideoID(r.Context(), id)
	rec, err := store.Get(ctx, s.store, id)
	if err != nil {
		s.writeFailure(w, r, err, msgVideoNotFound)
		return
	}
	if rec.ExtractedAudio {
		s.writeError(w, http.StatusBadRequest, "The audio has already been extracted for this video")
		return
	}

	target := s.layout.Audio(id)
	if err := s.media.ExtractAudio(ctx, s.layout.Original(id, rec.Extension), target); err != nil {
		fileutil.RemoveQuietly(target)
		s.writeFailure(w, r.WithContext(ctx), err, "Failed to extract the audio")
		return
	}
	err = store.Mutate(ctx, s.store, func(st store.Store) error {
		live, ok := st.FindVideo(id)
		if !ok {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		live.ExtractedAudio = true
		return nil
	})
	if err != nil {
		s.writeFailure(w, r.WithContext(ctx), err, "Failed to record the extracted audio")
		return
	}
	s.writeSuccess(w, http.StatusOK, "The audio was extracted successfully")
}

type resizeRequest struct {
	VideoID string      `json:"videoId"`
	Width   json.Number `json:"width"`
	Height  json.Number `json:"height"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	width, errW := req.Width.Int64()
	height, errH := req.Height.Int64()
	if errW != nil || errH != nil || video.ValidateDimensions(int(width), int(height)) != nil {
		s.writeError(w, http.StatusBadRequest, "Width and height must be positive integers")
		return
	}

	job := jobqueue.NewResize(strings.TrimSpace(req.VideoID), int(width), int(height))
	if rid, ok := services.RequestIDFromContext(r.Context()); ok {
		job.RequestID = rid
	}
	ctx := services.WithVideoID(r.Context(), job.VideoID)

	// The flag is persisted before the job leaves this process so a lost
	// hand-off is still recovered on the next primary start.
	err := store.Mutate(ctx, s.store, func(st store.Store) error {
		rec, ok := st.FindVideo(job.VideoID)
		if !ok {
			return fmt.Errorf("%w: %s", store.ErrNotFound, job.VideoID)
		}
		rec.MarkResizing(job.Width, job.Height)
		return nil
	})
	if err != nil {
		msg := "Failed to queue the resize"
		if errors.Is(err, store.ErrNotFound) {
			msg = msgVideoNotFound
		}
		s.writeFailure(w, r.WithContext(ctx), err, msg)
		return
	}

	s.submitter.Submit(job)
	logging.WithContext(ctx, s.logger).Info("resize requested",
		logging.String(logging.FieldEventType, "resize_requested"),
		logging.String(logging.FieldJobKey, job.Key()),
	)
	s.writeSuccess(w, http.StatusOK, "The video is now being processed!")
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	id := strings.TrimSpace(query.Get("videoId"))
	rec, err := store.Get(r.Context(), s.store, id)
	if err != nil {
		s.writeFailure(w, r, err, msgVideoNotFound)
		return
	}

	var (
		path     string
		mimeType string
		download string
	)
	videoMime := "video/quicktime"
	if rec.Extension == "mp4" {
		videoMime = "video/mp4"
	}
	switch assetType := query.Get("type"); assetType {
	case "thumbnail":
		path, mimeType = s.layout.Thumbnail(id), "image/jpeg"
	case "audio":
		path, mimeType = s.layout.Audio(id), "audio/aac"
		download = rec.Name + "-audio.aac"
	case "original":
		path, mimeType = s.layout.Original(id, rec.Extension), videoMime
		download = rec.Name + "." + rec.Extension
	case "resize":
		key := query.Get("dimensions")
		width, height, err := video.ParseDimensionsKey(key)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid dimensions")
			return
		}
		path, mimeType = s.layout.Resized(id, width, height, rec.Extension), videoMime
		download = rec.Name + "-" + video.DimensionsKey(width, height) + "." + rec.Extension
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown asset type %q", assetType))
		return
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.writeError(w, http.StatusNotFound, "Asset not found!")
			return
		}
		s.writeFailure(w, r, err, "Failed to open the asset")
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		s.writeFailure(w, r, err, "Failed to open the asset")
		return
	}

	w.Header().Set("Content-Type", mimeType)
	if download != "" {
		name := textutil.SanitizeFileName(download)
		if name == "" {
			name = "download"
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	http.ServeContent(w, r, "", info.ModTime(), file)
}
