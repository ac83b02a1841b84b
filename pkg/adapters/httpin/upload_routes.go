package httpin

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lotstream/lotstream/pkg/adapters/httpin/httpmiddleware"
	"github.com/lotstream/lotstream/pkg/config"
	"github.com/lotstream/lotstream/pkg/decompressor"
	"github.com/lotstream/lotstream/pkg/filename"
	"github.com/lotstream/lotstream/pkg/ingest"
)

var payloadMaxSizeErr *http.MaxBytesError

func RegisterUploadRoutes(
	api *API,
	version string,
	conf config.APIConfig,
	ingestor *ingest.Ingestor,
) {

	uploadPath := "/" + version + "/upload/{fileName}"
	statusPath := "/" + version + "/status/{fileName}"

	upload := uploadHandler(api.log, conf, ingestor)
	status := statusHandler(api.log, ingestor)

	if conf.Token != "" {
		api.mux.With(httpmiddleware.Auth(conf.Token)).Post(uploadPath, upload)
		api.mux.With(httpmiddleware.Auth(conf.Token)).Get(statusPath, status)
	} else {
		api.mux.Post(uploadPath, upload)
		api.mux.Get(statusPath, status)
	}
}

func uploadHandler(l *slog.Logger, conf config.APIConfig, ingestor *ingest.Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentPath := r.URL.Path
		fileName := chi.URLParam(r, "fileName")

		encoding := r.Header.Get("Content-Encoding")
		if encoding != "" && !contains(conf.ActiveDecompressions, encoding) {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			increaseErrorCount("unsupported_content_encoding", currentPath)
			return
		}

		bodyReader, err := decompressor.NewReader(encoding, r.Body)
		if err != nil {
			l.Warn("failed to create decompressor for upload", "encoding", encoding, "error", err)
			w.WriteHeader(http.StatusBadRequest)
			increaseErrorCount("error_decompressing_body", currentPath)
			return
		}
		defer bodyReader.Close()

		buf := &bytes.Buffer{}
		dataLen, err := buf.ReadFrom(bodyReader)

		observeSize(currentPath, float64(dataLen))

		if err != nil {
			l.Warn("upload request failed", "error", err)
			if errors.As(err, &payloadMaxSizeErr) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				increaseErrorCount("request_entity_too_large", currentPath)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			increaseErrorCount("error_reading_body", currentPath)
			return
		}

		if dataLen <= 0 {
			l.Warn("upload request without body, ignoring")
			w.WriteHeader(http.StatusBadRequest)
			increaseErrorCount("request_without_body", currentPath)
			return
		}

		info, err := ingestor.Ingest(r.Context(), fileName, buf.Bytes())
		if err != nil {
			var decodeErr *filename.DecodeError
			if errors.As(err, &decodeErr) {
				l.Warn("rejected archive with malformed filename", "file_name", fileName)
				respondJSON(w, http.StatusBadRequest, map[string]string{
					"error": decodeErr.Error(),
				})
				increaseErrorCount("malformed_filename", currentPath)
				return
			}

			l.Warn("failed to ingest upload", "file_name", fileName, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			increaseErrorCount("ingest_failed", currentPath)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"message":  "File uploaded successfully",
			"fileName": fileName,
			"fileInfo": info,
		})
	}
}

func statusHandler(l *slog.Logger, ingestor *ingest.Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileName := chi.URLParam(r, "fileName")

		pending, err := ingestor.StoredAt(r.Context(), fileName)
		if err != nil {
			l.Warn("failed to check archive status", "file_name", fileName, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		processed, err := ingestor.StoredAt(r.Context(), "_"+fileName)
		if err != nil {
			l.Warn("failed to check archive status", "file_name", fileName, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if !pending && !processed {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"fileName":  fileName,
			"processed": processed,
		})
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(response) //nolint:errcheck
}

func contains(group []string, elem string) bool {
	for _, a := range group {
		if a == elem {
			return true
		}
	}
	return false
}
