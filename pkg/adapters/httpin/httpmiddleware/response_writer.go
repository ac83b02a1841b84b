package httpmiddleware

import "net/http"

// responseWriterWrapper captures the status code and body size for the
// middlewares above it. A handler that writes the body without calling
// WriteHeader gets the implicit 200 net/http would send.
type responseWriterWrapper struct {
	wrapped      http.ResponseWriter
	statusCode   int
	responseSize int
}

func (w *responseWriterWrapper) Header() http.Header {
	return w.wrapped.Header()
}

func (w *responseWriterWrapper) Write(data []byte) (int, error) {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}

	size, err := w.wrapped.Write(data)
	w.responseSize += size
	return size, err
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if w.statusCode == 0 {
		w.statusCode = statusCode
	}
	w.wrapped.WriteHeader(statusCode)
}
