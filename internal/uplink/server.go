package uplink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Completer marks a homework submitted once the file has landed, unless
// the submission was already graded.
type Completer interface {
	GetGraded(ctx context.Context, homeworkID, userID int64) (bool, error)
	MarkHomeworkCompleted(ctx context.Context, homeworkID, userID int64) error
}

// Handler serves the upload endpoint the signed links point at.
type Handler struct {
	signer    *Signer
	completer Completer
	dir       string
	maxBytes  int64
	logger    zerolog.Logger
}

func NewHandler(signer *Signer, completer Completer, dir string, maxSizeMB int, logger zerolog.Logger) *Handler {
	return &Handler{
		signer:    signer,
		completer: completer,
		dir:       dir,
		maxBytes:  int64(maxSizeMB) << 20,
		logger:    logger.With().Str("component", "uplink").Logger(),
	}
}

// ServeHTTP accepts POST /upload?token=... with the PDF as the request
// body or a multipart "file" part. Each upload lands in its own directory
// so resubmissions never clobber each other.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, err := h.signer.Verify(r.URL.Query().Get("token"))
	if err != nil {
		h.logger.Warn().Err(err).Msg("upload rejected")
		http.Error(w, "invalid or expired link", http.StatusForbidden)
		return
	}

	graded, err := h.completer.GetGraded(r.Context(), claims.HomeworkID, claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Int64("homework_id", claims.HomeworkID).
			Int64("user_id", claims.UserID).Msg("graded check failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if graded {
		http.Error(w, "graded homework cannot be modified", http.StatusConflict)
		return
	}

	body, name, err := h.readFile(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer body.Close()

	// Claim values end up as path components, so they get the same
	// treatment as the uploaded file name.
	dest := filepath.Join(h.dir, sanitize(claims.GroupTitle), sanitize(claims.HomeworkName),
		uuid.New().String())
	if err := os.MkdirAll(dest, 0o755); err != nil {
		h.logger.Error().Err(err).Str("dir", dest).Msg("mkdir failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("%s.pdf", sanitize(claims.UserName))
	if name != "" {
		fileName = sanitize(name)
	}
	out, err := os.Create(filepath.Join(dest, fileName))
	if err != nil {
		h.logger.Error().Err(err).Msg("create upload file failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, io.LimitReader(body, h.maxBytes)); err != nil {
		h.logger.Error().Err(err).Msg("write upload failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.completer.MarkHomeworkCompleted(r.Context(), claims.HomeworkID, claims.UserID); err != nil {
		h.logger.Error().Err(err).Int64("homework_id", claims.HomeworkID).
			Int64("user_id", claims.UserID).Msg("mark completed failed")
	}

	h.logger.Info().Int64("homework_id", claims.HomeworkID).
		Int64("user_id", claims.UserID).Str("file", fileName).Msg("upload stored")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (h *Handler) readFile(r *http.Request) (io.ReadCloser, string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxBytes); err != nil {
			return nil, "", fmt.Errorf("bad multipart body")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("missing file part")
		}
		return file, header.Filename, nil
	}
	return r.Body, "", nil
}

func sanitize(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
