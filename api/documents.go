package api

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/studyrag/pkg/ingest"
	"github.com/papercomputeco/studyrag/pkg/worker"
)

// IngestRequest is the JSON body of POST /v1/documents for re-ingesting a
// file the owner uploaded earlier. Multipart uploads send the file as "file"
// with the same fields as form values.
type IngestRequest struct {
	DocumentID string `json:"document_id" form:"document_id"`
	FilePath   string `json:"file_path" form:"file_path"`
	Collection string `json:"collection,omitempty" form:"collection"`
}

// IngestResponse acknowledges a queued ingestion.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	FilePath   string `json:"file_path"`
	Status     string `json:"status"`
}

// DeleteResponse acknowledges a document deletion.
type DeleteResponse struct {
	DocumentID string `json:"document_id"`
	Deleted    bool   `json:"deleted"`
}

// handleUploadDocument handles POST /v1/documents. Supported files are queued
// for ingestion and acknowledged with 202; a full queue yields 503.
func (s *Server) handleUploadDocument(c *fiber.Ctx) error {
	owner := ownerOf(c)

	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	uploaded := false
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "file is required")
		}
		if err := s.config.Pipeline.Loader().CheckSupported(fh.Filename); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}

		f, err := fh.Open()
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "reading upload failed")
		}
		defer f.Close()

		path, err := s.config.Uploads.SaveUpload(s.config.UploadDir, owner, fh.Filename, f)
		if err != nil {
			s.logger.Error("saving upload failed", "owner_id", owner, "error", err)
			return errorJSON(c, fiber.StatusInternalServerError, "saving upload failed")
		}
		req.FilePath = path
		uploaded = true
	} else {
		if req.FilePath == "" {
			return errorJSON(c, fiber.StatusBadRequest, "file_path is required")
		}
		if err := s.config.Pipeline.Loader().CheckSupported(req.FilePath); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		if !s.ownsUpload(owner, req.FilePath) {
			return errorJSON(c, fiber.StatusForbidden, "file_path must be one of your uploads")
		}
		if _, err := os.Stat(req.FilePath); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "file not found: "+req.FilePath)
		}
	}

	if req.DocumentID == "" {
		req.DocumentID = uuid.NewString()
	}
	if req.Collection == "" {
		req.Collection = s.config.Collection
	}

	ok := s.config.Pool.Enqueue(worker.Job{
		Request: ingest.Request{
			FilePath:   req.FilePath,
			DocumentID: req.DocumentID,
			OwnerID:    owner,
			Collection: req.Collection,
		},
	})
	if !ok {
		if uploaded {
			if err := s.config.Uploads.RemoveUpload(req.FilePath); err != nil {
				s.logger.Warn("removing rejected upload failed", "path", req.FilePath, "error", err)
			}
		}
		return errorJSON(c, fiber.StatusServiceUnavailable, "ingestion queue is full, retry later")
	}

	return c.Status(fiber.StatusAccepted).JSON(IngestResponse{
		DocumentID: req.DocumentID,
		FilePath:   req.FilePath,
		Status:     string(worker.StateQueued),
	})
}

// handleDocumentStatus handles GET /v1/documents/:id/status.
func (s *Server) handleDocumentStatus(c *fiber.Ctx) error {
	status, ok := s.config.Pool.Status(ownerOf(c), c.Params("id"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "no ingestion job for document")
	}
	return c.JSON(status)
}

// handleDeleteDocument handles DELETE /v1/documents/:id?file_path=.
// Index cleanup failures are logged but never fail the request.
func (s *Server) handleDeleteDocument(c *fiber.Ctx) error {
	owner := ownerOf(c)
	id := c.Params("id")
	path := c.Query("file_path")

	err := s.config.Pipeline.DeleteDocumentChunks(c.UserContext(), ingest.DeleteRequest{
		DocumentID: id,
		OwnerID:    owner,
		FilePath:   path,
		Collection: c.Query("collection", s.config.Collection),
	})
	switch {
	case errors.Is(err, ingest.ErrInvalidRequest):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Warn("document chunks may remain in the index",
			"document_id", id,
			"error", err,
		)
	}

	if path != "" && s.ownsUpload(owner, path) {
		if err := s.config.Uploads.RemoveUpload(path); err != nil {
			s.logger.Warn("removing upload failed", "path", path, "error", err)
		}
	}

	return c.JSON(DeleteResponse{DocumentID: id, Deleted: true})
}

// ownsUpload reports whether path is one of owner's files in the uploads dir.
func (s *Server) ownsUpload(owner, path string) bool {
	if s.config.Uploads == nil {
		return false
	}
	dir, err := s.config.Uploads.UploadsDir(s.config.UploadDir)
	if err != nil {
		return false
	}
	clean := filepath.Clean(path)
	return filepath.Dir(clean) == dir && strings.HasPrefix(filepath.Base(clean), owner+"_")
}
