package handlers

import (
	"net/http"

	"cafeshift_backend/internal/filestore"
	"cafeshift_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes caps payment proofs, CVs and avatars at 10 MB.
const maxUploadBytes = 10 << 20

// FileHandler accepts uploads and hands back the reference string the other
// endpoints expect in *_ref fields.
type FileHandler struct {
	store filestore.Store
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(store filestore.Store) *FileHandler {
	return &FileHandler{store: store}
}

// Upload stores one multipart file under the "file" field and returns its
// reference.
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondValidationFailed(c, "multipart field 'file' is required")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		utils.RespondValidationFailed(c, "file exceeds the 10 MB upload limit")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		utils.LogError(err, "Upload: Failed to open multipart file")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to read upload.", "Internal error"))
		return
	}
	defer f.Close()

	ref, err := h.store.Save(fileHeader.Filename, f)
	if err != nil {
		utils.LogError(err, "Upload: Failed to store file")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to store upload.", "Internal error"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ref": ref})
}
