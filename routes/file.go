package routes

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"mpoint-server/utils"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
)

const maxUploadSize = 10 << 20 // 10 MiB

// UploadFile accepts a multipart form upload and stores it under a
// date-prefixed uuid key. The stored relative path is returned so clients
// can persist it on their records.
func (h *Handler) UploadFile(ctx iris.Context) {
	ctx.SetMaxRequestBodySize(maxUploadSize)

	file, header, err := ctx.FormFile("file")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Missing file upload.", ctx)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	relPath := uploadKey(ext)

	stored, err := h.Files.Save(relPath, data)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Could not store file.", ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"path": stored, "url": "/uploads/" + stored})
}

// UploadBase64 accepts a base64 data URL (or raw base64) in a JSON body,
// mirroring what mobile clients send.
func (h *Handler) UploadBase64(ctx iris.Context) {
	var input UploadBase64Input
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	payload := input.Data
	ext := ".bin"
	if i := strings.Index(payload, ","); i >= 0 {
		if exts, _ := mime.ExtensionsByType(dataURLMime(payload[:i])); len(exts) > 0 {
			ext = exts[0]
		}
		payload = payload[i+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid base64 payload.", ctx)
		return
	}
	if len(data) > maxUploadSize {
		utils.CreateError(iris.StatusRequestEntityTooLarge, "Too Large", "File exceeds the upload limit.", ctx)
		return
	}

	stored, err := h.Files.Save(uploadKey(ext), data)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Could not store file.", ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"path": stored, "url": "/uploads/" + stored})
}

// ServeFile streams a stored file back. Traversal attempts are rejected by
// the file store itself.
func (h *Handler) ServeFile(ctx iris.Context) {
	relPath := ctx.Params().Get("path")

	full, err := h.Files.Path(relPath)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid file path.", ctx)
		return
	}

	if err := ctx.ServeFile(full); err != nil {
		utils.CreateNotFound(ctx)
	}
}

func uploadKey(ext string) string {
	return fmt.Sprintf("%s/%s%s", time.Now().Format("2006/01"), uuid.NewString(), ext)
}

// dataURLMime extracts the media type from a "data:image/png;base64" prefix.
func dataURLMime(prefix string) string {
	s := strings.TrimPrefix(prefix, "data:")
	if i := strings.Index(s, ";"); i >= 0 {
		s = s[:i]
	}
	return s
}

type UploadBase64Input struct {
	Data string `json:"data" validate:"required"`
}
