// upload.go — обработчик загрузки изображений.
// POST /upload — multipart/form-data: поле image (файл), опциональные
// поля metadata (JSON-строка) и imageName.
package handlers

import (
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/imagevault/internal/api/errors"
	"github.com/bigkaa/imagevault/internal/api/middleware"
	"github.com/bigkaa/imagevault/internal/service"
)

// uploadResponse — ответ успешной загрузки.
type uploadResponse struct {
	Message string `json:"message"`
	CID     string `json:"cid"`
}

// Upload — POST /upload. Принимает multipart-форму с файлом изображения,
// сохраняет байты в хранилище и создаёт запись метаданных.
// Требует аутентификации (email из верифицированного токена).
func (h *APIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	email := middleware.EmailFromContext(r.Context())
	if email == "" {
		// Middleware не пропускает такие запросы; защита от неверной сборки роутера
		apierrors.Forbidden(w, "Invalid or expired token")
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		apierrors.ValidationError(w, "No file uploaded")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		apierrors.ValidationError(w, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Ошибка чтения файла из multipart-формы",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to upload file")
		return
	}

	params := service.UploadParams{
		Email:            email,
		Data:             data,
		OriginalFilename: header.Filename,
		ImageName:        r.FormValue("imageName"),
		ContentType:      header.Header.Get("Content-Type"),
		MetadataJSON:     r.FormValue("metadata"),
	}

	result, uploadErr := h.uploader.Upload(r.Context(), params)
	if uploadErr != nil {
		apierrors.WriteError(w, uploadErr.StatusCode, uploadErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message: "File uploaded successfully",
		CID:     result.CID,
	})
}
