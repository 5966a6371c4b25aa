package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/bigkaa/imagevault/internal/domain/model"
)

// --- Mock content store ---

// mockStore — мок ContentStore для unit-тестов.
type mockStore struct {
	storeFn    func(ctx context.Context, name string, data []byte) (string, error)
	storeCalls int
}

func (m *mockStore) Store(ctx context.Context, name string, data []byte) (string, error) {
	m.storeCalls++
	if m.storeFn != nil {
		return m.storeFn(ctx, name, data)
	}
	return "test-cid", nil
}

// --- Тесты UploadService ---

// TestUploadService_Success проверяет полный пайплайн загрузки.
func TestUploadService_Success(t *testing.T) {
	store := &mockStore{
		storeFn: func(_ context.Context, name string, data []byte) (string, error) {
			if name != "sunset.jpg" {
				t.Errorf("имя объекта = %q, ожидался sunset.jpg", name)
			}
			return "cid-123", nil
		},
	}
	repo := &mockImageRepo{
		createFn: func(_ context.Context, rec *model.ImageRecord) (*model.ImageRecord, error) {
			if rec.Email != "user@example.com" {
				t.Errorf("email записи = %q", rec.Email)
			}
			if rec.CID != "cid-123" {
				t.Errorf("cid записи = %q, ожидался cid-123", rec.CID)
			}
			if rec.Location == nil || *rec.Location != "Москва" {
				t.Errorf("location = %v, ожидалась Москва", rec.Location)
			}
			created := *rec
			created.ID = "rec-1"
			return &created, nil
		},
	}

	svc := NewUploadService(store, repo, slog.Default())

	result, uploadErr := svc.Upload(context.Background(), UploadParams{
		Email:            "user@example.com",
		Data:             []byte("image-bytes"),
		OriginalFilename: "photo.jpg",
		ImageName:        "sunset.jpg",
		ContentType:      "image/jpeg",
		MetadataJSON:     `{"location":"Москва","deviceInfo":"Pixel 9"}`,
	})
	if uploadErr != nil {
		t.Fatalf("неожиданная ошибка: %v", uploadErr)
	}

	if result.CID != "cid-123" {
		t.Errorf("CID = %q, ожидался cid-123", result.CID)
	}
	if result.Record.ID != "rec-1" {
		t.Errorf("ID записи = %q, ожидался rec-1", result.Record.ID)
	}
}

// TestUploadService_EmptyFile проверяет отказ до обращений к хранилищу и БД.
func TestUploadService_EmptyFile(t *testing.T) {
	store := &mockStore{}
	repo := &mockImageRepo{}
	svc := NewUploadService(store, repo, slog.Default())

	_, uploadErr := svc.Upload(context.Background(), UploadParams{
		Email: "user@example.com",
		Data:  nil,
	})
	if uploadErr == nil {
		t.Fatal("ожидалась ошибка")
	}
	if uploadErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, ожидался 400", uploadErr.StatusCode)
	}
	if uploadErr.Message != "No file uploaded" {
		t.Errorf("Message = %q", uploadErr.Message)
	}
	if store.storeCalls != 0 {
		t.Error("хранилище не должно вызываться для пустого файла")
	}
	if repo.createCalls != 0 {
		t.Error("запись не должна создаваться для пустого файла")
	}
}

// TestUploadService_StoreError проверяет сбой хранилища: записи нет.
func TestUploadService_StoreError(t *testing.T) {
	store := &mockStore{
		storeFn: func(_ context.Context, _ string, _ []byte) (string, error) {
			return "", errors.New("хранилище недоступно")
		},
	}
	repo := &mockImageRepo{}
	svc := NewUploadService(store, repo, slog.Default())

	_, uploadErr := svc.Upload(context.Background(), UploadParams{
		Email: "user@example.com",
		Data:  []byte("image-bytes"),
	})
	if uploadErr == nil {
		t.Fatal("ожидалась ошибка")
	}
	if uploadErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, ожидался 500", uploadErr.StatusCode)
	}
	if repo.createCalls != 0 {
		t.Error("запись не должна создаваться при сбое хранилища")
	}
}

// TestUploadService_RecordError проверяет сбой создания записи после записи байтов.
func TestUploadService_RecordError(t *testing.T) {
	store := &mockStore{}
	repo := &mockImageRepo{
		createFn: func(_ context.Context, _ *model.ImageRecord) (*model.ImageRecord, error) {
			return nil, errors.New("соединение потеряно")
		},
	}
	svc := NewUploadService(store, repo, slog.Default())

	_, uploadErr := svc.Upload(context.Background(), UploadParams{
		Email: "user@example.com",
		Data:  []byte("image-bytes"),
	})
	if uploadErr == nil {
		t.Fatal("ожидалась ошибка")
	}
	if uploadErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, ожидался 500", uploadErr.StatusCode)
	}
	if store.storeCalls != 1 {
		t.Errorf("хранилище вызвано %d раз, ожидался 1", store.storeCalls)
	}
}

// TestUploadService_MalformedMetadata проверяет lenient-парсинг контекста:
// некорректный JSON не прерывает загрузку, опциональные поля пусты.
func TestUploadService_MalformedMetadata(t *testing.T) {
	store := &mockStore{}
	repo := &mockImageRepo{
		createFn: func(_ context.Context, rec *model.ImageRecord) (*model.ImageRecord, error) {
			if rec.Location != nil || rec.DeviceInfo != nil || rec.CaptureTime != nil || rec.Timestamp != nil {
				t.Error("опциональные поля должны быть пусты при некорректном JSON")
			}
			return rec, nil
		},
	}
	svc := NewUploadService(store, repo, slog.Default())

	_, uploadErr := svc.Upload(context.Background(), UploadParams{
		Email:        "user@example.com",
		Data:         []byte("image-bytes"),
		MetadataJSON: `{not-json`,
	})
	if uploadErr != nil {
		t.Fatalf("некорректный JSON контекста не должен прерывать загрузку: %v", uploadErr)
	}
}

// TestUploadService_NameFallback проверяет разрешение имени:
// пустой imageName → оригинальное имя файла.
func TestUploadService_NameFallback(t *testing.T) {
	store := &mockStore{
		storeFn: func(_ context.Context, name string, _ []byte) (string, error) {
			if name != "original.png" {
				t.Errorf("имя объекта = %q, ожидался original.png", name)
			}
			return "cid-1", nil
		},
	}
	repo := &mockImageRepo{
		createFn: func(_ context.Context, rec *model.ImageRecord) (*model.ImageRecord, error) {
			if rec.ImageName == nil || *rec.ImageName != "original.png" {
				t.Errorf("imageName = %v, ожидался original.png", rec.ImageName)
			}
			return rec, nil
		},
	}
	svc := NewUploadService(store, repo, slog.Default())

	_, uploadErr := svc.Upload(context.Background(), UploadParams{
		Email:            "user@example.com",
		Data:             []byte("image-bytes"),
		OriginalFilename: "original.png",
	})
	if uploadErr != nil {
		t.Fatalf("неожиданная ошибка: %v", uploadErr)
	}
}

// TestUploadService_TwoUploads проверяет независимость записей:
// две загрузки — два вызова Create, даже с одинаковыми байтами.
func TestUploadService_TwoUploads(t *testing.T) {
	store := &mockStore{}
	repo := &mockImageRepo{}
	svc := NewUploadService(store, repo, slog.Default())

	for i := 0; i < 2; i++ {
		_, uploadErr := svc.Upload(context.Background(), UploadParams{
			Email: "user@example.com",
			Data:  []byte("same-bytes"),
		})
		if uploadErr != nil {
			t.Fatalf("загрузка %d: %v", i+1, uploadErr)
		}
	}

	if repo.createCalls != 2 {
		t.Errorf("Create вызван %d раз, ожидалось 2", repo.createCalls)
	}
}

// --- Тесты resolveFileType ---

// TestResolveFileType проверяет определение MIME-типа.
func TestResolveFileType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		data        []byte
		want        string
	}{
		{"из заголовка", "image/jpeg", []byte("data"), "image/jpeg"},
		{"заголовок с параметрами", "image/png; charset=binary", []byte("data"), "image/png"},
		{"сниффинг png", "", []byte("\x89PNG\r\n\x1a\nxxxx"), "image/png"},
		{"пустые данные", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveFileType(tt.contentType, tt.data); got != tt.want {
				t.Errorf("resolveFileType() = %q, ожидался %q", got, tt.want)
			}
		})
	}
}

// --- Тесты parseClientMetadata ---

// TestParseClientMetadata проверяет lenient-парсинг клиентского контекста.
func TestParseClientMetadata(t *testing.T) {
	logger := slog.Default()

	t.Run("валидный JSON", func(t *testing.T) {
		meta := parseClientMetadata(`{"captureTime":"2026-08-30T10:00:00Z","location":"Тверь"}`, logger)
		if meta.CaptureTime == nil || *meta.CaptureTime != "2026-08-30T10:00:00Z" {
			t.Errorf("captureTime = %v", meta.CaptureTime)
		}
		if meta.Location == nil || *meta.Location != "Тверь" {
			t.Errorf("location = %v", meta.Location)
		}
		if meta.DeviceInfo != nil {
			t.Errorf("deviceInfo = %v, ожидался nil", meta.DeviceInfo)
		}
	})

	t.Run("пустая строка", func(t *testing.T) {
		meta := parseClientMetadata("", logger)
		if meta.CaptureTime != nil || meta.Location != nil {
			t.Error("все поля должны быть nil")
		}
	})

	t.Run("некорректный JSON", func(t *testing.T) {
		meta := parseClientMetadata(`{"location":`, logger)
		if meta.Location != nil {
			t.Error("все поля должны быть nil при некорректном JSON")
		}
	})
}
