package repository

import (
	"errors"
	"testing"

	"github.com/bigkaa/imagevault/internal/domain/model"
)

// --- Тесты validateRecord ---

// TestValidateRecord_Valid проверяет корректную запись.
func TestValidateRecord_Valid(t *testing.T) {
	name := "photo.jpg"
	rec := &model.ImageRecord{
		Email:     "user@example.com",
		CID:       "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
		ImageName: &name,
	}

	if err := validateRecord(rec); err != nil {
		t.Errorf("ожидалась валидная запись, получена ошибка: %v", err)
	}
}

// TestValidateRecord_OptionalFieldsNil проверяет запись без опциональных полей.
func TestValidateRecord_OptionalFieldsNil(t *testing.T) {
	rec := &model.ImageRecord{
		Email: "user@example.com",
		CID:   "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
	}

	if err := validateRecord(rec); err != nil {
		t.Errorf("опциональные поля не обязательны, получена ошибка: %v", err)
	}
}

// TestValidateRecord_MissingEmail проверяет запись без email.
func TestValidateRecord_MissingEmail(t *testing.T) {
	rec := &model.ImageRecord{
		CID: "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
	}

	err := validateRecord(rec)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("ожидалась ErrValidation, получено: %v", err)
	}
}

// TestValidateRecord_MissingCID проверяет запись без cid.
func TestValidateRecord_MissingCID(t *testing.T) {
	rec := &model.ImageRecord{
		Email: "user@example.com",
	}

	err := validateRecord(rec)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("ожидалась ErrValidation, получено: %v", err)
	}
}

// TestValidateRecord_Nil проверяет nil-запись.
func TestValidateRecord_Nil(t *testing.T) {
	err := validateRecord(nil)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("ожидалась ErrValidation, получено: %v", err)
	}
}
