package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/imagevault/internal/domain/model"
)

// imageColumns — список столбцов таблицы image_metadata для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const imageColumns = `id, email, cid, image_name, capture_time, location,
	device_info, client_timestamp, file_type, created_at, updated_at`

// ImageRepository — интерфейс доступа к записям image_metadata.
// Create — единственная операция записи; путей обновления и удаления нет.
type ImageRepository interface {
	// Create сохраняет новую запись метаданных и возвращает её
	// с назначенным id и временными метками хранилища.
	Create(ctx context.Context, rec *model.ImageRecord) (*model.ImageRecord, error)
	// FindByEmail возвращает все записи владельца в порядке создания.
	FindByEmail(ctx context.Context, email string) ([]*model.ImageRecord, error)
	// FindByCID возвращает запись по content address.
	// При нескольких записях с одним CID — самая ранняя.
	FindByCID(ctx context.Context, cid string) (*model.ImageRecord, error)
}

// imageRepo — реализация ImageRepository через pgx.
type imageRepo struct {
	db DBTX
}

// NewImageRepository создаёт репозиторий метаданных изображений.
func NewImageRepository(db DBTX) ImageRepository {
	return &imageRepo{db: db}
}

// validateRecord проверяет обязательные поля перед вставкой.
func validateRecord(rec *model.ImageRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: запись отсутствует", ErrValidation)
	}
	if rec.Email == "" {
		return fmt.Errorf("%w: пустой email", ErrValidation)
	}
	if rec.CID == "" {
		return fmt.Errorf("%w: пустой cid", ErrValidation)
	}
	return nil
}

// Create вставляет запись метаданных. id генерируется здесь (UUID),
// created_at/updated_at назначает база данных.
func (r *imageRepo) Create(ctx context.Context, rec *model.ImageRecord) (*model.ImageRecord, error) {
	if err := validateRecord(rec); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO image_metadata (id, email, cid, image_name, capture_time,
			location, device_info, client_timestamp, file_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, imageColumns)

	created := &model.ImageRecord{}
	err := r.db.QueryRow(ctx, query,
		uuid.New().String(), rec.Email, rec.CID, rec.ImageName, rec.CaptureTime,
		rec.Location, rec.DeviceInfo, rec.Timestamp, rec.FileType,
	).Scan(
		&created.ID, &created.Email, &created.CID, &created.ImageName,
		&created.CaptureTime, &created.Location, &created.DeviceInfo,
		&created.Timestamp, &created.FileType, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания записи метаданных: %w", err)
	}
	return created, nil
}

// FindByEmail возвращает записи владельца в детерминированном порядке
// создания. Пустой результат — пустой срез, не ошибка.
func (r *imageRepo) FindByEmail(ctx context.Context, email string) ([]*model.ImageRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM image_metadata
		WHERE email = $1
		ORDER BY created_at ASC, id ASC`, imageColumns)

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки записей владельца: %w", err)
	}
	defer rows.Close()

	result := []*model.ImageRecord{}
	for rows.Next() {
		rec := &model.ImageRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Email, &rec.CID, &rec.ImageName,
			&rec.CaptureTime, &rec.Location, &rec.DeviceInfo,
			&rec.Timestamp, &rec.FileType, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	return result, nil
}

// FindByCID возвращает запись по content address или ErrNotFound.
// Один CID может встречаться в нескольких записях (одинаковые байты
// от разных загрузок) — возвращаем самую раннюю.
func (r *imageRepo) FindByCID(ctx context.Context, cid string) (*model.ImageRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM image_metadata
		WHERE cid = $1
		ORDER BY created_at ASC
		LIMIT 1`, imageColumns)

	rec := &model.ImageRecord{}
	err := r.db.QueryRow(ctx, query, cid).Scan(
		&rec.ID, &rec.Email, &rec.CID, &rec.ImageName,
		&rec.CaptureTime, &rec.Location, &rec.DeviceInfo,
		&rec.Timestamp, &rec.FileType, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска записи по cid: %w", err)
	}
	return rec, nil
}
