// Пакет model — доменные модели imagevault.
// ImageRecord — маппинг таблицы image_metadata (владелец — Upload Pipeline).
package model

import "time"

// ImageRecord — запись метаданных загруженного изображения.
// Запись неизменяема после создания: пайплайн только создаёт записи,
// путей обновления и удаления не существует.
type ImageRecord struct {
	// ID — UUID записи (назначается репозиторием при создании)
	ID string
	// Email — email загрузившего (из верифицированного identity-токена)
	Email string
	// CID — content address объекта в хранилище
	CID string
	// ImageName — имя изображения (клиентское или оригинальное имя файла)
	ImageName *string
	// CaptureTime — время съёмки (клиентский контекст)
	CaptureTime *string
	// Location — место съёмки (клиентский контекст)
	Location *string
	// DeviceInfo — информация об устройстве (клиентский контекст)
	DeviceInfo *string
	// Timestamp — клиентская временная метка (как прислал клиент, без парсинга)
	Timestamp *string
	// FileType — MIME-тип загруженных байт
	FileType *string
	// CreatedAt — время создания записи (назначается хранилищем)
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления записи
	UpdatedAt time.Time
}

// ClientMetadata — опциональный контекст загрузки из поля metadata.
// Все поля опциональны: любое подмножество может отсутствовать.
// Некорректный JSON трактуется как пустой объект (lenient parsing).
type ClientMetadata struct {
	// CaptureTime — время съёмки
	CaptureTime *string `json:"captureTime,omitempty"`
	// Location — место съёмки
	Location *string `json:"location,omitempty"`
	// DeviceInfo — информация об устройстве
	DeviceInfo *string `json:"deviceInfo,omitempty"`
	// Timestamp — клиентская временная метка
	Timestamp *string `json:"timestamp,omitempty"`
}
