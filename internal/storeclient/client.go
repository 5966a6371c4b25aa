// Пакет storeclient — HTTP-клиент контент-адресуемого хранилища объектов.
// Загружает байты изображения в bucket и возвращает назначенный хранилищем
// content address (CID). Поддерживает TLS с кастомным CA (IV_STORE_CA_CERT_PATH)
// и ограниченный таймаут запросов.
package storeclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Ошибки клиента хранилища.
var (
	// ErrUnavailable — хранилище недоступно или вернуло некорректный ответ.
	ErrUnavailable = errors.New("хранилище объектов недоступно")
	// ErrEmptyObject — попытка загрузить пустой объект.
	ErrEmptyObject = errors.New("пустой объект")
)

// Client — HTTP-клиент хранилища объектов.
type Client struct {
	httpClient *http.Client
	baseURL    string
	bucket     string
	accessKey  string
	secretKey  string
	logger     *slog.Logger
}

// Config — параметры клиента хранилища.
type Config struct {
	// BaseURL — базовый URL хранилища (например, https://store:9000)
	BaseURL string
	// Bucket — имя bucket для объектов
	Bucket string
	// AccessKey, SecretKey — учётные данные basic auth
	AccessKey string
	SecretKey string
	// CACertPath — путь к CA-сертификату (пустая строка — стандартный пул)
	CACertPath string
	// Timeout — таймаут HTTP-запросов загрузки
	Timeout time.Duration
}

// New создаёт клиент хранилища объектов.
func New(storeCfg Config, logger *slog.Logger) (*Client, error) {
	transport := &http.Transport{
		// Настройка пула idle-соединений для эффективного переиспользования
		MaxIdleConnsPerHost: 10,
	}

	if storeCfg.CACertPath != "" {
		tlsConfig, err := buildTLSConfig(storeCfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата хранилища: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
		logger.Info("CA-сертификат хранилища добавлен в пул доверия",
			slog.String("ca_cert", storeCfg.CACertPath),
		)
	}

	httpClient := &http.Client{
		Timeout:   storeCfg.Timeout,
		Transport: transport,
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    normalizeURL(storeCfg.BaseURL),
		bucket:     storeCfg.Bucket,
		accessKey:  storeCfg.AccessKey,
		secretKey:  storeCfg.SecretKey,
		logger:     logger.With(slog.String("component", "store_client")),
	}, nil
}

// storeResponse — тело ответа хранилища на загрузку объекта.
type storeResponse struct {
	CID string `json:"cid"`
}

// Store загружает байты в хранилище и возвращает назначенный CID.
// name — имя объекта (для диагностики на стороне хранилища, не влияет на CID).
//
// Формат запроса: PUT {baseURL}/api/v1/buckets/{bucket}/objects/{name}
// Авторизация: basic auth (access key / secret key).
func (c *Client) Store(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyObject
	}

	reqURL := fmt.Sprintf("%s/api/v1/buckets/%s/objects/%s",
		c.baseURL, url.PathEscape(c.bucket), url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("создание запроса Store: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.SetBasicAuth(c.accessKey, c.secretKey)

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации хранилища
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Хранилище отклонило загрузку",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return "", fmt.Errorf("%w: статус %d", ErrUnavailable, resp.StatusCode)
	}

	var storeResp storeResponse
	if err := json.NewDecoder(resp.Body).Decode(&storeResp); err != nil {
		return "", fmt.Errorf("%w: некорректный ответ: %v", ErrUnavailable, err)
	}
	if storeResp.CID == "" {
		return "", fmt.Errorf("%w: в ответе отсутствует cid", ErrUnavailable)
	}

	return storeResp.CID, nil
}

// ReadinessChecker — проверка доступности хранилища для health endpoint.
type ReadinessChecker struct {
	client *Client
}

// NewReadinessChecker создаёт проверку готовности хранилища.
func NewReadinessChecker(client *Client) *ReadinessChecker {
	return &ReadinessChecker{client: client}
}

// CheckReady проверяет доступность health endpoint хранилища.
func (c *ReadinessChecker) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	reqURL := c.client.baseURL + "/health/ready"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return "fail", "ошибка создания запроса: " + err.Error()
	}

	resp, err := c.client.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации хранилища
	if err != nil {
		return "fail", fmt.Sprintf("хранилище недоступно: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "fail", fmt.Sprintf("хранилище вернуло статус %d", resp.StatusCode)
	}
	return "ok", "хранилище доступно"
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}
