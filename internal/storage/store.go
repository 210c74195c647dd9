package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yungbote/trackflow-backend/internal/platform/logger"
)

// Store is the artifact store behind dataset uploads and graph artifacts.
// Keys are slash-separated paths like "jobs/<id>/graph_edges.csv".
type Store interface {
	Write(ctx context.Context, key string, r io.Reader) error
	Read(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("storage: object not found")

const (
	ModeLocal = "local"
	ModeGCS   = "gcs"
)

type Config struct {
	Mode         string
	LocalRoot    string
	Bucket       string
	EmulatorHost string
}

func ConfigFromEnv() Config {
	return Config{
		Mode:         strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_MODE"))),
		LocalRoot:    strings.TrimSpace(os.Getenv("STORAGE_LOCAL_ROOT")),
		Bucket:       strings.TrimSpace(os.Getenv("ARTIFACT_GCS_BUCKET_NAME")),
		EmulatorHost: strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")),
	}
}

// New picks the backend from cfg.Mode, defaulting to local storage under
// ./data when nothing is configured.
func New(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	switch cfg.Mode {
	case ModeGCS:
		return NewGCSStore(ctx, log, cfg)
	case ModeLocal, "":
		root := cfg.LocalRoot
		if root == "" {
			root = "data"
		}
		return NewLocalStore(log, root)
	default:
		return nil, fmt.Errorf("storage: unknown STORAGE_MODE %q", cfg.Mode)
	}
}
