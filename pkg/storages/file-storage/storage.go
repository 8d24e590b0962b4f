// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package storage_files

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/alteraai/config"
	"github.com/alteraai/pkg/commons"
)

var ErrObjectNotFound = errors.New("object not found")

// Storage keeps recorded answers and other binary assets.
type Storage interface {
	Name() string
	Store(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

func NewStorage(cfg config.AssetStoreConfig, logger commons.Logger) (Storage, error) {
	switch cfg.StorageType {
	case "s3":
		return NewS3Storage(cfg, logger)
	case "local", "":
		base := afero.NewBasePathFs(afero.NewOsFs(), cfg.StoragePath)
		return NewLocalStorage(base, logger), nil
	}
	return nil, fmt.Errorf("unsupported storage type %q", cfg.StorageType)
}

// RecordingKey is where the answer to one interview question is kept.
func RecordingKey(personaId string, questionIndex int) string {
	return path.Join("recordings", personaId, fmt.Sprintf("question-%02d.wav", questionIndex))
}

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + key)
	if k == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return strings.TrimPrefix(k, "/"), nil
}
