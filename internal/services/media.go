package services

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"safeguard-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	BucketProfile  = "profile"
	BucketEvidence = "evidence"
)

func ValidBucket(bucket string) bool {
	return bucket == BucketProfile || bucket == BucketEvidence
}

func EnsureStoragePath(base string, bucket string) (string, error) {
	path := filepath.Join(base, bucket)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

// SaveMediaAsset streams body to disk under basePath/bucket and records it.
func SaveMediaAsset(db *sqlx.DB, basePath, bucket, contentType, filename, ownerID string, body io.Reader) (*models.UploadedAsset, error) {
	if !ValidBucket(bucket) {
		return nil, ErrBadRequest("Unknown bucket")
	}
	assetID := uuid.NewString()
	bucketPath, err := EnsureStoragePath(basePath, bucket)
	if err != nil {
		return nil, err
	}
	targetPath := filepath.Join(bucketPath, assetID)

	file, err := os.Create(targetPath)
	if err != nil {
		return nil, err
	}
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(file, hasher), body)
	_ = file.Close()
	if err != nil {
		_ = os.Remove(targetPath)
		return nil, err
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return nil, ErrBadRequest("File is empty")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = db.Exec(`
INSERT INTO media_assets (id, owner_user_id, bucket, storage_key, filename, content_type, size_bytes, sha256, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, assetID, ownerID, bucket, assetID, nullIfBlank(filename), contentType, size, hex.EncodeToString(hasher.Sum(nil)), time.Now().UTC())
	if err != nil {
		_ = os.Remove(targetPath)
		return nil, err
	}
	return &models.UploadedAsset{AssetID: assetID, URL: BuildAssetURL(assetID)}, nil
}

func BuildAssetURL(assetID string) string {
	return "/api/media/assets/" + assetID + "/content"
}

func GetAsset(db *sqlx.DB, assetID string) (*models.MediaAsset, error) {
	asset := models.MediaAsset{}
	err := db.Get(&asset, `
SELECT id, owner_user_id, bucket, storage_key, filename, content_type, size_bytes, sha256, created_at
FROM media_assets WHERE id = $1
`, assetID)
	if err != nil {
		return nil, notFoundOr(err, "Asset not found")
	}
	return &asset, nil
}

func AssetPath(basePath string, asset *models.MediaAsset) string {
	return filepath.Join(basePath, asset.Bucket, asset.StorageKey)
}

func DeleteAsset(db *sqlx.DB, basePath string, assetID string) error {
	asset, err := GetAsset(db, assetID)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM media_assets WHERE id = $1`, assetID); err != nil {
		return err
	}
	if err := os.Remove(AssetPath(basePath, asset)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
