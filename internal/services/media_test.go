package services

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveMediaAsset(t *testing.T) {
	db, mock := newMockDB(t)
	base := t.TempDir()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO media_assets")).
		WithArgs(sqlmock.AnyArg(), "user-1", "evidence", sqlmock.AnyArg(), "photo.jpg", "image/jpeg", int64(5), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	asset, err := SaveMediaAsset(db, base, BucketEvidence, "image/jpeg", "photo.jpg", "user-1", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, BuildAssetURL(asset.AssetID), asset.URL)

	content, err := os.ReadFile(filepath.Join(base, BucketEvidence, asset.AssetID))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestSaveMediaAssetRejectsEmptyAndUnknownBucket(t *testing.T) {
	db, _ := newMockDB(t)
	base := t.TempDir()

	_, err := SaveMediaAsset(db, base, BucketProfile, "image/png", "a.png", "user-1", strings.NewReader(""))
	requireStatus(t, err, 400)
	entries, _ := os.ReadDir(filepath.Join(base, BucketProfile))
	assert.Empty(t, entries)

	_, err = SaveMediaAsset(db, base, "secrets", "image/png", "a.png", "user-1", strings.NewReader("x"))
	requireStatus(t, err, 400)
}
