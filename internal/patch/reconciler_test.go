package patch_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simpatch/internal/assets"
	"simpatch/internal/models"
	"simpatch/internal/patch"
	"simpatch/internal/patch/mocks"
	"simpatch/internal/repository/sqlite"
	"simpatch/internal/shared"
	"simpatch/internal/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fixture builds the simfile tree used by most tests:
//
//	Love Song/preview.mp3
//	abc_folder/            (no preview)
//	Other Song/preview.mp3
func fixture(t *testing.T) (string, *assets.Resolver) {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"Love Song", "abc_folder", "Other Song"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}
	for _, dir := range []string{"Love Song", "Other Song"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, dir, "preview.mp3"), []byte("ID3"), 0644))
	}
	return root, assets.NewResolver(root, assets.AliasMap{"ABC": "abc_folder"})
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var (
	loveSong  = models.Simfile{ID: 1, Title: "Love Song", PreviewURL: "covers/lovesong.jpg"}
	xyz       = models.Simfile{ID: 2, Title: "XYZ", PreviewURL: "covers/xyz.jpg"}
	abc       = models.Simfile{ID: 3, Title: "ABC", PreviewURL: "covers/abc.jpg"}
	otherSong = models.Simfile{ID: 4, Title: "other song", PreviewURL: "covers/other.jpg"}
)

func TestRunMixedBatch(t *testing.T) {
	root, resolver := fixture(t)
	ctx := context.Background()

	catalog := new(mocks.MockCatalog)
	store := new(mocks.MockStore)
	auditor := new(mocks.MockAuditor)

	catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{loveSong, xyz, abc}, nil)
	store.On("Upload", ctx, "covers/lovesong.mp3", mock.Anything, int64(3), "audio/mpeg").Return(nil)
	catalog.On("SetSoundPreview", ctx, int64(1), "covers/lovesong.mp3").Return(nil)
	auditor.On("Log", ctx, patch.AuditActionUpdate, "simpatch", "simfile:1",
		mock.MatchedBy(func(d map[string]interface{}) bool {
			return d["sound_preview_url"] == "covers/lovesong.mp3" && d["match"] == "exact"
		})).Return()

	var out bytes.Buffer
	r := patch.NewReconciler(catalog, store, resolver, auditor, quietLogger(), &out, patch.Options{})
	report, err := r.Run(ctx)
	require.NoError(t, err)

	want := strings.Join([]string{
		"Title: Love Song",
		"Found Folder: " + filepath.Join(root, "Love Song"),
		"Sound file found: " + filepath.Join(root, "Love Song", "preview.mp3"),
		"Updated sound_preview_url: covers/lovesong.mp3",
		"Title: XYZ",
		"Folder not found: " + filepath.Join(root, "XYZ"),
		"Title: ABC",
		"Found Folder: " + filepath.Join(root, "abc_folder"),
		"Sound file not found.",
	}, "\n") + "\n"
	assert.Equal(t, want, out.String())

	assert.Equal(t, r.RunID(), report.RunID)
	assert.Equal(t, 3, report.Selected)
	assert.Equal(t, 3, report.Visited)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.FolderNotFound)
	assert.Equal(t, 1, report.SoundNotFound)
	assert.Equal(t, 2, report.Skipped())

	catalog.AssertExpectations(t)
	store.AssertExpectations(t)
	auditor.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "Upload", 1)
	catalog.AssertNumberOfCalls(t, "SetSoundPreview", 1)
}

func TestRunPrintsTrimmedTitle(t *testing.T) {
	root, resolver := fixture(t)
	ctx := context.Background()

	catalog := new(mocks.MockCatalog)
	store := new(mocks.MockStore)
	padded := models.Simfile{ID: 5, Title: "  XYZ \n", PreviewURL: "covers/xyz.jpg"}
	catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{padded}, nil)

	var out bytes.Buffer
	r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), &out, patch.Options{})
	_, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Title: XYZ\nFolder not found: "+filepath.Join(root, "XYZ")+"\n", out.String())
}

func TestRunUploadsFileContent(t *testing.T) {
	_, resolver := fixture(t)
	ctx := context.Background()

	catalog := new(mocks.MockCatalog)
	store := new(mocks.MockStore)
	catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{otherSong}, nil)
	catalog.On("SetSoundPreview", ctx, int64(4), "covers/other.mp3").Return(nil)

	var uploaded []byte
	store.On("Upload", ctx, "covers/other.mp3", mock.Anything, int64(3), "audio/ogg").
		Run(func(args mock.Arguments) {
			uploaded, _ = io.ReadAll(args.Get(2).(io.Reader))
		}).Return(nil)

	r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), io.Discard, patch.Options{ContentType: "audio/ogg"})
	report, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(uploaded))
	assert.Equal(t, 1, report.Updated)
}

func TestRunAborts(t *testing.T) {
	ctx := context.Background()

	t.Run("Query Failure", func(t *testing.T) {
		_, resolver := fixture(t)
		catalog := new(mocks.MockCatalog)
		store := new(mocks.MockStore)
		catalog.On("PendingSimfiles", ctx).Return(nil, errors.New("connection refused"))

		r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), io.Discard, patch.Options{})
		_, err := r.Run(ctx)
		assert.ErrorContains(t, err, "connection refused")
		store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Upload Failure Stops Before Update And Later Records", func(t *testing.T) {
		_, resolver := fixture(t)
		catalog := new(mocks.MockCatalog)
		store := new(mocks.MockStore)
		uploadErr := errors.New("bucket not found")
		catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{loveSong, otherSong}, nil)
		store.On("Upload", ctx, "covers/lovesong.mp3", mock.Anything, int64(3), "audio/mpeg").Return(uploadErr)

		var out bytes.Buffer
		r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), &out, patch.Options{})
		report, err := r.Run(ctx)
		assert.ErrorIs(t, err, uploadErr)
		assert.Equal(t, 1, report.Visited)
		assert.Equal(t, 0, report.Updated)
		assert.NotContains(t, out.String(), "Updated sound_preview_url")
		assert.NotContains(t, out.String(), "Title: other song")
		catalog.AssertNotCalled(t, "SetSoundPreview", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Update Failure Keeps Earlier Progress", func(t *testing.T) {
		_, resolver := fixture(t)
		catalog := new(mocks.MockCatalog)
		store := new(mocks.MockStore)
		catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{loveSong, otherSong}, nil)
		store.On("Upload", ctx, mock.Anything, mock.Anything, int64(3), "audio/mpeg").Return(nil)
		catalog.On("SetSoundPreview", ctx, int64(1), "covers/lovesong.mp3").Return(nil)
		catalog.On("SetSoundPreview", ctx, int64(4), "covers/other.mp3").Return(shared.ErrSimfileNotFound)

		r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), io.Discard, patch.Options{})
		report, err := r.Run(ctx)
		assert.ErrorIs(t, err, shared.ErrSimfileNotFound)
		assert.Equal(t, 1, report.Updated)
		assert.Equal(t, 2, report.Visited)
	})

	t.Run("Canceled Context", func(t *testing.T) {
		_, resolver := fixture(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		catalog := new(mocks.MockCatalog)
		store := new(mocks.MockStore)
		catalog.On("PendingSimfiles", canceled).Return([]models.Simfile{loveSong}, nil)

		r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), io.Discard, patch.Options{})
		report, err := r.Run(canceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, report.Visited)
	})
}

func TestRunOptions(t *testing.T) {
	ctx := context.Background()

	t.Run("Dry Run", func(t *testing.T) {
		_, resolver := fixture(t)
		catalog := new(mocks.MockCatalog)
		store := new(mocks.MockStore)
		catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{loveSong, xyz}, nil)

		var out bytes.Buffer
		r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), &out, patch.Options{DryRun: true})
		report, err := r.Run(ctx)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Would update sound_preview_url: covers/lovesong.mp3\n")
		assert.Equal(t, 1, report.Planned)
		assert.Equal(t, 0, report.Updated)
		store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		catalog.AssertNotCalled(t, "SetSoundPreview", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Skip Existing Reuses Stored Object", func(t *testing.T) {
		_, resolver := fixture(t)
		catalog := new(mocks.MockCatalog)
		store := new(mocks.MockStore)
		catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{loveSong, otherSong}, nil)
		store.On("Exists", ctx, "covers/lovesong.mp3").Return(true, nil)
		store.On("Exists", ctx, "covers/other.mp3").Return(false, nil)
		store.On("Upload", ctx, "covers/other.mp3", mock.Anything, int64(3), "audio/mpeg").Return(nil)
		catalog.On("SetSoundPreview", ctx, mock.Anything, mock.Anything).Return(nil)

		r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), io.Discard, patch.Options{SkipExisting: true})
		report, err := r.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Updated)
		assert.Equal(t, 1, report.Reused)
		store.AssertNumberOfCalls(t, "Upload", 1)
		catalog.AssertNumberOfCalls(t, "SetSoundPreview", 2)
	})

	t.Run("Limit", func(t *testing.T) {
		_, resolver := fixture(t)
		catalog := new(mocks.MockCatalog)
		store := new(mocks.MockStore)
		catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{xyz, abc, loveSong}, nil)

		r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), io.Discard, patch.Options{Limit: 2})
		report, err := r.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Selected)
		assert.Equal(t, 2, report.Visited)
		assert.Equal(t, 0, report.Updated)
	})

	t.Run("Missing Preview URL", func(t *testing.T) {
		_, resolver := fixture(t)
		catalog := new(mocks.MockCatalog)
		store := new(mocks.MockStore)
		noURL := loveSong
		noURL.PreviewURL = ""
		catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{noURL}, nil)

		r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), io.Discard, patch.Options{})
		report, err := r.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.MissingPreviewURL)
		store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRunTooLarge(t *testing.T) {
	root, _ := fixture(t)
	resolver := assets.NewResolver(root, nil, assets.WithMaxSize(2))
	ctx := context.Background()

	catalog := new(mocks.MockCatalog)
	store := new(mocks.MockStore)
	catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{loveSong}, nil)

	var out bytes.Buffer
	r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), &out, patch.Options{})
	report, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TooLarge)
	assert.Contains(t, out.String(), "Sound file too large: "+filepath.Join(root, "Love Song", "preview.mp3"))
}

func TestPlan(t *testing.T) {
	root, resolver := fixture(t)
	ctx := context.Background()

	catalog := new(mocks.MockCatalog)
	store := new(mocks.MockStore)
	catalog.On("PendingSimfiles", ctx).Return([]models.Simfile{loveSong, xyz, abc, otherSong}, nil)

	r := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), io.Discard, patch.Options{})
	outcomes, err := r.Plan(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	assert.Equal(t, patch.StatusReady, outcomes[0].Status)
	assert.Equal(t, "covers/lovesong.mp3", outcomes[0].Destination)
	assert.Equal(t, patch.StatusFolderNotFound, outcomes[1].Status)
	assert.Equal(t, patch.StatusSoundNotFound, outcomes[2].Status)
	assert.Equal(t, assets.MatchAlias, outcomes[2].Folder.Match)
	assert.Equal(t, patch.StatusReady, outcomes[3].Status)
	assert.Equal(t, assets.MatchCaseInsensitive, outcomes[3].Folder.Match)
	assert.Equal(t, filepath.Join(root, "Other Song"), outcomes[3].Folder.Path)

	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	catalog.AssertNotCalled(t, "SetSoundPreview", mock.Anything, mock.Anything, mock.Anything)
}

// A second run after a successful one selects nothing and changes nothing.
func TestRunIsIdempotent(t *testing.T) {
	_, resolver := fixture(t)
	ctx := context.Background()

	catalog, err := sqlite.NewRepository(filepath.Join(t.TempDir(), "catalog.db"), "simfiles")
	require.NoError(t, err)
	defer catalog.Close()
	require.NoError(t, catalog.EnsureSchemaBootstrapped())
	for _, sf := range []models.Simfile{loveSong, xyz, abc, otherSong} {
		_, err := catalog.InsertSimfile(ctx, sf)
		require.NoError(t, err)
	}

	bucketRoot := t.TempDir()
	store, err := storage.NewLocalStore(bucketRoot, "simfile-sound-previews", false)
	require.NoError(t, err)

	first, err := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), io.Discard, patch.Options{}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Selected)
	assert.Equal(t, 2, first.Updated)

	data, err := os.ReadFile(filepath.Join(bucketRoot, "simfile-sound-previews", "covers", "lovesong.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(data))

	var sound string
	require.NoError(t, catalog.DB.QueryRow("SELECT sound_preview_url FROM simfiles WHERE id = 4").Scan(&sound))
	assert.Equal(t, "covers/other.mp3", sound)

	second, err := patch.NewReconciler(catalog, store, resolver, nil, quietLogger(), io.Discard, patch.Options{}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Selected)
	assert.Equal(t, 0, second.Updated)
}
