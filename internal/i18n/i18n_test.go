package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Manager {
	t.Helper()

	fsys := fstest.MapFS{
		"ru.yaml": &fstest.MapFile{Data: []byte(`
ru:
  report:
    submitted: "Жалоба #%d принята"
    cancelled: "Отменено"
`)},
		"en.yaml": &fstest.MapFile{Data: []byte(`
en:
  report:
    cancelled: "Cancelled"
`)},
	}

	m, err := LoadFS(fsys, "ru")
	require.NoError(t, err)

	return m
}

func TestTranslatorResolvesNestedKeys(t *testing.T) {
	tr := testCatalog(t).Translator("ru")

	assert.Equal(t, "Отменено", tr.T("report.cancelled"))
	assert.Equal(t, "Жалоба #7 принята", tr.Tf("report.submitted", 7))
}

func TestTranslatorFallsBackToDefaultLang(t *testing.T) {
	tr := testCatalog(t).Translator("en")

	assert.Equal(t, "en", tr.Lang())
	assert.Equal(t, "Cancelled", tr.T("report.cancelled"))
	// missing in en, present in ru
	assert.Equal(t, "Жалоба #1 принята", tr.Tf("report.submitted", 1))
}

func TestTranslatorUnknownLangUsesDefault(t *testing.T) {
	tr := testCatalog(t).Translator("de")

	assert.Equal(t, "ru", tr.Lang())
	assert.Equal(t, "Отменено", tr.T("report.cancelled"))
}

func TestTranslatorMissingKeyReturnsKey(t *testing.T) {
	tr := testCatalog(t).Translator("ru")

	assert.Equal(t, "report.unknown", tr.T("report.unknown"))
}

func TestLoadFSRejectsMissingDefaultLang(t *testing.T) {
	fsys := fstest.MapFS{
		"en.yaml": &fstest.MapFile{Data: []byte("en:\n  a: \"b\"\n")},
	}

	_, err := LoadFS(fsys, "ru")
	assert.Error(t, err)
}
