package intake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venueops/tktsrecon/internal/domain/recon"
	"github.com/venueops/tktsrecon/internal/infrastructure/config"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("date\n20250408\n"), 0o644))
}

func sourceConfig(t *testing.T) config.SourceConfig {
	t.Helper()
	return config.SourceConfig{Dir: t.TempDir(), Prefix: "charges", Ext: ".csv"}
}

func TestValidateSource(t *testing.T) {
	sc := sourceConfig(t)
	writeFile(t, filepath.Join(sc.Dir, "charges_20250408.csv"))
	writeFile(t, filepath.Join(sc.Dir, "charges_20250409.csv"))

	sf, err := NewValidator(nil).ValidateSource("charges", sc)
	require.NoError(t, err)
	assert.Equal(t, []string{"20250408", "20250409"}, sf.Dates)
	require.Len(t, sf.Files, 2)
	assert.Equal(t, filepath.Join(sc.Dir, "charges_20250408.csv"), sf.Files[0])
}

func TestValidateSourceMissingFolder(t *testing.T) {
	sc := config.SourceConfig{Dir: filepath.Join(t.TempDir(), "nope"), Prefix: "charges", Ext: ".csv"}

	_, err := NewValidator(nil).ValidateSource("charges", sc)
	require.Error(t, err)
	assert.Equal(t, recon.KindMissingSource, recon.KindOf(err))
	assert.True(t, recon.IsFatal(err))
}

func TestValidateSourceEmptyFolder(t *testing.T) {
	sc := sourceConfig(t)

	_, err := NewValidator(nil).ValidateSource("charges", sc)
	require.Error(t, err)
	assert.Equal(t, recon.KindMissingSource, recon.KindOf(err))
}

func TestValidateSourceRejectsStrayExtension(t *testing.T) {
	sc := sourceConfig(t)
	writeFile(t, filepath.Join(sc.Dir, "charges_20250408.csv"))
	writeFile(t, filepath.Join(sc.Dir, "notes.txt"))

	_, err := NewValidator(nil).ValidateSource("charges", sc)
	require.Error(t, err)
	assert.Equal(t, recon.KindMissingSource, recon.KindOf(err))
	assert.Contains(t, err.Error(), "notes.txt")
}

func TestValidateSourceRejectsUnmatchedName(t *testing.T) {
	sc := sourceConfig(t)
	writeFile(t, filepath.Join(sc.Dir, "charges_april.csv"))

	_, err := NewValidator(nil).ValidateSource("charges", sc)
	require.Error(t, err)
	assert.Equal(t, recon.KindMissingSource, recon.KindOf(err))
}

func TestValidateSourceNormalizesCasing(t *testing.T) {
	sc := config.SourceConfig{Dir: t.TempDir(), Prefix: "ticketoffice", Ext: ".csv"}
	writeFile(t, filepath.Join(sc.Dir, "TicketOffice_20250408.csv"))

	sf, err := NewValidator(nil).ValidateSource("ticketoffice", sc)
	require.NoError(t, err)
	require.Len(t, sf.Files, 1)
	assert.Equal(t, filepath.Join(sc.Dir, "ticketoffice_20250408.csv"), sf.Files[0])

	_, statErr := os.Stat(sf.Files[0])
	assert.NoError(t, statErr)
}

func TestValidateSourceFilenameCollision(t *testing.T) {
	sc := config.SourceConfig{Dir: t.TempDir(), Prefix: "ticketoffice", Ext: ".csv"}
	writeFile(t, filepath.Join(sc.Dir, "TicketOffice_20250408.csv"))
	require.NoError(t, os.WriteFile(
		filepath.Join(sc.Dir, "ticketoffice_20250408.csv"), []byte("different\n"), 0o644))

	_, err := NewValidator(nil).ValidateSource("ticketoffice", sc)
	require.Error(t, err)
	assert.Equal(t, recon.KindFilenameCollision, recon.KindOf(err))
	assert.True(t, recon.IsFatal(err))
}

func TestValidateAllStopsOnFirstFailure(t *testing.T) {
	cfg := config.SourcesConfig{
		TicketOffice:       config.SourceConfig{Dir: t.TempDir(), Prefix: "ticketoffice", Ext: ".csv"},
		SaleItemsMoP:       config.SourceConfig{Dir: filepath.Join(t.TempDir(), "missing"), Prefix: "saleitemsmop", Ext: ".csv"},
		Charges:            config.SourceConfig{Dir: t.TempDir(), Prefix: "charges", Ext: ".csv"},
		KlarnaDailyTakings: config.SourceConfig{Dir: t.TempDir(), Prefix: "klarna_dailytakings", Ext: ".csv"},
		KlarnaSeasonEvent:  config.SourceConfig{Dir: t.TempDir(), Prefix: "klarna_seasoneventmop", Ext: ".csv"},
		Membership:         config.SourceConfig{Dir: t.TempDir(), Prefix: "membershipdailydetailedtotalonly", Ext: ".csv"},
	}
	writeFile(t, filepath.Join(cfg.TicketOffice.Dir, "ticketoffice_20250408.csv"))

	_, err := NewValidator(nil).ValidateAll(cfg)
	require.Error(t, err)
	assert.Equal(t, recon.KindMissingSource, recon.KindOf(err))
}
