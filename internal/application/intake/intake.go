// Package intake validates the per-source input folders before any
// extraction runs. A run never starts on a folder that is missing, empty, or
// carrying stray file types, and filename casing is normalized up front so
// every later stage can rely on the <prefix>_<YYYYMMDD>.<ext> form.
package intake

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/venueops/tktsrecon/internal/domain/recon"
	"github.com/venueops/tktsrecon/internal/infrastructure/config"
)

// SourceFiles is the validated file set for one source.
type SourceFiles struct {
	Name  string
	Files []string // absolute paths, sorted
	Dates []string // YYYYMMDD per file, aligned with Files
}

// Validator checks source folders and normalizes filenames.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a validator. logger may be nil.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// ValidateAll validates every configured source in a fixed order. The first
// failure aborts: a half-checked input set must not reach extraction.
func (v *Validator) ValidateAll(cfg config.SourcesConfig) ([]*SourceFiles, error) {
	sources := []struct {
		name string
		cfg  config.SourceConfig
	}{
		{"ticketoffice", cfg.TicketOffice},
		{"saleitemsmop", cfg.SaleItemsMoP},
		{"charges", cfg.Charges},
		{"klarna_dailytakings", cfg.KlarnaDailyTakings},
		{"klarna_seasoneventmop", cfg.KlarnaSeasonEvent},
		{"membership", cfg.Membership},
	}

	out := make([]*SourceFiles, 0, len(sources))
	for _, s := range sources {
		sf, err := v.ValidateSource(s.name, s.cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, sf)
	}
	return out, nil
}

// ValidateSource checks one source folder: it must exist, be non-empty, and
// contain only files with the configured extension. Filenames are normalized
// to the canonical lowercase <prefix>_<YYYYMMDD>.<ext> form; a rename that
// would overwrite a distinct file aborts the stage.
func (v *Validator) ValidateSource(name string, sc config.SourceConfig) (*SourceFiles, error) {
	entries, err := os.ReadDir(sc.Dir)
	if err != nil {
		return nil, recon.Errorf(recon.KindMissingSource, "intake",
			"%s: input folder missing: %s", name, sc.Dir)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, recon.Errorf(recon.KindMissingSource, "intake",
			"%s: no files found in input folder: %s", name, sc.Dir)
	}
	sort.Strings(files)

	var bad []string
	for _, f := range files {
		if !strings.EqualFold(filepath.Ext(f), sc.Ext) {
			bad = append(bad, f)
		}
	}
	if len(bad) > 0 {
		return nil, recon.Errorf(recon.KindMissingSource, "intake",
			"%s: non-allowed file(s) present, allowed type %s: %s",
			name, sc.Ext, strings.Join(bad, ", "))
	}

	sf := &SourceFiles{Name: name}
	pattern := filenameRe(sc.Prefix)
	for _, f := range files {
		canonical, date, err := v.normalizeFilename(sc, pattern, f)
		if err != nil {
			return nil, err
		}
		sf.Files = append(sf.Files, filepath.Join(sc.Dir, canonical))
		sf.Dates = append(sf.Dates, date)
	}

	v.logger.Info("Source folder validated", "source", name, "files", len(sf.Files))
	return sf, nil
}

// filenameRe matches <prefix>_<YYYYMMDD> stems case-insensitively, so a
// vendor export named TicketOffice_20250408.csv still passes.
func filenameRe(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `_(\d{8})$`)
}

// normalizeFilename renames a file whose stem matches the pattern in the
// wrong casing to the canonical lowercase form. Returns the canonical
// filename and its date component.
func (v *Validator) normalizeFilename(sc config.SourceConfig, pattern *regexp.Regexp, name string) (string, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	m := pattern.FindStringSubmatch(stem)
	if m == nil {
		return "", "", recon.Errorf(recon.KindMissingSource, "intake",
			"filename %s does not match %s", name, sc.FilenamePattern("YYYYMMDD"))
	}
	date := m[1]

	canonical := fmt.Sprintf("%s_%s%s", sc.Prefix, date, strings.ToLower(sc.Ext))
	if name == canonical {
		return canonical, date, nil
	}

	src := filepath.Join(sc.Dir, name)
	dst := filepath.Join(sc.Dir, canonical)
	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", "", recon.Errorf(recon.KindMissingSource, "intake",
			"cannot stat %s: %v", name, err)
	}
	// On a case-insensitive filesystem dst may resolve to src itself; that
	// rename is safe. A distinct file at dst is a collision.
	if dstInfo, err := os.Stat(dst); err == nil && !os.SameFile(srcInfo, dstInfo) {
		return "", "", recon.Errorf(recon.KindFilenameCollision, "intake",
			"cannot rename %s -> %s (target exists)", name, canonical)
	}
	if err := os.Rename(src, dst); err != nil {
		return "", "", recon.Errorf(recon.KindFilenameCollision, "intake",
			"cannot rename %s -> %s: %v", name, canonical, err)
	}

	v.logger.Info("Normalized filename", "from", name, "to", canonical)
	return canonical, date, nil
}
