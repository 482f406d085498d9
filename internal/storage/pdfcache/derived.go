package pdfcache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/hkexdocs/internal/models"
)

const (
	textSuffix   = ".txt"
	tablesSuffix = "_tables.json"
)

// DerivedPathsFor returns the text and tables siblings of a primary
func DerivedPathsFor(primary string) models.DerivedPaths {
	stem := strings.TrimSuffix(primary, filepath.Ext(primary))
	return models.DerivedPaths{
		TextPath:   stem + textSuffix,
		TablesPath: stem + tablesSuffix,
	}
}

// SaveDerived persists the full text and tables next to primary.
// Existing files are left alone unless force is set.
func (s *Store) SaveDerived(primary string, text string, tables []models.Table, force bool) (*models.DerivedPaths, error) {
	paths := DerivedPathsFor(primary)

	if tables == nil {
		tables = []models.Table{}
	}
	tablesJSON, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return nil, &models.WriteError{Path: paths.TablesPath, Op: "encode", Err: err}
	}

	if err := s.writeDerived(paths.TextPath, []byte(text), force); err != nil {
		return nil, err
	}
	if err := s.writeDerived(paths.TablesPath, tablesJSON, force); err != nil {
		return nil, err
	}

	// a sweep may have taken the primary while we were writing
	if !fileExists(primary) {
		s.dropDerived(paths)
		return nil, &models.WriteError{Path: primary, Op: "save derived", Err: fs.ErrNotExist}
	}
	return &paths, nil
}

func (s *Store) dropDerived(paths models.DerivedPaths) {
	for _, p := range []string{paths.TextPath, paths.TablesPath} {
		if _, err := removeIfPresent(p); err != nil {
			s.logger.Warn().Err(err).Str("path", p).Msg("Failed to remove orphaned derived file")
		}
	}
}

// writeDerived writes data to path through a private temp handle. Without
// force an existing file wins, including one a peer commits mid-write.
func (s *Store) writeDerived(path string, data []byte, force bool) error {
	if !force && fileExists(path) {
		s.logger.Debug().Str("path", path).Msg("Derived file exists, skipping")
		return nil
	}

	tmp := tempName(path)
	if err := writeSynced(tmp, data); err != nil {
		removeQuiet(tmp)
		return &models.WriteError{Path: tmp, Op: "write", Err: err}
	}

	if force {
		if err := os.Rename(tmp, path); err != nil {
			removeQuiet(tmp)
			return &models.WriteError{Path: path, Op: "rename", Err: err}
		}
		s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("Derived file replaced")
		return nil
	}

	won, err := commitNoReplace(tmp, path)
	if err != nil {
		removeQuiet(tmp)
		return &models.WriteError{Path: path, Op: "commit", Err: err}
	}
	if won {
		s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("Derived file written")
	}
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// removeIfPresent deletes path, reporting whether a file was actually removed
func removeIfPresent(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
