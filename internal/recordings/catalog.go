// Package recordings maintains the catalog of recording files produced
// by stream sessions: directory listing, a database index linking files
// to the sessions that produced them, and a filesystem watcher keeping
// the two in sync.
package recordings

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mantonx/streamcast/internal/database"
)

// Info describes one recording file
type Info struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Created   time.Time `json:"created"`
	SessionID string    `json:"sessionId,omitempty"`
}

// Catalog lists and indexes recording files
type Catalog struct {
	logger hclog.Logger
	dir    string
	db     *gorm.DB
}

// NewCatalog creates a recordings catalog over the given directory. The
// database handle is optional; without it the catalog degrades to plain
// directory listing.
func NewCatalog(logger hclog.Logger, dir string, db *gorm.DB) *Catalog {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Catalog{
		logger: logger,
		dir:    dir,
		db:     db,
	}
}

// Dir returns the recordings directory
func (c *Catalog) Dir() string {
	return c.dir
}

// List returns all recording files currently on disk. An absent
// directory yields an empty list, not an error. Files are annotated with
// the originating session id when the index knows it.
func (c *Catalog) List() ([]Info, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, err
	}

	sessions := c.sessionIndex()

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		infos = append(infos, Info{
			Name:      entry.Name(),
			Path:      path,
			Size:      fi.Size(),
			Created:   fi.ModTime(),
			SessionID: sessions[path],
		})
	}
	return infos, nil
}

// Track records that a session is writing a recording to the given path
func (c *Catalog) Track(sessionID, path string) error {
	if c.db == nil {
		return nil
	}
	rec := database.Recording{
		SessionID: sessionID,
		Name:      filepath.Base(path),
		Path:      path,
	}
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_id", "name"}),
	}).Create(&rec).Error
}

// sessionIndex maps recording paths to the session ids that produced them
func (c *Catalog) sessionIndex() map[string]string {
	index := make(map[string]string)
	if c.db == nil {
		return index
	}

	var rows []database.Recording
	if err := c.db.Find(&rows).Error; err != nil {
		c.logger.Warn("failed to load recording index", "error", err)
		return index
	}
	for _, row := range rows {
		index[row.Path] = row.SessionID
	}
	return index
}

// syncFile refreshes the indexed size of a recording file
func (c *Catalog) syncFile(path string) {
	if c.db == nil {
		return
	}
	fi, err := os.Stat(path)
	if err != nil {
		return
	}
	if err := c.db.Model(&database.Recording{}).Where("path = ?", path).Update("size", fi.Size()).Error; err != nil {
		c.logger.Debug("failed to sync recording size", "path", path, "error", err)
	}
}

// forgetFile drops an index row for a file removed from disk
func (c *Catalog) forgetFile(path string) {
	if c.db == nil {
		return
	}
	if err := c.db.Where("path = ?", path).Delete(&database.Recording{}).Error; err != nil {
		c.logger.Debug("failed to drop recording index row", "path", path, "error", err)
	}
}
