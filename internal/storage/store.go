// Package storage persists batch runs to SQLite so repeated QC passes
// over the same library can be compared later.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soundops/audioqc/internal/batch"
	"github.com/soundops/audioqc/internal/qa"
)

const DefaultDBFile = "audioqc.sqlite3"

const errStoreNil = "store is nil"

// Run is one recorded batch invocation.
type Run struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time
	Dir       string `gorm:"index:idx_run_dir"`
	RuleFile  string
	Version   string
	ElapsedMs int64
	Pass      int
	Warn      int
	Fail      int
	Errored   int
	ExitCode  int
}

// FileResult is one file's outcome within a run. Metric values are
// kept as a JSON blob; queries filter on verdict, not on values.
type FileResult struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	RunID       string `gorm:"type:varchar(36);index:idx_result_run"`
	Path        string
	Verdict     string `gorm:"index:idx_result_verdict"`
	Reason      string
	Error       string
	MetricsJSON string
}

type Store struct {
	DB *gorm.DB
}

// Open opens (creating if needed) the run database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Run{}, &FileResult{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func metricsBlob(fr *qa.FileReport) (string, error) {
	if fr.Errored() || len(fr.Verdicts) == 0 {
		return "", nil
	}
	m := make(map[string]any, len(fr.Verdicts))
	for _, mv := range fr.Verdicts {
		if mv.Value.Valid {
			m[mv.Name] = mv.Value.Float64
		} else {
			m[mv.Name] = nil
		}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SaveRun records a completed batch report in one transaction.
func (s *Store) SaveRun(rep *batch.Report) error {
	if s == nil || s.DB == nil {
		return errors.New(errStoreNil)
	}

	run := Run{
		ID:        rep.RunID,
		CreatedAt: rep.GeneratedAt,
		Dir:       rep.Dir,
		RuleFile:  rep.RuleFile,
		Version:   rep.Version,
		ElapsedMs: rep.Elapsed.Milliseconds(),
		Pass:      rep.Summary.Pass,
		Warn:      rep.Summary.Warn,
		Fail:      rep.Summary.Fail,
		Errored:   rep.Summary.Errored,
		ExitCode:  rep.ExitCode,
	}

	results := make([]FileResult, 0, len(rep.Files))
	for _, fr := range rep.Files {
		blob, err := metricsBlob(fr)
		if err != nil {
			return fmt.Errorf("encoding metrics for %s: %w", fr.Path, err)
		}
		results = append(results, FileResult{
			RunID:       rep.RunID,
			Path:        fr.Path,
			Verdict:     string(fr.Overall),
			Reason:      fr.Reason,
			Error:       fr.Err,
			MetricsJSON: blob,
		})
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("creating run: %w", err)
		}
		if len(results) > 0 {
			if err := tx.CreateInBatches(results, 200).Error; err != nil {
				return fmt.Errorf("creating file results: %w", err)
			}
		}
		return nil
	})
}

// Runs returns the most recent runs for a directory, newest first.
func (s *Store) Runs(dir string, limit int) ([]Run, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New(errStoreNil)
	}
	var runs []Run
	q := s.DB.Order("created_at DESC")
	if dir != "" {
		q = q.Where("dir = ?", dir)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	return runs, nil
}

// Results returns the per-file outcomes for one run, path-ordered.
func (s *Store) Results(runID string) ([]FileResult, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New(errStoreNil)
	}
	var results []FileResult
	if err := s.DB.Where("run_id = ?", runID).Order("path").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	return results, nil
}
