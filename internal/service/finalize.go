package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/vbonduro/vistoria/internal/domain"
	"github.com/vbonduro/vistoria/internal/report"
)

const pdfMIME = "application/pdf"

type FinalizeResult struct {
	Inspection *domain.Inspection `json:"inspection"`
	LocalPath  string             `json:"local_path"`
	Filename   string             `json:"filename"`
	Uploaded   bool               `json:"uploaded"`
	Pages      int                `json:"pages"`
}

// Finalize renders the report, saves it under the report directory, tries
// to upload it and marks the inspection completed. A failed upload is logged
// and leaves ReportURL empty; Sync retries it on demand.
//
// writeMu is held from the snapshot to the completion so the report always
// shows the state that gets completed.
func (s *InspectionService) Finalize(ctx context.Context, id string) (*FinalizeResult, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ins, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if ins.Status == domain.StatusCompleted {
		return nil, domain.ErrAlreadyCompleted
	}

	localPath, res, err := s.renderer.WriteFile(ins, s.reportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}
	filename := report.Filename(ins)
	s.logger.Info("report generated", "inspection_id", id, "path", localPath, "pages", res.Pages, "skipped_images", res.SkippedImages)

	url, uploaded := s.uploadFile(ctx, id, filename, localPath)

	out, err := s.commitLocked(ctx, id, mutation{op: "finalize", fn: func(ins *domain.Inspection) error {
		if err := ins.Complete(); err != nil {
			return err
		}
		if uploaded {
			ins.ReportURL = url
		}
		return nil
	}})
	if err != nil {
		if errors.Is(err, domain.ErrNotEditable) {
			return nil, domain.ErrAlreadyCompleted
		}
		return nil, err
	}

	s.logger.Info("inspection finalized", "inspection_id", id, "uploaded", uploaded)
	return &FinalizeResult{
		Inspection: out,
		LocalPath:  localPath,
		Filename:   filename,
		Uploaded:   uploaded,
		Pages:      res.Pages,
	}, nil
}

func (s *InspectionService) uploadFile(ctx context.Context, id, filename, localPath string) (string, bool) {
	if s.blobs == nil {
		return "", false
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		s.logger.Warn("failed to read report for upload", "inspection_id", id, "error", err)
		return "", false
	}
	url, err := s.upload(ctx, id, filename, data)
	if err != nil {
		s.logger.Warn("report upload failed, keeping local copy", "inspection_id", id, "path", localPath, "error", err)
		return "", false
	}
	return url, true
}

func (s *InspectionService) upload(ctx context.Context, id, filename string, data []byte) (string, error) {
	key := ReportKey(id, filename)
	if err := s.blobs.Save(ctx, key, pdfMIME, bytes.NewReader(data)); err != nil {
		return "", err
	}
	url := s.blobs.URL(key)
	s.logger.Info("report uploaded", "inspection_id", id, "key", key, "url", url)
	return url, nil
}

// ReportKey is the blob key of an inspection's report.
func ReportKey(id, filename string) string {
	return path.Join(id, filename)
}

// Sync uploads the report of a completed inspection whose upload failed at
// finalize and records the resulting URL. Failed uploads are never retried
// automatically.
func (s *InspectionService) Sync(ctx context.Context, id string) (*domain.Inspection, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ins, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if ins.Status != domain.StatusCompleted {
		return nil, fmt.Errorf("%w: inspection must be finalized before syncing", domain.ErrValidation)
	}
	if ins.ReportURL != "" {
		return nil, fmt.Errorf("%w: report is already published", domain.ErrValidation)
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("%w: no report storage configured", domain.ErrValidation)
	}

	data, _, err := s.renderer.Bytes(ins)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}
	url, err := s.upload(ctx, id, report.Filename(ins), data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}

	return s.commitLocked(ctx, id, mutation{op: "sync", allowCompleted: true, fn: func(ins *domain.Inspection) error {
		ins.ReportURL = url
		return nil
	}})
}

// Report renders the current state of an inspection as PDF bytes.
func (s *InspectionService) Report(ctx context.Context, id string) ([]byte, string, error) {
	ins, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, res, err := s.renderer.Bytes(ins)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate report: %w", err)
	}
	s.logger.Debug("report rendered", "inspection_id", id, "pages", res.Pages, "bytes", len(data))
	return data, report.Filename(ins), nil
}
