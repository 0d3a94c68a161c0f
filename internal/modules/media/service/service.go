package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	postDomain "github.com/reshetovitsme/email-telegram-relay/internal/modules/post/domain"
	"github.com/samber/lo/parallel"
	"github.com/samber/oops"
)

// FileClient is the slice of the Telegram bot API needed to resolve and
// download files.
type FileClient interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// Ensure *bot.Bot satisfies FileClient
var _ FileClient = (*bot.Bot)(nil)

// Service downloads Telegram media into local working directories
type Service struct {
	client FileClient
	http   *http.Client
}

// New creates a media service. The Telegram client is attached later via
// SetClient because the bot itself is constructed after its handlers.
func New() *Service {
	return &Service{
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

// SetClient sets the Telegram client used for file resolution
func (s *Service) SetClient(client FileClient) {
	s.client = client
}

type downloadResult struct {
	attachment postDomain.Attachment
	err        error
}

// DownloadAll fetches the attachments concurrently into dir. It returns
// the successfully downloaded attachments with LocalPath set, in the
// original order, plus the number that could not be retrieved.
func (s *Service) DownloadAll(ctx context.Context, attachments []postDomain.Attachment, dir string) ([]postDomain.Attachment, int) {
	if len(attachments) == 0 {
		return nil, 0
	}

	// Albums can carry identically named files (two documents both called
	// report.pdf); disambiguate before they land in one directory.
	staged := make([]postDomain.Attachment, len(attachments))
	copy(staged, attachments)
	seen := make(map[string]int, len(staged))
	for i := range staged {
		n := seen[staged[i].Name]
		seen[staged[i].Name] = n + 1
		if n > 0 {
			staged[i].Name = fmt.Sprintf("%d_%s", n+1, staged[i].Name)
		}
	}

	results := parallel.Map(staged, func(att postDomain.Attachment, _ int) downloadResult {
		path, err := s.Download(ctx, att, dir)
		if err == nil {
			att.LocalPath = path
		}
		return downloadResult{attachment: att, err: err}
	})

	downloaded := make([]postDomain.Attachment, 0, len(results))
	omitted := 0
	for _, r := range results {
		if r.err != nil {
			slog.Error("Attachment download failed", "kind", r.attachment.Kind, "file_id", r.attachment.FileID, "error", r.err)
			omitted++
			continue
		}
		downloaded = append(downloaded, r.attachment)
	}
	return downloaded, omitted
}

// Download fetches a single attachment into dir and returns the local path
func (s *Service) Download(ctx context.Context, att postDomain.Attachment, dir string) (string, error) {
	if s.client == nil {
		return "", oops.Errorf("telegram client not initialized")
	}

	file, err := s.client.GetFile(ctx, &bot.GetFileParams{FileID: att.FileID})
	if err != nil {
		return "", oops.With("file_id", att.FileID, "kind", att.Kind).Wrap(err)
	}

	url := s.client.FileDownloadLink(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", oops.With("file_id", att.FileID).Wrap(err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", oops.With("file_id", att.FileID).Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", oops.With("file_id", att.FileID, "status", resp.StatusCode).Errorf("unexpected download status: %s", resp.Status)
	}

	path := filepath.Join(dir, att.Name)
	out, err := os.Create(path)
	if err != nil {
		return "", oops.With("path", path).Wrap(err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return "", oops.With("path", path).Wrap(err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", oops.With("path", path).Wrap(err)
	}

	return path, nil
}
