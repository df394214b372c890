// Package gdrive wraps the Google Drive v3 API for the two operations the
// server needs: uploading a blob into a folder and resolving a named
// subfolder. All folders may live on shared drives.
package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Client talks to the Drive API on behalf of a service account.
type Client struct {
	svc *drive.Service
}

// New builds a Drive client from a service-account key (the raw JSON bytes
// of the GOOGLE_CREDENTIALS_JSON secret) with the full drive scope. Token
// refresh and transport retries are handled by the client library.
func New(ctx context.Context, serviceAccountKey []byte) (*Client, error) {
	cfg, err := google.JWTConfigFromJSON(serviceAccountKey, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("drive credentials: %w", err)
	}
	svc, err := drive.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Upload creates a new file named name under parentID using a resumable
// upload and returns the created file id. Every call creates a new file;
// same-named files are not overwritten or deduplicated.
func (c *Client) Upload(ctx context.Context, data []byte, name, mimeType, parentID string) (string, error) {
	meta := &drive.File{
		Name:    name,
		Parents: []string{parentID},
	}
	created, err := c.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType), googleapi.ChunkSize(googleapi.DefaultUploadChunkSize)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive upload %q: %w", name, err)
	}
	return created.Id, nil
}

// FindOrCreateFolder returns the id of a non-trashed folder named name
// directly under parentID, creating it when no such folder exists. Repeated
// sequential calls with the same pair return the same id; two concurrent
// first calls can race and create duplicates, which is accepted.
func (c *Client) FindOrCreateFolder(ctx context.Context, parentID, name string) (string, error) {
	list, err := c.svc.Files.List().
		Q(folderQuery(parentID, name)).
		Spaces("drive").
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive folder lookup %q: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	meta := &drive.File{
		Name:     name,
		Parents:  []string{parentID},
		MimeType: folderMimeType,
	}
	created, err := c.svc.Files.Create(meta).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive folder create %q: %w", name, err)
	}
	return created.Id, nil
}

func folderQuery(parentID, name string) string {
	return fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = '%s' and trashed = false",
		escapeQueryTerm(parentID), escapeQueryTerm(name), folderMimeType)
}

// escapeQueryTerm escapes backslashes and single quotes per the Drive query
// grammar; tray ids are user input and end up inside quoted terms.
func escapeQueryTerm(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
