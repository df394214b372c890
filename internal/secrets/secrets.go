// Package secrets loads the application's secret set from Google Secret
// Manager once at startup. Any unreachable secret is a fatal configuration
// error; the process must not start partially configured.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

// Bundle holds every secret the server needs, loaded once and treated as
// immutable afterwards.
type Bundle struct {
	NPKFolderID     string
	TodayFolderID   string
	HabitatFolderID string

	KintoneDomain      string
	KintoneAppID       string
	KintoneAPIToken    string
	UserMasterAppID    string
	UserMasterAPIToken string
	AttendanceAppID    string
	AttendanceAPIToken string

	Google ServiceAccount
}

// ServiceAccount is the parsed GOOGLE_CREDENTIALS_JSON secret. Only the
// fields the application inspects are decoded; the raw key is kept for the
// Drive client, which does its own full parse.
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`

	raw []byte
}

// JSON returns the raw service-account key bytes.
func (s ServiceAccount) JSON() []byte { return s.raw }

// accessor is the slice of the Secret Manager client we use; narrowed so
// tests can substitute a fake.
type accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Load fetches the latest version of every required secret from Secret
// Manager. The returned error names the first secret that could not be
// fetched or parsed.
func Load(ctx context.Context, projectID string) (*Bundle, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secret manager client: %w", err)
	}
	defer client.Close()
	return load(ctx, client, projectID)
}

func load(ctx context.Context, c accessor, projectID string) (*Bundle, error) {
	get := func(name string) (string, error) {
		resp, err := c.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
			Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name),
		})
		if err != nil {
			return "", fmt.Errorf("access secret %s: %w", name, err)
		}
		return string(resp.GetPayload().GetData()), nil
	}

	var b Bundle
	for _, s := range []struct {
		name string
		dst  *string
	}{
		{"NPK_FOLDER_ID", &b.NPKFolderID},
		{"TODAY_FOLDER_ID", &b.TodayFolderID},
		{"HABITAT_IMAGE_FOLDER_ID", &b.HabitatFolderID},
		{"KINTONE_DOMAIN", &b.KintoneDomain},
		{"KINTONE_APP_ID", &b.KintoneAppID},
		{"KINTONE_API_TOKEN", &b.KintoneAPIToken},
		{"KINTONE_USER_MASTER_APP_ID", &b.UserMasterAppID},
		{"KINTONE_USER_MASTER_API_TOKEN", &b.UserMasterAPIToken},
		{"KINTONE_ATTENDANCE_APP_ID", &b.AttendanceAppID},
		{"KINTONE_ATTENDANCE_API_TOKEN", &b.AttendanceAPIToken},
	} {
		val, err := get(s.name)
		if err != nil {
			return nil, err
		}
		*s.dst = val
	}

	raw, err := get("GOOGLE_CREDENTIALS_JSON")
	if err != nil {
		return nil, err
	}
	sa, err := parseServiceAccount([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parse secret GOOGLE_CREDENTIALS_JSON: %w", err)
	}
	b.Google = sa
	return &b, nil
}

func parseServiceAccount(data []byte) (ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return ServiceAccount{}, err
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return ServiceAccount{}, fmt.Errorf("service account key missing client_email or private_key")
	}
	sa.raw = data
	return sa, nil
}
