package gsheets

import (
	"context"
	"strings"

	"github.com/ajitpratap0/adreader/pkg/clients"
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/json"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets.readonly",
	"https://www.googleapis.com/auth/drive.readonly",
}

// fetcher reads worksheets of a spreadsheet.
type fetcher interface {
	// Titles returns the worksheet titles in tab order
	Titles(ctx context.Context, key string) ([]string, error)
	// Values returns every row of a worksheet, unformatted
	Values(ctx context.Context, key, title string) ([][]interface{}, error)
}

type sheetsFetcher struct {
	svc *sheets.Service
}

// serviceAccountKey mirrors the key file downloaded from the cloud console.
type serviceAccountKey struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url"`
}

// credentialsJSON assembles a service account key from individual options.
// Literal \n sequences in the private key become newlines.
func credentialsJSON(o config.GSheetsConfig) ([]byte, error) {
	data, err := json.Marshal(serviceAccountKey{
		Type:                    "service_account",
		ProjectID:               o.ProjectID,
		PrivateKeyID:            o.PrivateKeyID,
		PrivateKey:              strings.ReplaceAll(o.PrivateKey, `\n`, "\n"),
		ClientEmail:             o.ClientEmail,
		ClientID:                o.ClientID,
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientX509CertURL:       o.ClientCert,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode service account key")
	}
	return data, nil
}

func dialSheets(ctx context.Context, o config.GSheetsConfig, opts ...option.ClientOption) (*sheetsFetcher, error) {
	key, err := credentialsJSON(o)
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, key, scopes...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAuthentication, "invalid service account credentials")
	}
	opts = append([]option.ClientOption{option.WithCredentials(creds)}, opts...)
	if o.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.Endpoint))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create Sheets client")
	}
	return &sheetsFetcher{svc: svc}, nil
}

func (f *sheetsFetcher) Titles(ctx context.Context, key string) ([]string, error) {
	ss, err := f.svc.Spreadsheets.Get(key).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, clients.WrapGoogleAPI(err, "failed to open spreadsheet "+key)
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

func (f *sheetsFetcher) Values(ctx context.Context, key, title string) ([][]interface{}, error) {
	vr, err := f.svc.Spreadsheets.Values.Get(key, quoteTitle(title)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, clients.WrapGoogleAPI(err, "failed to read worksheet "+title)
	}
	return vr.Values, nil
}

// quoteTitle turns a worksheet title into an A1 range covering the sheet.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
