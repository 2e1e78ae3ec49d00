package dv360

import (
	"context"
	"io"
	"time"

	"github.com/ajitpratap0/adreader/pkg/clients"
	"github.com/ajitpratap0/adreader/pkg/config"
	"github.com/ajitpratap0/adreader/pkg/errors"
	"github.com/ajitpratap0/adreader/pkg/exportjob"
	"github.com/ajitpratap0/adreader/pkg/json"
	"golang.org/x/oauth2"
	"google.golang.org/api/displayvideo/v3"
	"google.golang.org/api/option"
)

const tokenURL = "https://www.googleapis.com/oauth2/v4/token"

// sdfClient drives SDF download tasks through the Display & Video 360 API.
type sdfClient struct {
	svc *displayvideo.Service
}

var _ exportjob.Client = (*sdfClient)(nil)

// newService builds an API client authenticated with the refresh token.
// The initial access token is treated as expired so that the first request
// refreshes it.
func newService(ctx context.Context, cfg config.DV360Config, opts ...option.ClientOption) (*displayvideo.Service, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		Scopes:       []string{displayvideo.DisplayVideoScope},
	}
	token := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}

	opts = append([]option.ClientOption{option.WithTokenSource(oauthCfg.TokenSource(ctx, token))}, opts...)
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := displayvideo.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create Display & Video 360 client")
	}
	return svc, nil
}

func (c *sdfClient) Submit(ctx context.Context, payload interface{}) (string, error) {
	req, ok := payload.(*displayvideo.CreateSdfDownloadTaskRequest)
	if !ok {
		return "", errors.Newf(errors.ErrorTypeInternal, "unexpected SDF payload %T", payload)
	}
	op, err := c.svc.Sdfdownloadtasks.Create(req).Context(ctx).Do()
	if err != nil {
		return "", clients.WrapGoogleAPI(err, "failed to create SDF download task")
	}
	return op.Name, nil
}

func (c *sdfClient) Poll(ctx context.Context, name string) (*exportjob.Status, error) {
	op, err := c.svc.Sdfdownloadtasks.Operations.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, clients.WrapGoogleAPI(err, "failed to get SDF download task")
	}
	if !op.Done {
		return &exportjob.Status{}, nil
	}
	if op.Error != nil {
		return &exportjob.Status{
			Done: true,
			Err:  &exportjob.RemoteError{Code: op.Error.Code, Message: op.Error.Message},
		}, nil
	}

	var resp struct {
		ResourceName string `json:"resourceName"`
	}
	if len(op.Response) > 0 {
		if err := json.Unmarshal(op.Response, &resp); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode SDF task response")
		}
	}
	return &exportjob.Status{Done: true, ResultLocator: resp.ResourceName}, nil
}

func (c *sdfClient) Download(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	resp, err := c.svc.Media.Download(locator).Context(ctx).Download()
	if err != nil {
		return nil, 0, clients.WrapGoogleAPI(err, "failed to download SDF archive")
	}
	return resp.Body, resp.ContentLength, nil
}
