package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

func (api *API) GetPageByID(ctx context.Context, opts GetPageByIDQuery) (*Page, error) {
	ep, err := api.getPageByIDEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get single page endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var page Page

	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &page, nil
}

func (api *API) GetChildren(ctx context.Context, opts GetChildrenQuery) (*MultiPageResponse, error) {
	ep, err := api.getChildrenEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get children endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var pageList MultiPageResponse

	if err := json.Unmarshal(body, &pageList); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &pageList, nil
}

func (api *API) GetAttachments(ctx context.Context, opts GetAttachmentsQuery) (*MultiAttachmentResponse, error) {
	ep, err := api.getAttachmentsEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get attachments endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var attachmentList MultiAttachmentResponse

	if err := json.Unmarshal(body, &attachmentList); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &attachmentList, nil
}

// DownloadAttachment fetches the raw bytes behind an attachment's downloadLink.
func (api *API) DownloadAttachment(ctx context.Context, downloadLink string) ([]byte, error) {
	ep, err := api.downloadEndpoint(downloadLink)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get download endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't download attachment: %w", err)
	}

	return body, nil
}

// RenderMacroPreview asks the drawio plugin for a PNG rendition of a diagram macro.
// Failures come back as a *RenderError so callers can degrade gracefully.
func (api *API) RenderMacroPreview(ctx context.Context, opts RenderPreviewQuery) ([]byte, error) {
	ep, err := api.renderPreviewEndpoint(opts)
	if err != nil {
		return nil, &RenderError{DiagramName: opts.DiagramName, Err: err}
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, &RenderError{DiagramName: opts.DiagramName, Err: err}
	}

	return body, nil
}

// CurrentUser return current user information
func (api *API) CurrentUser(ctx context.Context) (*User, error) {
	ep, err := api.getCurrentUserEndpoint()
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get current user endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform http request: %w", err)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &user, nil
}

// Request implements the basic Request function
func (api *API) request(ctx context.Context, url *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't instantiate http request: %w", err)
	}

	req.Header.Add("Accept", "application/json, */*")

	// if user & token are not set, do not add authorization header
	if api.username != "" && api.token != "" {
		req.SetBasicAuth(api.username, api.token)
	} else if api.token != "" {
		req.Header.Set("Authorization", "Bearer "+api.token)
	}

	response, err := api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform http request: %w", err)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		response.Body.Close()
		return nil, fmt.Errorf("confluence: couldn't read http response body: %w", err)
	}

	if err := response.Body.Close(); err != nil {
		return nil, fmt.Errorf("confluence: couldn't close response body: %w", err)
	}

	switch response.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusPartialContent, http.StatusNoContent, http.StatusResetContent:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrAuth
	case http.StatusBadRequest, http.StatusNotFound:
		// Confluence answers 400 as well as 404 for objects we can't see; both mean "not
		// here" as far as the export is concerned.
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url.Path)
	}

	return nil, &StatusError{Code: response.StatusCode, Status: response.Status, URL: url.String()}
}
