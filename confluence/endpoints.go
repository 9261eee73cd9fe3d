package confluence

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// getPageByIDEndpoint returns the (v2) API endpoint to download one page:
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-page/#api-pages-id-get
func (a *API) getPageByIDEndpoint(opts GetPageByIDQuery) (*url.URL, error) {
	if opts.ID < 1 {
		return nil, fmt.Errorf("confluence: please provide ID to get page by ID")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("/wiki/api/v2/pages/%d", opts.ID))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getChildrenEndpoint returns the (v2) API endpoint to list a page's direct children:
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-children/#api-pages-id-children-get
func (a *API) getChildrenEndpoint(opts GetChildrenQuery) (*url.URL, error) {
	if opts.ID < 1 {
		return nil, fmt.Errorf("confluence: please provide ID to list children")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("/wiki/api/v2/pages/%d/children", opts.ID))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getAttachmentsEndpoint returns the (v2) API endpoint to list a page's attachments:
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-attachment/#api-pages-id-attachments-get
func (a *API) getAttachmentsEndpoint(opts GetAttachmentsQuery) (*url.URL, error) {
	if opts.ID < 1 {
		return nil, fmt.Errorf("confluence: please provide ID to list attachments")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("/wiki/api/v2/pages/%d/attachments", opts.ID))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// downloadEndpoint resolves an attachment's downloadLink, which the API hands us relative
// to the /wiki base (e.g. "/download/attachments/123/foo.png?version=1").
func (a *API) downloadEndpoint(downloadLink string) (*url.URL, error) {
	if downloadLink == "" {
		return nil, fmt.Errorf("confluence: empty download link")
	}

	ep, err := a.resolveEndpoint("/wiki" + downloadLink)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve download endpoint: %w", err)
	}

	return ep, nil
}

// renderPreviewEndpoint returns the drawio plugin endpoint that serves a PNG preview of a
// diagram embedded on a page.
func (a *API) renderPreviewEndpoint(opts RenderPreviewQuery) (*url.URL, error) {
	if opts.PageID < 1 {
		return nil, fmt.Errorf("confluence: please provide page ID to render preview")
	}
	if opts.DiagramName == "" {
		return nil, fmt.Errorf("confluence: please provide diagram name to render preview")
	}

	ep, err := a.resolveEndpoint("/wiki/plugins/drawio/previewImage.action")
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve preview endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getCurrentUserEndpoint returns the (v1) API endpoint to query current user
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-current-get
//
// This API is supported.
func (a *API) getCurrentUserEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("/wiki/rest/api/user/current")
}

// Do a bit of error checking on endpoint format, and return it relative to the base URI.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	baseUri := a.BaseURI

	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("confluence: failed to parse endpoint ref: %w", err)
	}

	return baseUri.ResolveReference(ref), nil
}
