package confluence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const requestTimeout = 30 * time.Second

// RetrievePage fetches one page with its body in storage representation.  This is the
// richest format -- it still contains macro markup, which the converter wants intact.
func (api *API) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	id, err := strconv.Atoi(pageID)
	if err != nil {
		return nil, fmt.Errorf("confluence: page id %q was not an int: %w", pageID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	page, err := api.GetPageByID(ctx, GetPageByIDQuery{
		ID:         id,
		BodyFormat: "storage",
	})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't retrieve page %s: %w", pageID, err)
	}

	return page, nil
}

// ListChildren returns a page's direct children, in the order the API reports them,
// chasing pagination cursors until done.
func (api *API) ListChildren(ctx context.Context, pageID string) ([]Page, error) {
	id, err := strconv.Atoi(pageID)
	if err != nil {
		return nil, fmt.Errorf("confluence: page id %q was not an int: %w", pageID, err)
	}

	children := []Page{}
	query := GetChildrenQuery{
		ID:    id,
		Limit: 100,
	}

	for {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		resp, err := api.GetChildren(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("confluence: couldn't list children of %s: %w", pageID, err)
		}

		children = append(children, resp.Results...)

		if resp.Links.Next == "" {
			break
		}

		q, err := url.Parse(resp.Links.Next)
		if err != nil {
			return nil, fmt.Errorf("confluence: couldn't parse _links.next: %w", err)
		}
		query.Cursor = q.Query().Get("cursor")
		if query.Cursor == "" {
			return nil, fmt.Errorf("confluence: expected parameter 'cursor' was empty")
		}
	}

	return children, nil
}

// ListAttachments returns all current attachments hanging off a page.
func (api *API) ListAttachments(ctx context.Context, pageID string) ([]Attachment, error) {
	id, err := strconv.Atoi(pageID)
	if err != nil {
		return nil, fmt.Errorf("confluence: page id %q was not an int: %w", pageID, err)
	}

	attachments := []Attachment{}
	query := GetAttachmentsQuery{
		ID:     id,
		Status: []string{"current"},
		Limit:  100,
	}

	for {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		resp, err := api.GetAttachments(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("confluence: couldn't list attachments of %s: %w", pageID, err)
		}

		attachments = append(attachments, resp.Results...)

		if resp.Links.Next == "" {
			break
		}

		q, err := url.Parse(resp.Links.Next)
		if err != nil {
			return nil, fmt.Errorf("confluence: couldn't parse _links.next: %w", err)
		}
		query.Cursor = q.Query().Get("cursor")
		if query.Cursor == "" {
			return nil, fmt.Errorf("confluence: expected parameter 'cursor' was empty")
		}
	}

	return attachments, nil
}
