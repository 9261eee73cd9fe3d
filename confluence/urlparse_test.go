package confluence

import (
	"testing"
)

func TestParsePageURL(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		instance string
		pageID   string
		wantErr  bool
	}{
		{
			name:     "bare page id",
			raw:      "123456",
			instance: "",
			pageID:   "123456",
		},
		{
			name:     "cloud shape",
			raw:      "https://myorg.atlassian.net/wiki/spaces/ENG/pages/123456/Some+Page+Title",
			instance: "myorg",
			pageID:   "123456",
		},
		{
			name:     "cloud shape without title",
			raw:      "https://myorg.atlassian.net/wiki/spaces/ENG/pages/123456",
			instance: "myorg",
			pageID:   "123456",
		},
		{
			name:     "legacy viewpage shape",
			raw:      "https://myorg.atlassian.net/wiki/pages/viewpage.action?pageId=98765",
			instance: "myorg",
			pageID:   "98765",
		},
		{
			name:     "non-atlassian host keeps full hostname",
			raw:      "https://wiki.example.com/wiki/spaces/X/pages/42/Title",
			instance: "wiki.example.com",
			pageID:   "42",
		},
		{
			name:     "trailing numeric segment",
			raw:      "https://myorg.atlassian.net/wiki/display/55",
			instance: "myorg",
			pageID:   "55",
		},
		{
			name:    "no id anywhere",
			raw:     "https://myorg.atlassian.net/wiki/spaces/ENG/overview",
			wantErr: true,
		},
		{
			name:    "empty string",
			raw:     "",
			wantErr: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			instance, pageID, err := ParsePageURL(c.raw)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected error, got instance=%q pageID=%q", instance, pageID)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if instance != c.instance {
				t.Errorf("instance = %q, want %q", instance, c.instance)
			}
			if pageID != c.pageID {
				t.Errorf("pageID = %q, want %q", pageID, c.pageID)
			}
		})
	}
}
