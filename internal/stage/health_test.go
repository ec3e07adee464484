package stage

import "testing"

func TestHealthConstructors(t *testing.T) {
	h := Healthy("fetcher")
	if !h.Ready || h.Detail != "" {
		t.Fatalf("unexpected healthy state: %#v", h)
	}

	d := Degraded("fetcher", "ffmpeg not found")
	if !d.Ready || d.Detail == "" {
		t.Fatalf("degraded stage must stay ready with a detail: %#v", d)
	}

	u := Unhealthy("publisher", "missing access token")
	if u.Ready {
		t.Fatalf("unhealthy stage must not be ready: %#v", u)
	}
}
