package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

type wizardStep struct {
	Step      int  `json:"step"`
	Completed bool `json:"completed"`
	Exited    bool `json:"exited"`
	State     *struct {
		Step    int      `json:"step"`
		Presets []preset `json:"presets"`
	} `json:"state"`
}

func TestOnboardingOverHTTP(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.signIn(t, "jane@example.com")

	rec := ts.do(http.MethodGet, "/api/onboarding", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[wizardState](t, rec)
	assert.Equal(t, 1, state.Step)
	assert.Len(t, state.Presets, 6)

	rec = ts.do(http.MethodGet, "/api/profile", nil, cookies...)
	assert.Equal(t, http.StatusForbidden, rec.Code, "dashboard waits for onboarding")

	rec = ts.do(http.MethodPost, "/api/onboarding/continue", map[string]string{"username": "janedoe"}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "full name is required")

	rec = ts.do(http.MethodPost, "/api/onboarding/continue",
		map[string]string{"username": "janedoe", "full_name": "Jane Doe"}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[wizardStep](t, rec)
	assert.Equal(t, 2, res.Step)
	require.NotNil(t, res.State)
	assert.Equal(t, 2, res.State.Step)

	rec = ts.do(http.MethodPost, "/api/onboarding/back", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[wizardStep](t, rec).Step)

	rec = ts.do(http.MethodPost, "/api/onboarding/back", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[wizardStep](t, rec).Exited)

	rec = ts.do(http.MethodPost, "/api/onboarding/skip", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	for step := 3; step <= 6; step++ {
		rec = ts.do(http.MethodPost, "/api/onboarding/skip", nil, cookies...)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, step, decode[wizardStep](t, rec).Step)
	}

	rec = ts.do(http.MethodPost, "/api/onboarding/links", models.Link{Label: "Site", URL: "janedoe.dev"}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/onboarding/continue", map[string]any{}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[wizardStep](t, rec)
	assert.True(t, done.Completed)
	assert.Nil(t, done.State)

	rec = ts.do(http.MethodGet, "/api/profile", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[profileResponse](t, rec)
	assert.Equal(t, "janedoe", got.Profile.Slug)
	assert.Equal(t, models.Links{{Label: "Site", URL: "https://janedoe.dev"}}, got.Profile.Links)

	rec = ts.do(http.MethodGet, "/api/onboarding", nil, cookies...)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func sevenLinks() models.Links {
	links := make(models.Links, 7)
	for i := range links {
		links[i] = models.Link{Label: "Link", URL: "https://example.com/" + string(rune('a'+i))}
	}
	return links
}

func TestProfileLinkEditing(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.signIn(t, "jane@example.com")
	ts.onboard(t, "jane@example.com", "janedoe", nil)

	rec := ts.do(http.MethodPost, "/api/profile/links/social",
		map[string]string{"platform": "twitter", "value": "@jane"}, cookies...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[profileResponse](t, rec)
	assert.Equal(t, models.Links{{Label: "X", URL: "https://x.com/jane"}}, got.Profile.Links)

	rec = ts.do(http.MethodPost, "/api/profile/links/social",
		map[string]string{"platform": "myspace", "value": "jane"}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/profile/links/social",
		map[string]string{"platform": "twitter", "value": ""}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/profile/links/move", map[string]int{"from": 0, "to": 3}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/profile/links/0", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[profileResponse](t, rec).Profile.Links)

	rec = ts.do(http.MethodDelete, "/api/profile/links/0", nil, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileLinkPlanLimit(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.signIn(t, "jane@example.com")
	ts.onboard(t, "jane@example.com", "janedoe", sevenLinks())

	rec := ts.do(http.MethodPost, "/api/profile/links/social",
		map[string]string{"platform": "twitter", "value": "@jane"}, cookies...)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.True(t, body.Upgrade)

	rec = ts.do(http.MethodGet, "/api/profile", nil, cookies...)
	assert.Len(t, decode[profileResponse](t, rec).Profile.Links, 7, "rejected link is not saved")

	rec = ts.do(http.MethodPost, "/api/profile/links/move", map[string]int{"from": 6, "to": 0}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com/g", decode[profileResponse](t, rec).Profile.Links[0].URL)
}

func multipartRequest(t *testing.T, path string, fields map[string]string, cookies []*http.Cookie) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestAddCustomLink(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.signIn(t, "jane@example.com")
	ts.onboard(t, "jane@example.com", "janedoe", nil)

	rec := ts.serve(multipartRequest(t, "/api/profile/links/custom",
		map[string]string{"label": "Portfolio", "url": "janedoe.dev/work"}, cookies))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, models.Links{{Label: "Portfolio", URL: "https://janedoe.dev/work"}},
		decode[profileResponse](t, rec).Profile.Links)

	rec = ts.serve(multipartRequest(t, "/api/profile/links/custom",
		map[string]string{"label": "Portfolio"}, cookies))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.serve(multipartRequest(t, "/api/profile/links/custom",
		map[string]string{"label": "Click me", "url": "javascript://example.com/%0Aalert(document.cookie)"}, cookies))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "script links are rejected")
	p, err := ts.store.GetProfileByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Len(t, p.Links, 1)

	rec = ts.serve(multipartRequest(t, "/api/profile/avatar", nil, cookies))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "avatar file is required")
}

func TestSaveProfileUsernameTaken(t *testing.T) {
	ts := newTestServer(t, false)
	ts.signIn(t, "john@example.com")
	ts.onboard(t, "john@example.com", "johnsmith", nil)
	cookies := ts.signIn(t, "jane@example.com")
	ts.onboard(t, "jane@example.com", "janedoe", nil)

	rec := ts.do(http.MethodGet, "/api/profile", nil, cookies...)
	form := decode[profileResponse](t, rec).Profile
	body := map[string]any{"slug": "johnsmith", "name": form.Name, "links": form.Links}

	rec = ts.do(http.MethodPut, "/api/profile", body, cookies...)
	assert.Equal(t, http.StatusConflict, rec.Code)

	body["slug"] = "jane-doe"
	body["bio"] = "Maker of things"
	rec = ts.do(http.MethodPut, "/api/profile", body, cookies...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "jane-doe", decode[profileResponse](t, rec).Profile.Slug)

	rec = ts.do(http.MethodPut, "/api/profile", map[string]any{"slug": "jane-doe", "unknown": true}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")
}

func TestPublicProfile(t *testing.T) {
	ts := newTestServer(t, false)
	ctx := context.Background()
	ts.signIn(t, "jane@example.com")
	p := ts.onboard(t, "jane@example.com", "janedoe", models.Links{{Label: "Site", URL: "https://janedoe.dev"}})
	ts.signIn(t, "pending@example.com")

	rec := ts.do(http.MethodGet, "/api/public/profiles/janedoe", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Jane Doe", body["display_name"])
	assert.NotContains(t, body, "email", "email hidden unless shown")

	rec = ts.do(http.MethodGet, "/api/public/users/"+p.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/public/profiles/JaneDoe", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "slugs are case-sensitive")

	pending, err := ts.store.GetProfileByEmail(ctx, "pending@example.com")
	require.NoError(t, err)
	rec = ts.do(http.MethodGet, "/api/public/users/"+pending.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "profiles in onboarding are not public")

	rec = ts.do(http.MethodPost, "/api/public/profiles/janedoe/clicks", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://janedoe.dev", decode[map[string]any](t, rec)["url"])

	rec = ts.do(http.MethodPost, "/api/public/profiles/janedoe/clicks", map[string]int{"index": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	report, err := ts.store.ProfileReport(ctx, p.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Totals.TotalVisits)
	assert.Equal(t, 1, report.Totals.TotalClicks)
}

func TestOwnerVisitsAreNotCounted(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.signIn(t, "jane@example.com")
	p := ts.onboard(t, "jane@example.com", "janedoe", nil)

	rec := ts.do(http.MethodGet, "/api/public/profiles/janedoe", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/profile/analytics?days=7", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[store.ProfileReport](t, rec)
	assert.Equal(t, p.ID, report.Totals.ProfileID)
	assert.Zero(t, report.Totals.TotalVisits)

	rec = ts.do(http.MethodGet, "/api/profile/analytics?days=zero", nil, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVisibility(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.signIn(t, "jane@example.com")
	ts.onboard(t, "jane@example.com", "janedoe", nil)

	rec := ts.do(http.MethodPatch, "/api/profile/visibility", store.Visibility{ShowEmail: true}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[profileResponse](t, rec).Profile
	assert.True(t, got.ShowEmail)
	assert.False(t, got.NotifyOrderUpdates)

	rec = ts.do(http.MethodGet, "/api/public/profiles/janedoe", nil)
	assert.Equal(t, "jane@example.com", decode[map[string]any](t, rec)["email"])
}

func TestQRCode(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.signIn(t, "jane@example.com")
	ts.onboard(t, "jane@example.com", "janedoe", nil)

	for _, path := range []string{"/api/public/profiles/janedoe/qr.png", "/api/profile/qr.png?size=256"} {
		rec := ts.do(http.MethodGet, path, nil, cookies...)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")), path)
	}

	rec := ts.do(http.MethodGet, "/api/profile/qr.png?size=big", nil, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, testBaseURL+"/janedoe", profileURL(testBaseURL+"/", &models.Profile{ID: "id-1", Slug: "janedoe"}))
	assert.Equal(t, testBaseURL+"/u/id-1", profileURL(testBaseURL, &models.Profile{ID: "id-1"}))
}

func TestUsernameAvailability(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.signIn(t, "jane@example.com")
	ts.onboard(t, "jane@example.com", "janedoe", nil)

	tests := []struct {
		name      string
		slug      string
		cookies   []*http.Cookie
		available bool
	}{
		{"free", "someone-new", nil, true},
		{"taken", "janedoe", nil, false},
		{"own username", "janedoe", cookies, true},
		{"too short", "ab", nil, false},
		{"reserved", "admin", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/usernames/"+tt.slug+"/availability", nil, tt.cookies...)
			require.Equal(t, http.StatusOK, rec.Code)
			got := decode[availability](t, rec)
			assert.Equal(t, tt.available, got.Available)
			if !tt.available {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

func TestPlansAndPlatforms(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodGet, "/api/plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	plans := decode[[]policyView](t, rec)
	require.Len(t, plans, 2)
	require.NotNil(t, plans[0].MaxLinks)
	assert.Equal(t, 7, *plans[0].MaxLinks)
	assert.Nil(t, plans[1].MaxLinks, "pro is unbounded")
	assert.True(t, plans[1].CanUseGridLayout)

	rec = ts.do(http.MethodGet, "/api/platforms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	platforms := decode[[]platformView](t, rec)
	assert.Len(t, platforms, 15)
	assert.Contains(t, platforms, platformView{Key: "twitter", Label: "X"})
}
