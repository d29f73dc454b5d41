package handlers

import (
	"errors"
	"net/http"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/onboarding"
	"github.com/richmondazadze/scantotap-sub001/internal/profile"
)

type OnboardingHandler struct {
	Wizards        *onboarding.Service
	Profiles       *profile.Service
	MaxUploadBytes int64
}

type preset struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type wizardState struct {
	Step    int              `json:"step"`
	Draft   onboarding.Draft `json:"draft"`
	Policy  policyView       `json:"policy"`
	Presets []preset         `json:"presets"`
}

func stateOf(wz *onboarding.Wizard) wizardState {
	presets := make([]preset, 0, len(onboarding.Presets))
	for _, key := range onboarding.Presets {
		presets = append(presets, preset{Key: key, URL: onboarding.PresetURL(key)})
	}
	return wizardState{
		Step:    wz.Step,
		Draft:   wz.Draft,
		Policy:  newPolicyView(wz.Policy()),
		Presets: presets,
	}
}

type wizardResponse struct {
	*onboarding.Result
	State *wizardState `json:"state,omitempty"`
}

// Get returns where the user's wizard stands.
func (h *OnboardingHandler) Get(w http.ResponseWriter, r *http.Request) {
	wz, err := h.Wizards.Load(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stateOf(wz))
}

// step loads the wizard, applies one transition and reports the result
// with the new state.
func (h *OnboardingHandler) step(w http.ResponseWriter, r *http.Request, move func(*onboarding.Wizard) (*onboarding.Result, error)) {
	wz, err := h.Wizards.Load(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := move(wz)
	if errors.Is(err, onboarding.ErrExitWizard) {
		respondJSON(w, http.StatusOK, map[string]any{"exited": true})
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := wizardResponse{Result: res}
	if !res.Completed {
		state := stateOf(wz)
		out.State = &state
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *OnboardingHandler) Continue(w http.ResponseWriter, r *http.Request) {
	var in onboarding.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.step(w, r, func(wz *onboarding.Wizard) (*onboarding.Result, error) {
		return wz.Continue(r.Context(), in)
	})
}

func (h *OnboardingHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(wz *onboarding.Wizard) (*onboarding.Result, error) {
		return wz.Skip(r.Context())
	})
}

func (h *OnboardingHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(wz *onboarding.Wizard) (*onboarding.Result, error) {
		return wz.Back(r.Context())
	})
}

func (h *OnboardingHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	var link models.Link
	if err := decodeJSON(w, r, &link); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.step(w, r, func(wz *onboarding.Wizard) (*onboarding.Result, error) {
		return wz.AddAdditionalLink(r.Context(), link)
	})
}

// Avatar stores an uploaded avatar and returns its URL for the profile
// step. The draft only changes when that step is continued.
func (h *OnboardingHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	file, header, err := formFile(w, r, "avatar", h.MaxUploadBytes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if file == nil {
		writeError(w, http.StatusBadRequest, "Choose an image to upload")
		return
	}
	defer file.Close()

	url, err := h.Profiles.Upload(r.Context(), userIDFrom(r.Context()), header.Filename, file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"avatar_url": url})
}
