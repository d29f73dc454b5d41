// Package onboarding implements the six step wizard that turns a freshly
// authenticated user into a published profile.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/plan"
	"github.com/richmondazadze/scantotap-sub001/internal/platform"
	"github.com/richmondazadze/scantotap-sub001/internal/profile"
)

var (
	ErrInvalidInput     = profile.ErrInvalidInput
	ErrPlanLimit        = profile.ErrPlanLimit
	ErrUsernameTaken    = profile.ErrUsernameTaken
	ErrExitWizard       = errors.New("left the onboarding wizard")
	ErrAlreadyOnboarded = errors.New("onboarding already complete")
	ErrWrongStep        = errors.New("not available on this step")
)

const (
	StepIdentity = iota + 1
	StepProfile
	StepPlan
	StepPlatforms
	StepPlatformLinks
	StepAdditionalLinks
)

const (
	FirstStep = StepIdentity
	LastStep  = StepAdditionalLinks

	maxWizardBio = 100
)

// Presets are the stock avatars offered on the profile step.
var Presets = []string{"sunrise", "ocean", "forest", "berry", "slate", "sand"}

// PresetURL is where a preset avatar is served from.
func PresetURL(key string) string { return "/media/presets/" + key + ".png" }

// Input carries the fields of whichever step is being continued. Fields
// belonging to other steps are ignored.
type Input struct {
	Username        string            `json:"username"`
	FullName        string            `json:"full_name"`
	AvatarPreset    string            `json:"avatar_preset"`
	AvatarURL       string            `json:"avatar_url"`
	Title           string            `json:"title"`
	Bio             string            `json:"bio"`
	PlanType        string            `json:"plan_type"`
	BillingCycle    string            `json:"billing_cycle"`
	Platforms       []string          `json:"platforms"`
	PlatformInputs  map[string]string `json:"platform_inputs"`
	AdditionalLinks models.Links      `json:"additional_links"`
}

// Result describes where the wizard ended up after a transition.
type Result struct {
	Step      int             `json:"step"`
	Notice    string          `json:"notice,omitempty"`
	Completed bool            `json:"completed"`
	Profile   *models.Profile `json:"profile,omitempty"`
}

// Wizard is one user's position in the onboarding sequence.
type Wizard struct {
	UserID string
	Step   int
	Draft  Draft

	svc *Service
}

func (w *Wizard) Policy() plan.Policy { return plan.For(w.Draft.PlanType) }

// Continue validates in against the current step, merges it into the draft
// and advances. On the last step it publishes the profile. A failed step
// leaves both the step and the draft untouched.
func (w *Wizard) Continue(ctx context.Context, in Input) (*Result, error) {
	next := w.Draft
	var notice string
	var err error

	switch w.Step {
	case StepIdentity:
		err = w.identity(ctx, &next, in)
	case StepProfile:
		err = profileStep(&next, in)
	case StepPlan:
		err = w.planStep(ctx, &next, in)
	case StepPlatforms:
		notice, err = platformsStep(&next, in)
	case StepPlatformLinks:
		err = platformLinksStep(&next, in)
	case StepAdditionalLinks:
		if in.AdditionalLinks != nil {
			if next.AdditionalLinks, err = additionalLinks(next, in.AdditionalLinks); err != nil {
				return nil, err
			}
		}
		return w.submit(ctx, next)
	default:
		return nil, fmt.Errorf("%w: step %d", ErrWrongStep, w.Step)
	}
	if err != nil {
		return nil, err
	}

	if err := w.advance(ctx, next, w.Step+1); err != nil {
		return nil, err
	}
	return &Result{Step: w.Step, Notice: notice}, nil
}

// Skip advances exactly one step without validating. On the last step it
// behaves like Continue with the draft as it stands.
func (w *Wizard) Skip(ctx context.Context) (*Result, error) {
	if w.Step == LastStep {
		return w.submit(ctx, w.Draft)
	}
	if err := w.advance(ctx, w.Draft, w.Step+1); err != nil {
		return nil, err
	}
	return &Result{Step: w.Step}, nil
}

// Back returns to the previous step. On the first step it reports
// ErrExitWizard and the caller leaves onboarding.
func (w *Wizard) Back(ctx context.Context) (*Result, error) {
	if w.Step <= FirstStep {
		return nil, ErrExitWizard
	}
	if err := w.advance(ctx, w.Draft, w.Step-1); err != nil {
		return nil, err
	}
	return &Result{Step: w.Step}, nil
}

// AddAdditionalLink appends one extra link row on the last step.
func (w *Wizard) AddAdditionalLink(ctx context.Context, link models.Link) (*Result, error) {
	if w.Step != StepAdditionalLinks {
		return nil, fmt.Errorf("%w: links are added on step %d", ErrWrongStep, StepAdditionalLinks)
	}
	next := w.Draft
	rows := append(slices.Clone(next.AdditionalLinks), link)
	links, err := additionalLinks(next, rows)
	if err != nil {
		return nil, err
	}
	next.AdditionalLinks = links
	if err := w.advance(ctx, next, w.Step); err != nil {
		return nil, err
	}
	return &Result{Step: w.Step}, nil
}

func (w *Wizard) advance(ctx context.Context, d Draft, step int) error {
	if err := w.svc.checkpoint(ctx, w.UserID, step, d); err != nil {
		return err
	}
	w.Draft = d
	w.Step = step
	return nil
}

func (w *Wizard) identity(ctx context.Context, d *Draft, in Input) error {
	username := strings.TrimSpace(in.Username)
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if len([]rune(name)) > profile.MaxNameLength {
		return fmt.Errorf("%w: full name must be at most %d characters", ErrInvalidInput, profile.MaxNameLength)
	}
	if err := w.svc.checkUsername(ctx, username, w.UserID); err != nil {
		return err
	}
	d.Username = username
	d.FullName = name
	return nil
}

func profileStep(d *Draft, in Input) error {
	preset := strings.TrimSpace(in.AvatarPreset)
	avatar := strings.TrimSpace(in.AvatarURL)
	switch {
	case preset != "":
		if !slices.Contains(Presets, preset) {
			return fmt.Errorf("%w: unknown avatar %q", ErrInvalidInput, preset)
		}
		d.AvatarPreset = preset
		d.AvatarURL = PresetURL(preset)
	case avatar != "":
		d.AvatarPreset = ""
		d.AvatarURL = avatar
	}

	title := strings.TrimSpace(in.Title)
	if len([]rune(title)) > profile.MaxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, profile.MaxTitleLength)
	}
	d.Title = title
	d.Bio = profile.Truncate(strings.TrimSpace(in.Bio), maxWizardBio)
	return nil
}

func (w *Wizard) planStep(ctx context.Context, d *Draft, in Input) error {
	switch in.PlanType {
	case models.PlanFree:
		d.PlanType = models.PlanFree
		d.BillingCycle = ""
		d.PaymentReference = ""
		return nil
	case models.PlanPro:
	default:
		return fmt.Errorf("%w: choose the free or pro plan", ErrInvalidInput)
	}
	if in.BillingCycle != models.BillingMonthly && in.BillingCycle != models.BillingYearly {
		return fmt.Errorf("%w: choose a monthly or yearly billing cycle", ErrInvalidInput)
	}

	// Coming back to this step must not authorise a second payment.
	if d.PlanType == models.PlanPro && d.BillingCycle == in.BillingCycle && d.PaymentReference != "" {
		return nil
	}

	ref, err := w.svc.payments.Authorize(ctx, w.UserID, models.PlanPro, in.BillingCycle)
	if err != nil {
		slog.Warn("Payment failed, continuing on free plan", "user_id", w.UserID, "error", err)
		d.PlanType = models.PlanFree
		d.BillingCycle = ""
		d.PaymentReference = ""
		return nil
	}
	d.PlanType = models.PlanPro
	d.BillingCycle = in.BillingCycle
	d.PaymentReference = ref
	return nil
}

func platformsStep(d *Draft, in Input) (string, error) {
	selected := make([]platform.Platform, 0, len(in.Platforms))
	for _, key := range in.Platforms {
		p, err := platform.Lookup(strings.TrimSpace(key))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if !slices.Contains(selected, p) {
			selected = append(selected, p)
		}
	}

	var notice string
	policy := plan.For(d.PlanType)
	if !policy.Allows(len(selected)) {
		dropped := make([]string, 0, len(selected)-policy.MaxLinks)
		for _, p := range selected[policy.MaxLinks:] {
			dropped = append(dropped, p.Label())
		}
		selected = selected[:policy.MaxLinks]
		notice = fmt.Sprintf("The %s plan allows %d platforms. Not added: %s.", policy.Plan, policy.MaxLinks, strings.Join(dropped, ", "))
	}

	inputs := make(map[platform.Platform]string, len(selected))
	for _, p := range selected {
		if v, ok := d.PlatformInputs[p]; ok {
			inputs[p] = v
		}
	}
	d.Platforms = selected
	d.PlatformInputs = inputs
	return notice, nil
}

func platformLinksStep(d *Draft, in Input) error {
	inputs := make(map[platform.Platform]string, len(d.Platforms))
	for key, raw := range in.PlatformInputs {
		p, err := platform.Lookup(key)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if !slices.Contains(d.Platforms, p) {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, err := platform.Parse(p, raw); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidInput, p.Label(), err)
		}
		inputs[p] = raw
	}
	d.PlatformInputs = inputs
	return nil
}

// additionalLinks validates the extra link rows against the draft's plan.
// Rows left completely blank are dropped.
func additionalLinks(d Draft, rows models.Links) (models.Links, error) {
	links := make(models.Links, 0, len(rows))
	for i, row := range rows {
		label := strings.TrimSpace(row.Label)
		raw := strings.TrimSpace(row.URL)
		if label == "" && raw == "" {
			continue
		}
		if label == "" || raw == "" {
			return nil, fmt.Errorf("%w: link %d needs a label and a URL", ErrInvalidInput, i+1)
		}
		if len([]rune(label)) > profile.MaxLabelLength {
			return nil, fmt.Errorf("%w: link %d label is too long", ErrInvalidInput, i+1)
		}
		if _, err := platform.NormalizeURL(raw); err != nil {
			return nil, fmt.Errorf("%w: link %d: %v", ErrInvalidInput, i+1, err)
		}
		links = append(links, models.Link{Label: label, URL: raw})
	}

	policy := plan.For(d.PlanType)
	if !policy.Allows(d.filledPlatforms() + len(links)) {
		return nil, fmt.Errorf("%w: the %s plan allows %d links in total", ErrPlanLimit, policy.Plan, policy.MaxLinks)
	}
	return links, nil
}

func (w *Wizard) submit(ctx context.Context, d Draft) (*Result, error) {
	if strings.TrimSpace(d.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required, go back to step %d", ErrInvalidInput, StepIdentity)
	}
	if err := w.svc.checkUsername(ctx, d.Username, w.UserID); err != nil {
		return nil, err
	}

	links, err := d.socialLinks()
	if err != nil {
		return nil, err
	}
	policy := plan.For(d.PlanType)
	if !policy.Allows(len(links) + len(d.AdditionalLinks)) {
		return nil, fmt.Errorf("%w: the %s plan allows %d links in total", ErrPlanLimit, policy.Plan, policy.MaxLinks)
	}
	for _, l := range d.AdditionalLinks {
		links = append(links, models.Link{Label: l.Label, URL: platform.WithScheme(l.URL)})
	}
	links = policy.Truncate(links)

	p, err := w.svc.publish(ctx, w.UserID, d, links)
	if err != nil {
		return nil, err
	}
	w.Draft = d
	return &Result{Step: w.Step, Completed: true, Profile: p}, nil
}
