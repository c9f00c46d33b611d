package form

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"scholarship-portal/internal/common/auth"
	"scholarship-portal/internal/common/errors"
	"scholarship-portal/internal/common/logger"
	"scholarship-portal/internal/common/metrics"
	"scholarship-portal/internal/common/observability"
	"scholarship-portal/internal/common/portal"
	"scholarship-portal/internal/common/validation"
	"scholarship-portal/pkg/catalog"
)

// Backend is the part of the portal API the form submits to.
type Backend interface {
	UploadFile(ctx context.Context, token, fileName string, content io.Reader) (*portal.UploadedFile, error)
	CreateApplication(ctx context.Context, token string, payload *portal.CreateApplicationRequest) (*portal.CreateApplicationResponse, error)
}

// Confirmation is returned by a successful submission.
type Confirmation struct {
	ApplicationID   string `json:"applicationId"`
	ScholarshipName string `json:"scholarshipName,omitempty"`
}

type Option func(*Controller)

func WithRules(r Rules) Option { return func(c *Controller) { c.rules = r } }

func WithDraftSaver(s DraftSaver) Option { return func(c *Controller) { c.saver = s } }

func WithObservability(o *observability.Observability) Option {
	return func(c *Controller) { c.obs = o }
}

func WithCatalog(cat *catalog.Catalog) Option { return func(c *Controller) { c.catalog = cat } }

// WithScholarship attaches the scholarship being applied for to the draft.
func WithScholarship(id string) Option { return func(c *Controller) { c.scholarshipID = id } }

// Controller owns one application draft, its validation state and the
// submission lifecycle. It is safe for concurrent use.
type Controller struct {
	rules         Rules
	backend       Backend
	session       auth.Session
	saver         DraftSaver
	obs           *observability.Observability
	catalog       *catalog.Catalog
	logger        logger.Logger
	scholarshipID string

	mu         sync.Mutex
	step       Step
	draft      *Draft
	errs       ErrorSet
	submitting bool
}

func NewController(backend Backend, session auth.Session, log logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		rules:   DefaultRules(),
		backend: backend,
		session: session,
		saver:   NopDraftSaver{},
		obs:     observability.NewNoop(),
		logger:  log.WithFields(map[string]interface{}{"component": "application-form"}),
		step:    StepPersonal,
		errs:    make(ErrorSet),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.draft = NewDraft(session.CurrentProfile())
	c.draft.ScholarshipID = c.scholarshipID
	return c
}

// Dispatch applies one user edit.
func (c *Controller) Dispatch(a Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draft == nil {
		return ErrFormClosed
	}
	if err := reduce(c.draft, c.errs, c.rules, a); err != nil {
		c.logger.Debug("action rejected", map[string]interface{}{"action": a.Kind.String(), "error": err})
		return err
	}
	return nil
}

func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Draft returns a copy of the current draft, or nil once submitted.
func (c *Controller) Draft() *Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// Errors returns a copy of the active validation errors.
func (c *Controller) Errors() ErrorSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs.clone()
}

func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Next moves from the personal step to the academic step when the personal
// step is complete. Otherwise it marks the offending fields and stays.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepPersonal {
		return errors.NewStepBlockedError("Next is only available on the personal information step")
	}

	if msg := c.checkPersonalLocked(); msg != "" {
		metrics.StepTransitions.WithLabelValues(StepPersonal.String(), StepAcademic.String(), metrics.OutcomeBlocked).Inc()
		return errors.NewStepBlockedError(msg)
	}

	c.step = StepAcademic
	metrics.StepTransitions.WithLabelValues(StepPersonal.String(), StepAcademic.String(), metrics.OutcomeSuccess).Inc()
	return nil
}

// Back returns to the personal step.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepAcademic {
		return errors.NewStepBlockedError("Back is only available on the academic information step")
	}
	c.step = StepPersonal
	metrics.StepTransitions.WithLabelValues(StepAcademic.String(), StepPersonal.String(), metrics.OutcomeSuccess).Inc()
	return nil
}

// CanSubmit is true when Submit would proceed to the network phase.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step == StepAcademic && !c.submitting && c.checkAcademicLocked(false) == ""
}

// CheckSubmission runs the submission gate without submitting and records
// every violation in the error set.
func (c *Controller) CheckSubmission() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepAcademic {
		return errors.NewSubmissionBlockedError("Complete the personal information step first")
	}
	if msg := c.checkAcademicLocked(true); msg != "" {
		return errors.NewSubmissionBlockedError(msg)
	}
	return nil
}

// checkPersonalLocked validates the personal step, records its errors and
// returns the message to show, or "" when the step is complete.
func (c *Controller) checkPersonalLocked() string {
	first := ""
	for _, f := range ScalarFields(StepPersonal) {
		if msg := c.rules.ValidateField(f, c.draft.Value(f)); msg != "" {
			c.errs.set(FieldKey(f), msg)
			if first == "" {
				first = msg
			}
		}
	}

	if FamilyFilledCount(c.draft.FamilyMembers) < c.rules.MinFamilyMembers {
		msg := c.rules.MinFamilyMessage()
		c.errs.set(FieldKey(FieldFamilyMembers), msg)
		return msg
	}

	if msg := c.checkFamilyCellsLocked(true); msg != "" && first == "" {
		first = msg
	}

	if first == "" && c.errs.ForStep(StepPersonal) {
		first = errors.MsgGenericIncomplete
	}
	return first
}

// checkFamilyCellsLocked validates every family member cell and returns the
// first message. With mark set the errors are recorded.
func (c *Controller) checkFamilyCellsLocked(mark bool) string {
	first := ""
	for row, m := range c.draft.FamilyMembers {
		for _, col := range FamilyColumns {
			msg := c.rules.FamilyCellError(col, m.Get(col))
			if msg == "" {
				continue
			}
			if mark {
				c.errs.set(FamilyKey(col, row), msg)
			}
			if first == "" {
				first = msg
			}
		}
	}
	return first
}

// checkAcademicLocked evaluates the submission gate. With mark set the
// violations are recorded in the error set.
func (c *Controller) checkAcademicLocked(mark bool) string {
	first := ""
	note := func(k ErrorKey, msg string) {
		if mark {
			c.errs.set(k, msg)
		}
		if first == "" {
			first = msg
		}
	}

	for _, f := range ScalarFields(StepAcademic) {
		if msg := c.rules.ValidateField(f, c.draft.Value(f)); msg != "" {
			note(FieldKey(f), msg)
		}
	}

	missing := false
	for _, slot := range Slots {
		if c.draft.Documents[slot] == nil {
			missing = true
			if mark {
				if _, rejected := c.errs[SlotKey(slot)]; !rejected {
					c.errs.set(SlotKey(slot), RequiredMessage(slot.Field()))
				}
			}
		}
	}
	if missing && first == "" {
		first = MsgMissingDocuments
	}

	if !c.rules.ActivitiesReady(c.draft.Activities) {
		note(FieldKey(FieldActivities), c.rules.activityMessage(c.draft.Activities))
	}
	for row, a := range c.draft.Activities {
		for _, col := range ActivityColumns {
			if msg := c.rules.ActivityCellError(a.Get(col)); msg != "" {
				note(ActivityKey(col, row), msg)
			}
		}
	}

	// Family rows can still be edited after Next.
	if msg := c.checkFamilyCellsLocked(mark); msg != "" && first == "" {
		first = msg
	}

	if first == "" && c.errs.ForStep(StepAcademic) {
		first = errors.MsgGenericIncomplete
	}
	return first
}

// Submit uploads the documents and creates the application. The draft is
// discarded on success and left untouched on any failure.
func (c *Controller) Submit(ctx context.Context) (*Confirmation, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, errors.NewSubmissionInProgressError()
	}
	if c.step != StepAcademic {
		c.mu.Unlock()
		return nil, errors.NewSubmissionBlockedError("Complete the personal information step first")
	}
	if msg := c.checkAcademicLocked(true); msg != "" {
		c.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeBlocked).Inc()
		return nil, errors.NewSubmissionBlockedError(msg)
	}
	snapshot := c.draft.Clone()
	c.submitting = true
	c.mu.Unlock()

	start := time.Now()
	outcome := metrics.OutcomeFailure
	metrics.SubmissionsActive.Inc()
	defer func() {
		elapsed := time.Since(start)
		metrics.SubmissionsActive.Dec()
		metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
		metrics.SubmissionDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
		c.obs.RecordSubmission(ctx, outcome, elapsed)

		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	ctx, span := c.obs.StartSpan(ctx, "form.Submit", attribute.String("scholarship.id", snapshot.ScholarshipID))
	defer span.End()

	conf, err := c.submit(ctx, snapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		code := errorCode(err)
		c.logger.WithError(err).Warn("submission failed", map[string]interface{}{
			"code":     code,
			"category": errors.GetErrorCategory(errors.ErrorCode(code)),
		})
		return nil, err
	}

	outcome = metrics.OutcomeSuccess
	c.mu.Lock()
	c.draft = nil
	c.errs = make(ErrorSet)
	c.step = StepSubmitted
	c.mu.Unlock()
	metrics.StepTransitions.WithLabelValues(StepAcademic.String(), StepSubmitted.String(), metrics.OutcomeSuccess).Inc()

	c.forgetSavedDraft(ctx)

	c.logger.Info("application submitted", map[string]interface{}{
		"applicationId": conf.ApplicationID,
		"durationMs":    time.Since(start).Milliseconds(),
	})
	return conf, nil
}

// tokenRefresher is implemented by sessions whose tokens expire.
type tokenRefresher interface {
	Refresh(ctx context.Context) error
}

func (c *Controller) submit(ctx context.Context, snapshot *Draft) (*Confirmation, error) {
	if refresher, ok := c.session.(tokenRefresher); ok {
		if err := refresher.Refresh(ctx); err != nil {
			c.logger.Warn("session refresh failed, logging out", map[string]interface{}{"error": err.Error()})
			c.session.OnLogout()
			if _, ok := errors.As(err); ok {
				return nil, err
			}
			return nil, errors.NewAuthenticationError(err.Error())
		}
	}

	token := c.session.CurrentToken()
	if token == "" {
		c.session.OnLogout()
		return nil, errors.NewAuthenticationError("no session token")
	}

	payload, err := BuildPayload(snapshot, c.rules, nil)
	if err != nil {
		return nil, errors.NewSubmissionFailedError(err)
	}

	uploads := make(map[DocumentSlot]portal.UploadedFile, len(Slots))
	for _, slot := range Slots {
		file := snapshot.Documents[slot]
		uploaded, err := c.upload(ctx, token, slot, file)
		if err != nil {
			c.handleBackendError(err)
			return nil, errors.NewUploadFailedError(string(slot), file.Name(), err)
		}
		uploads[slot] = *uploaded
	}
	AttachUploads(payload, uploads)

	result, err := validation.ValidateApplication(payload)
	if err != nil {
		return nil, errors.NewSubmissionFailedError(err)
	}
	if !result.Valid {
		return nil, errors.NewPayloadSchemaInvalidError(result.GetErrorMessages())
	}

	ctx, span := c.obs.StartSpan(ctx, "form.createApplication")
	resp, err := c.backend.CreateApplication(ctx, token, payload)
	endSpan(span, err)
	if err != nil {
		c.handleBackendError(err)
		return nil, errors.NewSubmissionFailedError(err)
	}

	name := resp.ScholarshipName
	if name == "" {
		if s, ok := c.catalog.Get(snapshot.ScholarshipID); ok {
			name = s.Name
		}
	}
	return &Confirmation{ApplicationID: resp.Identifier(), ScholarshipName: name}, nil
}

func (c *Controller) upload(ctx context.Context, token string, slot DocumentSlot, file File) (*portal.UploadedFile, error) {
	ctx, span := c.obs.StartSpan(ctx, "form.upload",
		attribute.String("document.slot", string(slot)),
		attribute.Int64("document.size", file.Size()),
	)

	uploaded, err := func() (*portal.UploadedFile, error) {
		content, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer content.Close()
		return c.backend.UploadFile(ctx, token, file.Name(), content)
	}()
	endSpan(span, err)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	metrics.UploadsTotal.WithLabelValues(string(slot), outcome).Inc()
	c.obs.RecordUpload(ctx, string(slot), outcome)
	return uploaded, err
}

// handleBackendError ends the session when the backend rejects the token.
func (c *Controller) handleBackendError(err error) {
	var statusErr *portal.StatusError
	if stderrors.As(err, &statusErr) && statusErr.Unauthorized() {
		c.logger.Warn("session rejected by backend, logging out", nil)
		c.session.OnLogout()
	}
}

// SaveDraft hands the current draft to the configured saver.
func (c *Controller) SaveDraft(ctx context.Context) error {
	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return ErrFormClosed
	}
	rec := Record(c.draft)
	c.mu.Unlock()

	rec.SavedAt = time.Now().UTC()
	userID := c.session.CurrentProfile().UserID
	if err := c.saver.SaveDraft(ctx, userID, rec); err != nil {
		if stderrors.Is(err, ErrDraftPersistenceUnavailable) {
			return err
		}
		return errors.NewDraftSaveFailedError(err)
	}
	c.logger.Debug("draft saved", map[string]interface{}{"userId": userID})
	return nil
}

type draftDeleter interface {
	DeleteDraft(ctx context.Context, userID string) error
}

func (c *Controller) forgetSavedDraft(ctx context.Context) {
	deleter, ok := c.saver.(draftDeleter)
	if !ok {
		return
	}
	if err := deleter.DeleteDraft(ctx, c.session.CurrentProfile().UserID); err != nil {
		c.logger.Warn("failed to delete saved draft", map[string]interface{}{"error": err})
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func errorCode(err error) string {
	if se, ok := errors.As(err); ok {
		return string(se.Code)
	}
	return "UNKNOWN"
}
