// Package contact runs the contact form: validation, the single outbound
// delivery per submission and the resulting status.
package contact

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Status of a form instance. Idle is the zero value.
type Status int

const (
	Idle Status = iota
	Submitting
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

const (
	SuccessMessage = "Message sent successfully!"
	FailureMessage = "Failed to send message. Please try again."
)

var (
	// ErrInFlight is returned when a submission is already being delivered.
	ErrInFlight     = errors.New("contact: submission already in flight")
	ErrMissingField = errors.New("contact: required field missing")
)

type Fields struct {
	Name    string `form:"name" json:"name"`
	Email   string `form:"email" json:"email"`
	Subject string `form:"subject" json:"subject"`
	Message string `form:"message" json:"message"`
}

// Validate checks that every field is non-blank.
func (f Fields) Validate() error {
	for _, field := range [...]struct{ name, value string }{
		{"name", f.Name},
		{"email", f.Email},
		{"subject", f.Subject},
		{"message", f.Message},
	} {
		if strings.TrimSpace(field.value) == "" {
			return errors.Wrap(ErrMissingField, field.name)
		}
	}
	return nil
}

// Sender delivers one submission.
type Sender interface {
	Send(ctx context.Context, f Fields) error
}

// Submission is the record of one delivery attempt.
type Submission struct {
	Fields
	VisitorID string
	Status    Status
	Err       string
	CreatedAt time.Time
}

// Recorder keeps delivery attempts, e.g. for the admin inbox.
type Recorder interface {
	Record(ctx context.Context, s Submission) error
}

// Controller is one form instance. At most one submission is in flight
// at a time.
type Controller struct {
	mu        sync.Mutex
	status    Status
	message   string
	sender    Sender
	recorder  Recorder
	visitorID string
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Controller)

func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithVisitor tags recorded submissions with the visitor's id.
func WithVisitor(id string) Option {
	return func(c *Controller) { c.visitorID = id }
}

func NewController(sender Sender, opts ...Option) *Controller {
	c := &Controller{sender: sender, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current status and status message.
func (c *Controller) State() (Status, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.message
}

// IsSubmitting reports whether the submit control should be disabled.
func (c *Controller) IsSubmitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == Submitting
}

// Submit validates f and delivers it once. Delivery failure is not an
// error: it moves the form to Failed and returns that status. Errors are
// reserved for rejected submissions (ErrMissingField, ErrInFlight), which
// leave the state unchanged.
func (c *Controller) Submit(ctx context.Context, f Fields) (Status, error) {
	if err := f.Validate(); err != nil {
		return c.currentStatus(), err
	}

	c.mu.Lock()
	if c.status == Submitting {
		c.mu.Unlock()
		return Submitting, ErrInFlight
	}
	c.status = Submitting
	c.message = ""
	c.mu.Unlock()

	sendErr := c.sender.Send(ctx, f)

	c.mu.Lock()
	if sendErr != nil {
		c.status = Failed
		c.message = FailureMessage
	} else {
		c.status = Succeeded
		c.message = SuccessMessage
	}
	status := c.status
	c.mu.Unlock()

	if sendErr != nil {
		c.logger.Warn("contact delivery failed", zap.String("visitor_id", c.visitorID), zap.Error(sendErr))
	} else {
		c.logger.Info("contact delivered", zap.String("visitor_id", c.visitorID))
	}
	c.record(ctx, f, status, sendErr)
	return status, nil
}

func (c *Controller) currentStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) record(ctx context.Context, f Fields, status Status, sendErr error) {
	if c.recorder == nil {
		return
	}
	sub := Submission{
		Fields:    f,
		VisitorID: c.visitorID,
		Status:    status,
		CreatedAt: c.now().UTC(),
	}
	if sendErr != nil {
		sub.Err = sendErr.Error()
	}
	if err := c.recorder.Record(context.WithoutCancel(ctx), sub); err != nil {
		c.logger.Error("record contact submission", zap.Error(err))
	}
}
