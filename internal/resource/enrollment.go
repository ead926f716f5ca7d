package resource

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/utafrali/coursehub/pkg/errors"
)

// EnrollCourse enrolls the caller in every module of a course. Modules are
// enrolled in parallel and every outcome is collected before DecideEnrollment
// reduces them; one failure never cancels the others.
func (c *Courses) EnrollCourse(ctx context.Context, courseID int64) error {
	modules, err := c.CourseModules(ctx, courseID)
	if err != nil {
		return err
	}

	outcomes := make([]error, len(modules))
	var g errgroup.Group
	for i, m := range modules {
		g.Go(func() error {
			if _, err := c.EnrollModule(ctx, m.ID); err != nil {
				outcomes[i] = fmt.Errorf("enroll module %d: %w", m.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return DecideEnrollment(outcomes)
}

// DecideEnrollment reduces per-module outcomes, given in module order, to
// the course result:
//
//  1. any payment_required failure wins, whatever else happened;
//  2. otherwise success when every module succeeded or was already enrolled;
//  3. otherwise the first remaining failure.
//
// An empty course is a success.
func DecideEnrollment(outcomes []error) error {
	for _, err := range outcomes {
		if errors.Is(err, apperrors.ErrPaymentRequired) {
			return err
		}
	}
	for _, err := range outcomes {
		if err != nil && !errors.Is(err, apperrors.ErrAlreadyEnrolled) {
			return err
		}
	}
	return nil
}
