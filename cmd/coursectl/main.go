// Command coursectl drives the course platform API from the shell. The
// session is kept in a credentials file under the user config dir
// (CREDENTIAL_FILE overrides it), so login carries over to later commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/utafrali/coursehub/internal/app"
	"github.com/utafrali/coursehub/internal/config"
	"github.com/utafrali/coursehub/internal/credential"
	"github.com/utafrali/coursehub/internal/domain"
	"github.com/utafrali/coursehub/internal/resource"
	apperrors "github.com/utafrali/coursehub/pkg/errors"
	"github.com/utafrali/coursehub/pkg/httpclient"
	"github.com/utafrali/coursehub/pkg/logger"
	"github.com/utafrali/coursehub/pkg/pagination"
)

const usage = `usage: coursectl <command> [flags]

commands:
  login-code     -email | -phone          request a one-time login code
  login          -email | -phone -code    exchange the code for a session
  logout                                  revoke and forget the session
  status                                  readiness report and token expiry
  me                                      show the current user
  courses        [-search -category -page -mine]
  enroll         <course-id>              enroll in every module of a course
  notifications  [-unread -page]
  events         [-from -to -course]      dates as YYYY-MM-DD
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("fatal error", errorAttrs(err)...)
		if h := hint(err); h != "" {
			fmt.Fprintln(os.Stderr, h)
		}
		os.Exit(1)
	}
}

// errorAttrs adds the backend status and error code when err came from a
// server response.
func errorAttrs(err error) []any {
	attrs := []any{slog.String("error", err.Error())}
	if status := apperrors.StatusOf(err); status != 0 {
		attrs = append(attrs, slog.Int("status", status))
	}
	if code := apperrors.CodeOf(err); code != "" {
		attrs = append(attrs, slog.String("code", code))
	}
	return attrs
}

func hint(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrSessionInvalid):
		return "not logged in: run 'coursectl login-code' and then 'coursectl login'"
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return "the backend keeps failing and requests are paused; try again in a minute"
	case errors.Is(err, apperrors.ErrPaymentRequired):
		return "the course must be purchased before enrolling"
	default:
		return ""
	}
}

type command func(ctx context.Context, a *app.App, args []string, out io.Writer) error

var commands = map[string]command{
	"login-code":    cmdLoginCode,
	"login":         cmdLogin,
	"logout":        cmdLogout,
	"status":        cmdStatus,
	"me":            cmdMe,
	"courses":       cmdCourses,
	"enroll":        cmdEnroll,
	"notifications": cmdNotifications,
	"events":        cmdEvents,
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("no command given")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("coursectl", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer func() { _ = application.Close() }()

	return cmd(ctx, application, args[1:], out)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdLoginCode(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login-code", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	phone := fs.String("phone", "", "account phone in E.164 form")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.API.Auth.SendCode(ctx, resource.SendCodeInput{Email: *email, Phone: *phone}); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, "code sent")
	return err
}

func cmdLogin(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	phone := fs.String("phone", "", "account phone in E.164 form")
	code := fs.String("code", "", "code received by email or SMS")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.API.Auth.CheckCode(ctx, resource.CheckCodeInput{Email: *email, Phone: *phone, Code: *code})
	if err != nil {
		return err
	}
	if user == nil {
		if user, err = a.API.Auth.Me(ctx); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, "logged in as %s\n", user.FullName())
	return err
}

func cmdLogout(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	if err := a.API.Auth.Logout(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, "logged out")
	return err
}

type tokenStatus struct {
	Present    bool      `json:"present"`
	Subject    string    `json:"subject,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	ExpiresIn  string    `json:"expires_in,omitempty"`
	Expired    bool      `json:"expired"`
	HasRefresh bool      `json:"has_refresh"`
	Error      string    `json:"error,omitempty"`
}

func cmdStatus(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	report := a.Health(ctx)

	var ts tokenStatus
	pair, err := a.Tokens(ctx)
	switch {
	case err != nil:
		ts.Error = err.Error()
	case pair.AccessToken != "":
		ts.Present = true
		ts.HasRefresh = pair.RefreshToken != ""
		claims, err := credential.Inspect(pair.AccessToken)
		if err != nil {
			ts.Error = err.Error()
			break
		}
		ts.Subject = claims.Subject
		now := time.Now()
		ts.ExpiresAt = claims.ExpiresAt
		ts.Expired = claims.Expired(now)
		if left := claims.ExpiresIn(now); left > 0 {
			ts.ExpiresIn = left.Round(time.Second).String()
		}
	}

	return printJSON(out, map[string]any{
		"health":  report,
		"session": a.SessionState().String(),
		"token":   ts,
	})
}

func cmdMe(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	me, err := a.API.Auth.Me(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, me)
}

func cmdCourses(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("courses", flag.ContinueOnError)
	search := fs.String("search", "", "full-text search")
	category := fs.Int64("category", 0, "category id")
	page := fs.Int("page", 1, "page number")
	mine := fs.Bool("mine", false, "only courses the caller is enrolled in")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		courses []domain.Course
		err     error
	)
	if *mine {
		courses, err = a.API.Courses.Mine(ctx)
	} else {
		p := pagination.DefaultParams()
		p.Page = *page
		courses, err = a.API.Courses.List(ctx, domain.CourseFilter{Search: *search, CategoryID: *category}, p)
	}
	if err != nil {
		return err
	}
	return printJSON(out, courses)
}

func cmdEnroll(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("enroll takes exactly one course id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid course id %q: %w", args[0], err)
	}

	if err := a.API.Courses.EnrollCourse(ctx, id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "enrolled in course %d\n", id)
	return err
}

func cmdNotifications(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	unread := fs.Bool("unread", false, "only unread notifications")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := pagination.DefaultParams()
	p.Page = *page
	items, err := a.API.Notifications.List(ctx, *unread, p)
	if err != nil {
		return err
	}
	return printJSON(out, items)
}

func cmdEvents(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	from := fs.String("from", "", "first day, YYYY-MM-DD")
	to := fs.String("to", "", "last day, YYYY-MM-DD")
	course := fs.Int64("course", 0, "course id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	events, err := a.API.Schedule.Events(ctx, domain.EventFilter{From: *from, To: *to, CourseID: *course}, pagination.Params{})
	if err != nil {
		return err
	}
	return printJSON(out, events)
}
