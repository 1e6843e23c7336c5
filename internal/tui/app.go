// Package tui is the interactive terminal front-end. All dashboard
// state lives in internal/dashboard; this package only reads input and
// renders.
package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ahelp-app/ahelp-cli/internal/api"
	"github.com/ahelp-app/ahelp-cli/internal/dashboard"
	"github.com/ahelp-app/ahelp-cli/internal/domain"
	"github.com/ahelp-app/ahelp-cli/internal/service"
	"github.com/ahelp-app/ahelp-cli/internal/session"
)

type App struct {
	auth     *service.AuthService
	client   *api.Client
	sessions session.Store
	in       *bufio.Scanner
	out      io.Writer
	eof      bool
}

func NewApp(auth *service.AuthService, client *api.Client, sessions session.Store, in io.Reader, out io.Writer) *App {
	return &App{
		auth:     auth,
		client:   client,
		sessions: sessions,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run drives the whole client: auth menu while signed out, then the
// dashboard matching the session's role.
func (a *App) Run(ctx context.Context) error {
	for ctx.Err() == nil && !a.eof {
		sess, err := a.sessions.Get()
		if err != nil {
			return err
		}
		if sess == nil {
			quit, err := a.authMenu(ctx)
			if err != nil || quit {
				return err
			}
			continue
		}

		route, err := dashboard.RouteFor(sess)
		if err != nil {
			if errors.Is(err, domain.ErrEmailNotVerified) {
				RenderError(a.out, "Please verify your email before logging in. Check your inbox.")
			} else {
				RenderError(a.out, err.Error())
			}
			if err := a.auth.Logout(); err != nil {
				return err
			}
			continue
		}

		quit, err := a.runDashboard(ctx, route, sess.UserID())
		if err != nil || quit {
			return err
		}
	}
	return ctx.Err()
}

func (a *App) authMenu(ctx context.Context) (quit bool, err error) {
	fmt.Fprintln(a.out, heading("ahelp"))
	fmt.Fprintln(a.out, "  1) sign in   2) register   3) become a helper   4) verify email   q) quit")

	switch a.prompt("> ") {
	case "1":
		a.signIn(ctx)
	case "2":
		a.register(ctx)
	case "3":
		a.registerHelper(ctx)
	case "4":
		a.verifyEmail(ctx)
	case "q", "quit", "exit":
		return true, nil
	}
	return false, nil
}

func (a *App) signIn(ctx context.Context) {
	email := a.prompt("email: ")
	password := a.prompt("password: ")

	if _, err := a.auth.Login(ctx, email, password); err != nil {
		// Every cause collapses into the same message on purpose.
		RenderError(a.out, "Invalid email or password. Please try again.")
	}
}

func (a *App) register(ctx context.Context) {
	params := api.RegisterUserParams{
		FirstName: a.prompt("first name: "),
		LastName:  a.prompt("last name: "),
		Email:     a.prompt("email: "),
		Password:  a.prompt("password: "),
	}

	if _, err := a.auth.RegisterUser(ctx, params); err != nil {
		RenderError(a.out, registrationErrorText(err))
		return
	}
	fmt.Fprintln(a.out, accent("Account created. You can sign in now."))
}

func (a *App) registerHelper(ctx context.Context) {
	reg := service.HelperRegistration{
		FirstName: a.prompt("first name: "),
		LastName:  a.prompt("last name: "),
		Email:     a.prompt("email: "),
		Password:  a.prompt("password: "),
		Education: a.prompt("education id: "),
	}

	picturePath := a.prompt("profile picture path: ")
	if picturePath != "" {
		file, err := os.Open(picturePath)
		if err != nil {
			RenderError(a.out, "cannot open picture: "+err.Error())
			return
		}
		defer file.Close()
		reg.Picture = file
		reg.PictureName = filepath.Base(picturePath)
	}

	if _, err := a.auth.RegisterHelper(ctx, reg); err != nil {
		var profileErr *service.HelperProfileError
		if errors.As(err, &profileErr) {
			RenderError(a.out, fmt.Sprintf(
				"Your account was created but the helper profile failed: %s. Contact support before retrying.",
				registrationErrorText(profileErr.Err)))
			return
		}
		RenderError(a.out, registrationErrorText(err))
		return
	}
	fmt.Fprintln(a.out, accent("Helper account created. Verify your email, then sign in."))
}

func (a *App) verifyEmail(ctx context.Context) {
	token := a.prompt("verification token: ")
	email := a.prompt("email: ")
	if err := a.auth.VerifyEmail(ctx, token, email); err != nil {
		RenderError(a.out, registrationErrorText(err))
		return
	}
	fmt.Fprintln(a.out, accent("Email verified successfully! You can now log in."))
}

func (a *App) runDashboard(ctx context.Context, route dashboard.Route, selfID int64) (quit bool, err error) {
	d := dashboard.New(a.client, route)
	defer d.Close()

	if err := d.Open(ctx); err != nil {
		RenderError(a.out, "dashboard load failed: "+err.Error())
		if err := a.auth.Logout(); err != nil {
			return false, err
		}
		return false, nil
	}

	fmt.Fprintln(a.out, heading(string(route)+" dashboard"))
	a.printHelp(route)

	for ctx.Err() == nil {
		line := a.prompt(string(route) + "> ")
		if a.eof {
			return true, nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			a.printHelp(route)
		case "contacts":
			minRating := 0.0
			if len(fields) > 1 {
				minRating, _ = strconv.ParseFloat(fields[1], 64)
			}
			RenderContacts(a.out, d.Contacts(), minRating)
		case "chats":
			RenderConversations(a.out, d.Conversations(), selfID)
		case "open":
			a.openContact(ctx, d, fields, selfID)
		case "resume":
			a.resumeConversation(ctx, d, fields, selfID)
		case "avail":
			if route != dashboard.RouteHelper {
				RenderError(a.out, "only helpers can toggle availability")
				continue
			}
			available, err := d.ToggleAvailability(ctx)
			if err != nil {
				RenderError(a.out, err.Error())
				continue
			}
			fmt.Fprintf(a.out, "availability: %v\n", available)
		case "assign":
			a.assignUser(ctx, d, route, fields)
		case "rmhelper":
			a.deleteHelper(ctx, d, route, fields)
		case "logout":
			return false, a.auth.Logout()
		case "quit", "exit":
			return true, nil
		default:
			RenderError(a.out, "unknown command, try 'help'")
		}
	}
	return true, nil
}

func (a *App) printHelp(route dashboard.Route) {
	fmt.Fprintln(a.out, dim("  contacts [min-rating] | chats | open <contact#> | resume <chat#> | logout | quit"))
	switch route {
	case dashboard.RouteHelper:
		fmt.Fprintln(a.out, dim("  avail  — toggle your availability"))
	case dashboard.RouteAdmin:
		fmt.Fprintln(a.out, dim("  assign <helper-id> <user-id> | rmhelper <helper-id>"))
	}
}

func (a *App) openContact(ctx context.Context, d *dashboard.Dashboard, fields []string, selfID int64) {
	idx := parseIndex(fields, len(d.Contacts()))
	if idx < 0 {
		RenderError(a.out, "usage: open <contact#>")
		return
	}
	contact := d.Contacts()[idx]
	if _, err := d.StartConversation(ctx, contact.UserID); err != nil {
		RenderError(a.out, err.Error())
		return
	}
	a.chatLoop(ctx, d, selfID)
}

func (a *App) resumeConversation(ctx context.Context, d *dashboard.Dashboard, fields []string, selfID int64) {
	convs := d.Conversations()
	idx := parseIndex(fields, len(convs))
	if idx < 0 {
		RenderError(a.out, "usage: resume <chat#>")
		return
	}
	d.SelectConversation(ctx, convs[idx])
	a.chatLoop(ctx, d, selfID)
}

// chatLoop reads message lines until /back. The poller keeps the
// transcript fresh in the background; each prompt re-renders it.
func (a *App) chatLoop(ctx context.Context, d *dashboard.Dashboard, selfID int64) {
	defer d.CloseConversation()

	fmt.Fprintln(a.out, dim("type to send, /back to leave"))
	for ctx.Err() == nil {
		RenderMessages(a.out, d.ActiveConversation(), d.Messages(), selfID)
		line := a.prompt("you: ")
		if line == "/back" || a.eof {
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := d.Send(ctx, line); err != nil {
			RenderError(a.out, "message not sent: "+err.Error())
		}
	}
}

func (a *App) assignUser(ctx context.Context, d *dashboard.Dashboard, route dashboard.Route, fields []string) {
	if route != dashboard.RouteAdmin {
		RenderError(a.out, "admin only")
		return
	}
	if len(fields) != 3 {
		RenderError(a.out, "usage: assign <helper-id> <user-id>")
		return
	}
	helperID, err1 := strconv.ParseInt(fields[1], 10, 64)
	userID, err2 := strconv.ParseInt(fields[2], 10, 64)
	if err1 != nil || err2 != nil {
		RenderError(a.out, "usage: assign <helper-id> <user-id>")
		return
	}
	if err := d.AssignUser(ctx, helperID, userID); err != nil {
		RenderError(a.out, err.Error())
		return
	}
	fmt.Fprintln(a.out, accent("User assigned successfully"))
}

func (a *App) deleteHelper(ctx context.Context, d *dashboard.Dashboard, route dashboard.Route, fields []string) {
	if route != dashboard.RouteAdmin {
		RenderError(a.out, "admin only")
		return
	}
	if len(fields) != 2 {
		RenderError(a.out, "usage: rmhelper <helper-id>")
		return
	}
	helperID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		RenderError(a.out, "usage: rmhelper <helper-id>")
		return
	}
	if err := d.DeleteHelper(ctx, helperID); err != nil {
		RenderError(a.out, err.Error())
		return
	}
	fmt.Fprintln(a.out, accent("Helper deleted"))
}

func (a *App) prompt(label string) string {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		a.eof = true
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

func parseIndex(fields []string, length int) int {
	if len(fields) != 2 {
		return -1
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > length {
		return -1
	}
	return n - 1
}

// registrationErrorText prefers the backend's own error text when the
// failure carries one.
func registrationErrorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
