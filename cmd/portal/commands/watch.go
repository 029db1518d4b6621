package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loga-alumni/portal/internal/app"
	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/live"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/core/session"
	"github.com/loga-alumni/portal/internal/pkg/printer"
	"github.com/loga-alumni/portal/pkg/logger"
)

var (
	watchEmail    string
	watchPassword string
	watchOutput   string
)

// watchTarget opens one live stream and prints it. Admin targets are
// refused for member sessions.
type watchTarget struct {
	admin bool
	run   func(ctx context.Context, a *app.App, actor domain.Actor) error
}

func newestFirst(field string) ports.Query {
	return ports.Query{OrderBy: ports.Order{Field: field, Desc: true}}
}

var watchTargets = map[string]watchTarget{
	"events": {run: func(ctx context.Context, a *app.App, _ domain.Actor) error {
		ch, err := a.Events.Watch(ctx)
		return printStream(ctx, ch, err, func(e domain.Event) string {
			return fmt.Sprintf("%s  %s @ %s", e.Date, e.Title, e.Venue)
		})
	}},
	"jobs": {run: func(ctx context.Context, a *app.App, _ domain.Actor) error {
		ch, err := a.Jobs.Watch(ctx)
		return printStream(ctx, ch, err, func(j domain.JobPosting) string {
			return fmt.Sprintf("[%s] %s at %s", j.Type, j.Title, j.Company)
		})
	}},
	"forum": {run: func(ctx context.Context, a *app.App, _ domain.Actor) error {
		ch, err := a.Forum.Watch(ctx)
		return printStream(ctx, ch, err, func(p domain.ForumPost) string {
			return fmt.Sprintf("[%s] %s by %s (%d comments)", p.Category, p.Title, p.AuthorName, len(p.Comments))
		})
	}},
	"dues": {run: func(ctx context.Context, a *app.App, actor domain.Actor) error {
		ch, err := a.Dues.Watch(ctx, actor)
		return printStream(ctx, ch, err, func(p domain.DuesPayment) string {
			return fmt.Sprintf("%s  %s  %s, next due %s", p.PaymentDate.Format(time.DateOnly),
				money(p.Currency, p.Amount), p.Reference, p.NextDueDate.Format(time.DateOnly))
		})
	}},
	"donations": {admin: true, run: func(ctx context.Context, a *app.App, _ domain.Actor) error {
		ch, err := live.Watch(ctx, a.Stores.Donations, newestFirst("createdAt"))
		return printStream(ctx, ch, err, func(d domain.Donation) string {
			return fmt.Sprintf("%s  %s from %s", d.CreatedAt.Format(time.DateOnly), money(d.Currency, d.Amount), d.Name)
		})
	}},
	"members": {admin: true, run: func(ctx context.Context, a *app.App, _ domain.Actor) error {
		ch, err := live.Watch(ctx, a.Stores.Users, newestFirst("createdAt"))
		return printStream(ctx, ch, err, func(m domain.Identity) string {
			return fmt.Sprintf("%s <%s> class of %s, dues %s", m.Name, m.Email, m.YearGroup, m.DuesStatus)
		})
	}},
}

func targetNames() []string {
	names := make([]string, 0, len(watchTargets))
	for n := range watchTargets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var watchCmd = &cobra.Command{
	Use:   "watch <collection>",
	Short: "Sign in and print live snapshots of a collection",
	Long: fmt.Sprintf(`Signs in with the given credentials, then prints every snapshot of the
collection until interrupted. Collections: %s.
donations and members need an admin account.

Examples:
  portal watch events --email kofi@loga.com --password secret
  portal watch members --email admin@loga.com --password admin123 --output json`,
		strings.Join(targetNames(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchEmail, "email", "", "Account email")
	watchCmd.Flags().StringVar(&watchPassword, "password", "", "Account password")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "default", "Output format (default or json)")
	_ = watchCmd.MarkFlagRequired("email")
	_ = watchCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	target, ok := watchTargets[args[0]]
	if !ok {
		return printer.Error("unknown collection", fmt.Sprintf("No collection named %q.", args[0]),
			"Pick one of: "+strings.Join(targetNames(), ", "))
	}
	if watchOutput != "default" && watchOutput != "json" {
		return printer.Error("invalid output format", fmt.Sprintf("Unknown format: %s", watchOutput),
			"Valid formats: default, json")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap(ctx, os.Stderr)
	if err != nil {
		return err
	}
	portal, err := app.New(ctx, cfg, log)
	if err != nil {
		return printer.Error("store connection failed", err.Error(), "Check MONGO_URI and REDIS_ADDR.")
	}
	defer portal.Close(context.Background())

	// One session for the life of the process, fed by sign-in and sign-out.
	sess := session.NewStore(portal.Profiles, cfg.Admin.Email, logger.Component(log, "session"))
	unsubscribe := portal.Auth.OnAccountChanged(sess.OnIdentityChanged)
	defer unsubscribe()
	unwatch := sess.Watch(func(s session.State) {
		if s.SignedIn() && !s.Loading {
			log.Debug().Str("account", s.Account.ID).Bool("admin", s.Role.IsAdmin).Msg("session changed")
		}
	})
	defer unwatch()

	if _, _, err := portal.Auth.SignIn(ctx, watchEmail, watchPassword); err != nil {
		return printer.Error("sign in failed", err.Error())
	}

	state := sess.Current()
	if !state.SignedIn() {
		return printer.Error("sign in failed", "The session did not pick up the account.")
	}
	if target.admin && !state.Role.IsAdmin {
		return printer.Error("access forbidden", fmt.Sprintf("%s can only be watched by an admin.", args[0]))
	}
	if watchOutput == "default" {
		name := state.Account.Email
		if state.Profile != nil {
			name = state.Profile.Name
		}
		printer.Success("signed in as %s", name)
		printer.Detail("admin: %t", state.Role.IsAdmin)
	}

	return target.run(ctx, portal, state.Actor())
}

// printStream prints each view of ch until ctx ends, the stream closes or a
// view reports a failure.
func printStream[T any](ctx context.Context, ch <-chan ports.View[T], err error, line func(T) string) error {
	if err != nil {
		return printer.Error("could not open live updates", err.Error())
	}
	enc := json.NewEncoder(printer.Out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-ch:
			if !ok {
				return nil
			}
			if watchOutput == "json" {
				if err := enc.Encode(v); err != nil {
					return err
				}
			} else {
				printView(v, line)
			}
			if v.Error != "" {
				return printer.Error("live updates stopped", v.Error)
			}
		}
	}
}

func printView[T any](v ports.View[T], line func(T) string) {
	if v.Loading {
		printer.Detail("loading")
		return
	}
	printer.Heading("#%d  %d item(s)  %s", v.Version, len(v.Items), time.Now().Format(time.TimeOnly))
	for _, item := range v.Items {
		printer.Detail("%s", line(item))
	}
}

func money(currency string, minor int64) string {
	return fmt.Sprintf("%s %d.%02d", currency, minor/100, minor%100)
}
