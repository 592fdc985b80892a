package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/rsms-admin/internal"
	"github.com/frahmantamala/rsms-admin/internal/core/events"
	"github.com/frahmantamala/rsms-admin/internal/journal"
	journalPostgres "github.com/frahmantamala/rsms-admin/internal/journal/postgres"
	"github.com/frahmantamala/rsms-admin/internal/session"
	"github.com/frahmantamala/rsms-admin/internal/user"
	"github.com/frahmantamala/rsms-admin/internal/userapi"
)

// errReported marks a failure whose message was already shown to the admin.
var errReported = errors.New("reported")

var (
	tokenFlag string

	createFlags     user.Draft
	updateFlags     user.Draft
	newPasswordFlag string
	activeFlag      bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage staff accounts",
	Long:  `List, inspect and change staff accounts on the records API`,
}

// adminCLI is the wiring shared by every users subcommand.
type adminCLI struct {
	client  *userapi.Client
	store   *user.Store
	gateway *user.Gateway
	details *user.Aggregator
	creds   session.Source
	out     io.Writer
	logger  *slog.Logger
	journal *journalDB
}

func credentials(cfg *internal.Config) session.Source {
	return session.Chain(
		session.Static(tokenFlag),
		session.Static(cfg.Session.Token),
		session.Env(cfg.Session.TokenEnv),
		session.File{Path: cfg.Session.TokenFile},
	)
}

func newAdminCLI(cmd *cobra.Command) (*adminCLI, context.Context, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	lg := setupLogger(cfg, os.Stderr)
	out := cmd.OutOrStdout()

	creds := credentials(cfg)
	client := userapi.NewClient(userapi.Config{
		BaseURL: cfg.RecordsAPI.BaseURL,
		Timeout: cfg.RecordsAPI.Timeout,
	}, creds, lg)

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.AllEvents, notifier(out))

	var jdb *journalDB
	if cfg.Journal.Enabled {
		jdb, err = openJournalDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		journal.NewService(journalPostgres.NewJournalRepository(jdb.gorm), lg).Subscribe(bus)
	}

	store := user.NewStore(client, lg)
	app := &adminCLI{
		client:  client,
		store:   store,
		gateway: user.NewGateway(client, store, events.Sync(bus), lg),
		details: user.NewAggregator(client, lg),
		creds:   creds,
		out:     out,
		logger:  lg,
		journal: jdb,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if token, err := creds.Token(ctx); err == nil {
		if actor := session.Subject(token); actor != "" {
			ctx = internal.ContextWithActor(ctx, actor)
		}
	}
	return app, ctx, nil
}

// Close releases the journal connection, if one was opened.
func (a *adminCLI) Close() {
	if a.journal == nil {
		return
	}
	if err := a.journal.close(); err != nil {
		a.logger.Warn("journal close failed", "error", err)
	}
}

// notifier prints the outcome text of every mutation.
func notifier(out io.Writer) events.Handler {
	return func(_ context.Context, evt events.Event) error {
		e, ok := evt.(*events.UserMutationEvent)
		if !ok {
			return nil
		}
		mark := "✓"
		if !e.Success {
			mark = "✗"
		}
		fmt.Fprintf(out, "%s %s\n", mark, e.Message)
		return nil
	}
}

// report prints a read failure and marks it as shown.
func (a *adminCLI) report(err error) error {
	fmt.Fprintf(a.out, "✗ %s\n", errorMessage(err))
	return fmt.Errorf("%w: %v", errReported, err)
}

// mutated hides errors already printed by the notifier.
func mutated(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errReported, err)
}

func errorMessage(err error) string {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr.GetDetailedMessage()
	}
	return err.Error()
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationError(user.MsgInvalidUserID, internal.ErrCodeInvalidUserID)
	}
	return id, nil
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List every staff account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ctx, err := newAdminCLI(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		users, err := app.store.ListUsers(ctx)
		if err != nil {
			return app.report(err)
		}

		tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tFULL NAME\tEMAIL\tROLE\tSPECIALIZATION\tSTATUS")
		for _, row := range user.Rows(users) {
			spec := "-"
			if row.ShowSpecialization {
				spec = row.Specialization
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				row.ID, row.Username, row.FullName, row.Email, row.RoleBadge.Label, spec, row.StatusBadge.Label)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		s := app.store.Summary()
		fmt.Fprintf(app.out, "\nTotal: %d  Dokter: %d  Apoteker: %d  Active: %d  (fetched %s)\n",
			s.Total, s.Dokter, s.Apoteker, s.Active, app.store.FetchedAt().Local().Format("15:04:05"))
		return nil
	},
}

var getUserCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one account with its statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ctx, err := newAdminCLI(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		id, err := parseID(args[0])
		if err != nil {
			return app.report(err)
		}
		detail, err := app.details.LoadUserDetail(ctx, id)
		if err != nil {
			return app.report(err)
		}

		u := detail.User
		tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "ID\t%d\n", u.ID)
		fmt.Fprintf(tw, "Username\t%s\n", u.Username)
		fmt.Fprintf(tw, "Full name\t%s\n", u.FullName)
		fmt.Fprintf(tw, "Email\t%s\n", u.Email)
		fmt.Fprintf(tw, "Role\t%s\n", user.RoleBadge(u.Role).Label)
		if u.ShowsSpecialization() {
			fmt.Fprintf(tw, "Specialization\t%s\n", u.Specialization)
		}
		if u.PhoneNumber != "" {
			fmt.Fprintf(tw, "Phone\t%s\n", u.PhoneNumber)
		}
		fmt.Fprintf(tw, "Status\t%s\n", user.StatusBadge(u.IsActive).Label)
		if u.LastLogin != nil {
			fmt.Fprintf(tw, "Last login\t%s\n", u.LastLogin.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(tw, "Appointments\t%d\n", detail.Stats.Appointments)
		fmt.Fprintf(tw, "Prescriptions\t%d\n", detail.Stats.Prescriptions)
		fmt.Fprintf(tw, "Transactions\t%d\n", detail.Stats.Transactions)
		fmt.Fprintf(tw, "Last month activity\t%d\n", detail.Stats.LastMonthActivity)
		if err := tw.Flush(); err != nil {
			return err
		}
		if detail.StatsDegraded {
			fmt.Fprintln(app.out, "(statistics unavailable)")
		}
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new staff account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, ctx, err := newAdminCLI(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		created, err := app.gateway.CreateUser(ctx, createFlags)
		if err != nil {
			return mutated(err)
		}
		if created != nil {
			fmt.Fprintf(app.out, "id: %d\n", created.ID)
		}
		return nil
	},
}

var updateUserCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit an account; unset flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, ctx, err := newAdminCLI(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		id, err := parseID(args[0])
		if err != nil {
			return app.report(err)
		}
		current, err := app.store.GetUser(ctx, id)
		if err != nil {
			return app.report(err)
		}

		d := user.EditDraft(current)
		flags := cmd.Flags()
		if flags.Changed("username") {
			d.Username = updateFlags.Username
		}
		if flags.Changed("email") {
			d.Email = updateFlags.Email
		}
		if flags.Changed("full-name") {
			d.FullName = updateFlags.FullName
		}
		if flags.Changed("role") {
			d.Role = updateFlags.Role
		}
		if flags.Changed("specialization") {
			d.Specialization = updateFlags.Specialization
		}
		if flags.Changed("phone") {
			d.PhoneNumber = updateFlags.PhoneNumber
		}
		if flags.Changed("password") {
			d.Password = updateFlags.Password
		}
		return mutated(app.gateway.UpdateUser(ctx, id, d))
	},
}

// idCommand builds a subcommand that runs one gateway call on an id.
func idCommand(use, short string, run func(ctx context.Context, app *adminCLI, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := newAdminCLI(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			id, err := parseID(args[0])
			if err != nil {
				return app.report(err)
			}
			return run(ctx, app, id)
		},
	}
}

var deactivateUserCmd = idCommand("deactivate", "Deactivate an account", func(ctx context.Context, app *adminCLI, id int64) error {
	return mutated(app.gateway.DeactivateUser(ctx, id))
})

var resetPasswordCmd = idCommand("reset-password", "Reset the password to the hospital default", func(ctx context.Context, app *adminCLI, id int64) error {
	return mutated(app.gateway.ResetPasswordToDefault(ctx, id))
})

var setPasswordCmd = idCommand("set-password", "Set a new password", func(ctx context.Context, app *adminCLI, id int64) error {
	return mutated(app.gateway.SetPassword(ctx, id, newPasswordFlag))
})

var setStatusCmd = idCommand("set-status", "Activate or deactivate an account", func(ctx context.Context, app *adminCLI, id int64) error {
	return mutated(app.gateway.SetActiveStatus(ctx, id, activeFlag))
})

var toggleStatusCmd = idCommand("toggle", "Flip the active status of an account", func(ctx context.Context, app *adminCLI, id int64) error {
	current, err := app.store.GetUser(ctx, id)
	if err != nil {
		return app.report(err)
	}
	_, err = app.gateway.ToggleStatus(ctx, *current)
	return mutated(err)
})

var activityCmd = idCommand("activity", "Show the activity log of an account", func(ctx context.Context, app *adminCLI, id int64) error {
	entries, err := app.details.LoadActivityLog(ctx, id)
	if err != nil {
		return app.report(err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(app.out, "no activity")
		return nil
	}
	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tDESCRIPTION\tIP")
	for _, e := range entries {
		ip := e.IPAddress
		if ip == "" {
			ip = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.ActionType, e.Description, ip)
	}
	return tw.Flush()
})

func addDraftFlags(cmd *cobra.Command, d *user.Draft, role user.Role) {
	names := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		names = append(names, string(r))
	}

	f := cmd.Flags()
	f.StringVar(&d.Username, "username", "", "login name")
	f.StringVar(&d.Email, "email", "", "email address")
	f.StringVar(&d.Password, "password", "", "password")
	f.StringVar(&d.FullName, "full-name", "", "full name")
	f.StringVar((*string)(&d.Role), "role", string(role), "one of "+strings.Join(names, ", "))
	f.StringVar(&d.Specialization, "specialization", "", "specialization, for doctors")
	f.StringVar(&d.PhoneNumber, "phone", "", "phone number")
}

func init() {
	usersCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "bearer token; overrides the configured sources")

	addDraftFlags(createUserCmd, &createFlags, user.DefaultRole)
	addDraftFlags(updateUserCmd, &updateFlags, "")
	setPasswordCmd.Flags().StringVar(&newPasswordFlag, "password", "", "new password")
	setStatusCmd.Flags().BoolVar(&activeFlag, "active", true, "target status")
	_ = setStatusCmd.MarkFlagRequired("active")

	usersCmd.AddCommand(
		listUsersCmd,
		getUserCmd,
		createUserCmd,
		updateUserCmd,
		deactivateUserCmd,
		resetPasswordCmd,
		setPasswordCmd,
		setStatusCmd,
		toggleStatusCmd,
		activityCmd,
	)
}
