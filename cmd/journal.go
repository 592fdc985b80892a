package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/rsms-admin/internal"
	"github.com/frahmantamala/rsms-admin/internal/journal"
	journalPostgres "github.com/frahmantamala/rsms-admin/internal/journal/postgres"
	"github.com/frahmantamala/rsms-admin/internal/user"
)

var (
	journalUserFlag  int64
	journalLimitFlag int
)

// journalDB is an open journal database with the pool behind it.
type journalDB struct {
	gorm  *gorm.DB
	ping  func(ctx context.Context) error
	close func() error
}

// openJournalDB connects to the journal database over pgx and hands the pool
// to gorm.
var openJournalDB = func(cfg internal.DatabaseConfig) (*journalDB, error) {
	db, err := initDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gormDB, err := openGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}
	return &journalDB{gorm: gormDB, ping: db.PingContext, close: db.Close}, nil
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the admin mutations recorded in the journal",
	Long:  `Print the newest journal entries, optionally for one account only`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if !cfg.Journal.Enabled {
			return errors.New("the journal is disabled; set journal.enabled in config.yml")
		}
		lg := setupLogger(cfg, cmd.ErrOrStderr())

		jdb, err := openJournalDB(cfg.Database)
		if err != nil {
			return err
		}
		defer jdb.close()

		svc := journal.NewService(journalPostgres.NewJournalRepository(jdb.gorm), lg)
		var entries []*journal.Entry
		if cmd.Flags().Changed("user") {
			if journalUserFlag <= 0 {
				return internal.NewValidationError(user.MsgInvalidUserID, internal.ErrCodeInvalidUserID)
			}
			entries, err = svc.ForUser(journalUserFlag, journalLimitFlag)
			if err != nil {
				return err
			}
		} else {
			entries, err = svc.Recent(journalLimitFlag)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "no journal entries")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tOPERATION\tUSER\tACTOR\tRESULT\tMESSAGE")
		for _, e := range entries {
			result := "ok"
			if !e.Success {
				result = "failed"
			}
			target := "-"
			if e.UserID > 0 {
				target = fmt.Sprint(e.UserID)
			}
			actor := e.Actor
			if actor == "" {
				actor = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.OccurredAt.Local().Format("2006-01-02 15:04:05"), e.Operation, target, actor, result, e.Message)
		}
		return tw.Flush()
	},
}

func init() {
	journalCmd.Flags().Int64Var(&journalUserFlag, "user", 0, "only entries for this account id")
	journalCmd.Flags().IntVar(&journalLimitFlag, "limit", 50, "maximum number of entries")
}
