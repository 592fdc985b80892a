package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/rsms-admin/internal"
	journalDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/journal"
	"github.com/frahmantamala/rsms-admin/internal/core/events"
	"github.com/frahmantamala/rsms-admin/internal/mockapi"
	"github.com/frahmantamala/rsms-admin/internal/user"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("helpers", func() {
	It("prints mutation outcomes with a mark", func() {
		var out bytes.Buffer
		handle := notifier(&out)
		Expect(handle(context.Background(), events.NewUserMutationEvent(events.EventTypeUserCreated, user.OpCreate, 1, "admin", user.MsgCreated))).To(Succeed())
		Expect(handle(context.Background(), events.NewUserMutationFailedEvent(user.OpCreate, 0, "admin", user.MsgRequiredFields))).To(Succeed())
		Expect(out.String()).To(Equal("✓ " + user.MsgCreated + "\n✗ " + user.MsgRequiredFields + "\n"))
	})

	It("parses positive ids only", func() {
		id, err := parseID("12")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(12)))

		for _, raw := range []string{"0", "-1", "abc"} {
			_, err := parseID(raw)
			Expect(err).To(HaveOccurred(), raw)
		}
	})

	It("splits allowed origins", func() {
		Expect(splitOrigins(" http://a.test, ,http://b.test")).To(Equal([]string{"http://a.test", "http://b.test"}))
		Expect(splitOrigins("")).To(BeEmpty())
	})

	It("marks notified failures as reported", func() {
		Expect(errors.Is(mutated(errors.New("x")), errReported)).To(BeTrue())
		Expect(mutated(nil)).To(Succeed())
	})

	It("loads and validates the bundled openapi document", func() {
		raw, err := loadOpenAPI(filepath.Join("..", "api", "openapi.yml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring("/users/{id}/reset-password"))
	})
})

// resetFlags puts every flag back to its default so one Execute does not
// leak values into the next.
func resetFlags(c *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// sqliteJournal opens a file-backed sqlite journal in place of postgres.
func sqliteJournal(path string) func(internal.DatabaseConfig) (*journalDB, error) {
	return func(internal.DatabaseConfig) (*journalDB, error) {
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&journalDatamodel.Entry{}); err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &journalDB{gorm: db, ping: sqlDB.PingContext, close: sqlDB.Close}, nil
	}
}

var _ = Describe("users command", func() {
	var (
		server *httptest.Server
		token  string
		out    bytes.Buffer
		dir    string
	)

	run := func(args ...string) error {
		out.Reset()
		resetFlags(rootCmd)
		rootCmd.SetOut(&out)
		args = append(args, "--config", dir)
		if args[0] == "users" {
			args = append(args, "--token", token)
		}
		rootCmd.SetArgs(args)
		return rootCmd.Execute()
	}

	BeforeEach(func() {
		api, err := mockapi.New(mockapi.Options{JWTSecret: "cli-secret", BcryptCost: bcrypt.MinCost, Logger: logger.Discard()})
		Expect(err).NotTo(HaveOccurred())
		server = httptest.NewServer(api.Handler())
		token, err = api.IssueToken("admin")
		Expect(err).NotTo(HaveOccurred())

		dir = GinkgoT().TempDir()
		cfg := fmt.Sprintf("records_api:\n  base_url: %s/api\n  timeout: 5s\nsession:\n  token_file: %s\nobservability:\n  logging:\n    level: error\n",
			server.URL, filepath.Join(dir, "token"))
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(cfg), 0o600)).To(Succeed())
		configPath = dir
	})

	AfterEach(func() {
		server.Close()
		configPath = "."
		rootCmd.SetOut(nil)
	})

	It("lists the directory with a summary", func() {
		Expect(run("users", "list")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("admin"))
		Expect(out.String()).To(ContainSubstring("Total: 1"))
	})

	It("creates an account and reports the outcome", func() {
		err := run("users", "create",
			"--username", "drsiti", "--email", "siti@rsms.local", "--password", "secret1",
			"--full-name", "Dr. Siti", "--role", "dokter", "--specialization", "Cardiology")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(ContainSubstring("✓ " + user.MsgCreated))

		Expect(run("users", "get", "2")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Cardiology"))
	})

	It("rejects a short password before calling the API", func() {
		err := run("users", "set-password", "1", "--password", "123")
		Expect(errors.Is(err, errReported)).To(BeTrue())
		Expect(out.String()).To(ContainSubstring("✗ " + user.MsgPasswordTooShort))
	})

	It("does not carry a password from create into set-password", func() {
		Expect(run("users", "create",
			"--username", "kasir1", "--email", "kasir1@rsms.local", "--password", "secret1",
			"--full-name", "Kasir Satu", "--role", "kasir")).To(Succeed())

		err := run("users", "set-password", "2")
		Expect(errors.Is(err, errReported)).To(BeTrue())
		Expect(out.String()).To(ContainSubstring("✗ " + user.MsgPasswordRequired))
	})

	It("keeps update flags apart from create flags", func() {
		Expect(run("users", "create",
			"--username", "drbudi", "--email", "budi@rsms.local", "--password", "secret1",
			"--full-name", "Dr. Budi", "--role", "dokter", "--specialization", "Anak")).To(Succeed())

		Expect(run("users", "update", "2", "--phone", "0812")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("✓ " + user.MsgUpdated))

		Expect(run("users", "get", "2")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("drbudi"))
		Expect(out.String()).To(ContainSubstring("Dokter"))
		Expect(out.String()).To(ContainSubstring("0812"))
	})

	Describe("with the journal enabled", func() {
		var restore func(internal.DatabaseConfig) (*journalDB, error)

		BeforeEach(func() {
			restore = openJournalDB
			openJournalDB = sqliteJournal(filepath.Join(dir, "journal.db"))

			cfg := fmt.Sprintf("records_api:\n  base_url: %s/api\n  timeout: 5s\nsession:\n  token_file: %s\njournal:\n  enabled: true\ndatabase:\n  source: postgres://unused\nobservability:\n  logging:\n    level: error\n",
				server.URL, filepath.Join(dir, "token"))
			Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(cfg), 0o600)).To(Succeed())
		})

		AfterEach(func() {
			openJournalDB = restore
		})

		It("records CLI mutations and lists them per account", func() {
			Expect(run("users", "create",
				"--username", "drsiti", "--email", "siti@rsms.local", "--password", "secret1",
				"--full-name", "Dr. Siti", "--role", "dokter")).To(Succeed())
			Expect(run("users", "set-password", "2", "--password", "123")).To(HaveOccurred())
			Expect(run("users", "create",
				"--username", "kasir1", "--email", "kasir1@rsms.local", "--password", "secret1",
				"--full-name", "Kasir Satu", "--role", "kasir")).To(Succeed())
			Expect(run("users", "deactivate", "3")).To(Succeed())

			Expect(run("journal", "--user", "2")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(user.MsgCreated))
			Expect(out.String()).To(ContainSubstring(user.MsgPasswordTooShort))
			Expect(out.String()).To(ContainSubstring("failed"))
			Expect(out.String()).NotTo(ContainSubstring(user.MsgDeactivated))

			Expect(run("journal")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(user.MsgDeactivated))
		})

		It("refuses a non-positive account filter", func() {
			Expect(run("journal", "--user", "0")).To(MatchError(ContainSubstring(user.MsgInvalidUserID)))
		})
	})
})
