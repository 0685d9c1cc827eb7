package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/GNOME/libgda-sub020/internal/harness"
	"github.com/GNOME/libgda-sub020/internal/store"
)

// StoreOptions holds flags shared by the store subcommands.
type StoreOptions struct {
	*RootOptions
	DBPath string
}

// StoredStatement is the JSON form of a store record.
type StoredStatement struct {
	ID          string `json:"id"`
	ContentHash string `json:"content_hash"`
	Type        string `json:"type"`
	SQL         string `json:"sql,omitempty"`
	Canonical   string `json:"canonical"`
	Seq         int64  `json:"seq"`
	Created     *bool  `json:"created,omitempty"`
}

func storedStatement(rec store.Record) StoredStatement {
	return StoredStatement{
		ID:          rec.ID,
		ContentHash: rec.ContentHash,
		Type:        rec.Type,
		SQL:         rec.SQL,
		Canonical:   rec.Canonical,
		Seq:         rec.Seq,
	}
}

// NewStoreCommand creates the store command and its subcommands.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Save and inspect statements in a SQLite store",
		Long: `Save and inspect statements in a SQLite statement store.

Statements are keyed by the hash of their canonical form, so saving the
same statement twice returns the existing record.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to the statement database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newStoreSaveCommand(opts))
	cmd.AddCommand(newStoreShowCommand(opts))
	cmd.AddCommand(newStoreListCommand(opts))
	cmd.AddCommand(newStoreDeleteCommand(opts))

	return cmd
}

// openStore opens the database. create allows a missing database file to
// be created; read-only commands refuse it.
func openStore(f *OutputFormatter, path string, create bool) (*store.Store, error) {
	if !create {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path), nil)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to create database directory: %v", err), nil)
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	f.VerboseLog("Opened store %s", path)
	return st, nil
}

func newStoreSaveCommand(opts *StoreOptions) *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:           "save <statement-file>",
		Short:         "Validate and save a statement",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			stmt, err := loadStatement(args[0], scenario)
			if err != nil {
				return failInput(formatter, err)
			}

			st, err := openStore(formatter, opts.DBPath, true)
			if err != nil {
				return err
			}
			defer st.Close()

			rec, created, err := st.Save(cmd.Context(), stmt)
			if err != nil {
				if code := harness.ErrorCode(err); code != "" {
					return formatter.Fail(ExitFailure, code, err.Error(), nil)
				}
				return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
			}

			if formatter.JSON() {
				out := storedStatement(rec)
				out.Created = &created
				return formatter.Success(out)
			}
			if created {
				fmt.Fprintf(formatter.Writer, "✓ Saved %s (%s, %s)\n", rec.ID, rec.Type, shortHash(rec.ContentHash))
			} else {
				fmt.Fprintf(formatter.Writer, "✓ Already stored as %s (%s, %s)\n", rec.ID, rec.Type, shortHash(rec.ContentHash))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", "", "scenario to build from a multi-scenario CUE file")
	return cmd
}

func newStoreShowCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id-or-hash>",
		Short: "Show a stored statement",
		Long: `Show a stored statement by record id or content hash.

Text output prints the canonical serialization, which is itself a valid
statement file for validate, render and graph.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			st, err := openStore(formatter, opts.DBPath, false)
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Lookup(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("statement not found: %s", args[0]), nil)
			}
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
			}

			if formatter.JSON() {
				return formatter.Success(storedStatement(rec))
			}
			formatter.VerboseLog("id=%s type=%s seq=%d hash=%s", rec.ID, rec.Type, rec.Seq, rec.ContentHash)
			stmt, err := rec.Statement()
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
			}
			fmt.Fprintln(formatter.Writer, stmt.String())
			return nil
		},
	}
}

func newStoreListCommand(opts *StoreOptions) *cobra.Command {
	var list store.ListOptions

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored statements in save order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			st, err := openStore(formatter, opts.DBPath, false)
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.List(cmd.Context(), list)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
			}

			if formatter.JSON() {
				out := make([]StoredStatement, len(records))
				for i, rec := range records {
					out[i] = storedStatement(rec)
				}
				return formatter.Success(out)
			}
			if len(records) == 0 {
				fmt.Fprintln(formatter.Writer, "No statements stored.")
				return nil
			}
			for _, rec := range records {
				fmt.Fprintf(formatter.Writer, "%4d  %-36s  %-8s  %s  %s\n",
					rec.Seq, rec.ID, rec.Type, shortHash(rec.ContentHash), rec.SQL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&list.Type, "type", "", "only list statements of this type (e.g., SELECT)")
	cmd.Flags().IntVar(&list.Limit, "limit", 0, "maximum number of statements (0 = all)")
	return cmd
}

func newStoreDeleteCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a stored statement",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			st, err := openStore(formatter, opts.DBPath, false)
			if err != nil {
				return err
			}
			defer st.Close()

			err = st.Delete(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("statement not found: %s", args[0]), nil)
			}
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
			}

			if formatter.JSON() {
				return formatter.Success(map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(formatter.Writer, "✓ Deleted %s\n", args[0])
			return nil
		},
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
