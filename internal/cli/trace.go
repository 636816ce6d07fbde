package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwire/internal/ir"
	"github.com/roach88/patchwire/internal/journalq"
	"github.com/roach88/patchwire/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Object   string // optional - only patches touching this object
	Document string // optional - only batches of this document
	Kind     string // optional - only patches of this kind
	Limit    int
}

// TraceEntry is one journaled patch in the trace output.
type TraceEntry struct {
	Seq      int64           `json:"seq"`
	Document string          `json:"document"`
	Batch    int64           `json:"batch"`
	Position int             `json:"position"`
	Obj      string          `json:"obj"`
	Kind     string          `json:"kind"`
	Patch    json.RawMessage `json:"patch"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Patches   int `json:"patches"`
	Batches   int `json:"batches"`
	Documents int `json:"documents"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Entries []TraceEntry `json:"entries"`
	Stats   TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print journaled deliveries",
		Long: `Print the patches journaled by 'patchwire run --db', in delivery order.

Each line shows the global sequence number, the document and batch the
patch was delivered in, and the patch itself as canonical JSON. Filters
combine: only patches matching all of them are printed.

Examples:
  patchwire trace --db ./journal.db
  patchwire trace --db ./journal.db --document interleaved --kind splice_text
  patchwire trace --db ./journal.db --object 1@aa --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Object, "object", "", "only patches touching this object id")
	cmd.Flags().StringVar(&opts.Document, "document", "", "only batches of this document")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only patches of this kind (put, insert, splice_text, ...)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "print at most this many patches (0 = all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// store.Open creates missing databases; a trace of one is a typo.
	if _, err := os.Stat(opts.Database); err != nil {
		return out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeJournal, "failed to open database", err)
	}
	defer st.Close()

	deliveries, err := st.Select(ctx, traceQuery(opts))
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeJournal, "failed to read journal", err)
	}
	out.VerboseLog("read %d journaled patch(es) from %s", len(deliveries), opts.Database)

	result := buildTrace(deliveries)
	if out.IsJSON() {
		return out.Success(result)
	}
	writeTraceText(cmd.OutOrStdout(), result)
	return nil
}

func traceQuery(opts *TraceOptions) journalq.Select {
	var preds []journalq.Predicate
	if opts.Document != "" {
		preds = append(preds, journalq.Equals{Field: journalq.FieldDocument, Value: ir.String(opts.Document)})
	}
	if opts.Object != "" {
		preds = append(preds, journalq.Equals{Field: journalq.FieldObj, Value: ir.String(opts.Object)})
	}
	if opts.Kind != "" {
		preds = append(preds, journalq.Equals{Field: journalq.FieldKind, Value: ir.String(opts.Kind)})
	}
	return journalq.Select{Filter: journalq.Where(preds...), Limit: opts.Limit}
}

func buildTrace(deliveries []store.Delivery) TraceResult {
	result := TraceResult{Entries: make([]TraceEntry, 0, len(deliveries))}
	type batchKey struct {
		document string
		batch    int64
	}
	batches := make(map[batchKey]bool)
	documents := make(map[string]bool)

	for _, d := range deliveries {
		result.Entries = append(result.Entries, TraceEntry{
			Seq:      d.Seq,
			Document: d.Document,
			Batch:    d.Batch,
			Position: d.Position,
			Obj:      string(d.Obj),
			Kind:     string(d.Kind),
			Patch:    d.Patch,
		})
		batches[batchKey{d.Document, d.Batch}] = true
		documents[d.Document] = true
	}

	result.Stats = TraceStats{
		Patches:   len(result.Entries),
		Batches:   len(batches),
		Documents: len(documents),
	}
	return result
}

func writeTraceText(w io.Writer, r TraceResult) {
	if len(r.Entries) == 0 {
		fmt.Fprintln(w, "No deliveries journaled.")
		return
	}
	for _, e := range r.Entries {
		fmt.Fprintf(w, "%6d  %s#%d.%d  %-11s %-8s %s\n",
			e.Seq, e.Document, e.Batch, e.Position, e.Kind, e.Obj, e.Patch)
	}
	fmt.Fprintf(w, "\n%d patch(es) in %d batch(es) across %d document(s)\n",
		r.Stats.Patches, r.Stats.Batches, r.Stats.Documents)
}
