package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colwire/pkg/builder"
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/ipc"
	"github.com/ajitpratap0/colwire/pkg/json"
)

func newGenCmd(a *app) *cobra.Command {
	var schemaFile, in, out, format string
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Build record batches from JSON lines",
		Long: `Read one JSON object per line, append each to a record builder and write
the batches in the IPC stream or file format. A batch is flushed when it
reaches writer.batch_rows rows or writer.batch_bytes bytes.

Example:
  colwire gen --schema schema.yaml --in rows.jsonl --out rows.arrow --format file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := loadSchemaFile(schemaFile)
			if err != nil {
				return err
			}
			src := cmd.InOrStdin()
			if in != "-" {
				f, err := os.Open(in) //nolint:gosec // G304: path is a CLI argument
				if err != nil {
					return colerrors.Wrap(err, colerrors.ErrorTypeIO, "open input").WithDetail("path", in)
				}
				defer f.Close()
				src = f
			}
			return a.gen(cmd.Context(), schema, src, out, format, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "Path to the YAML schema file (required)")
	cmd.Flags().StringVarP(&in, "in", "i", "-", "JSON lines input, - for stdin")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output path, - for stdout")
	cmd.Flags().StringVarP(&format, "format", "f", formatStream, "Output format (stream, file)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func (a *app) gen(ctx context.Context, schema *datatype.Schema, in io.Reader, outPath, format string, stdout io.Writer) error {
	rb, err := builder.NewRecordBuilder(schema, builder.Options{})
	if err != nil {
		return err
	}
	out, err := createOutput(outPath, format, stdout, schema, a.cfg.WriterConfig())
	if err != nil {
		return err
	}

	start := time.Now()
	rows, batches := 0, 0
	flush := func() error {
		if rb.Len() == 0 {
			return nil
		}
		rec, err := rb.Flush()
		if err != nil {
			return err
		}
		defer rec.Release()
		if err := out.w.WriteContext(ctx, rec); err != nil {
			return err
		}
		batches++
		return nil
	}

	dec := json.NewDecoder(bufio.NewReader(in))
	for {
		var row map[string]any
		err := dec.Decode(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			out.Close()
			return colerrors.Wrapf(err, colerrors.ErrorTypeInvalid, "decode row %d", rows+1)
		}
		if err := rb.AppendRow(row); err != nil {
			out.Close()
			return colerrors.Wrapf(err, colerrors.ErrorTypeInvalid, "append row %d", rows+1)
		}
		rows++
		if rb.Len() >= a.cfg.Writer.BatchRows ||
			(a.cfg.Writer.BatchBytes > 0 && int64(rb.ByteLength()) >= a.cfg.Writer.BatchBytes) {
			if err := flush(); err != nil {
				out.Close()
				return err
			}
		}
	}
	if err := flush(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	a.log.Info("generated batches",
		zap.String("format", format),
		zap.Int("rows", rows),
		zap.Int("batches", batches),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func newCatCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "cat FILE",
		Short: "Print rows as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openInput(cmd.Context(), args[0], cmd.InOrStdin(), a.cfg.ReaderConfig())
			if err != nil {
				return err
			}
			defer r.Close()

			lw := json.NewLineWriter(cmd.OutOrStdout())
			n := 0
			for r.NextContext(cmd.Context()) {
				rec := r.Record()
				for i := 0; i < rec.NumRows(); i++ {
					if limit > 0 && n >= limit {
						return lw.Flush()
					}
					if err := lw.Write(rec.Row(i)); err != nil {
						return colerrors.Wrap(err, colerrors.ErrorTypeIO, "encode row")
					}
					n++
				}
			}
			if err := r.Err(); err != nil {
				return err
			}
			return lw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many rows (0 = all)")
	return cmd
}

func newConvertCmd(a *app) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Convert between the IPC stream and file formats",
		Long: `Read IN in either format and write every batch to OUT in the format given
by --to. Dictionaries are re-encoded and compression follows the writer
settings, so convert also recompresses.

Example:
  colwire convert --to file --compression zstd events.stream events.arrow`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(to); err != nil {
				return err
			}
			ctx := cmd.Context()
			r, err := openInput(ctx, args[0], cmd.InOrStdin(), a.cfg.ReaderConfig())
			if err != nil {
				return err
			}
			defer r.Close()

			// a stream yields its schema with the first batch
			var out *output
			batches := 0
			for r.NextContext(ctx) {
				if out == nil {
					if out, err = createOutput(args[1], to, cmd.OutOrStdout(), r.Schema(), a.cfg.WriterConfig()); err != nil {
						return err
					}
				}
				if err := out.w.WriteContext(ctx, r.Record()); err != nil {
					out.Close()
					return err
				}
				batches++
			}
			if err := r.Err(); err != nil {
				if out != nil {
					out.Close()
				}
				return err
			}
			if out == nil {
				schema := r.Schema()
				if schema == nil {
					return colerrors.New(colerrors.ErrorTypeInvalid, "input is empty")
				}
				if out, err = createOutput(args[1], to, cmd.OutOrStdout(), schema, a.cfg.WriterConfig()); err != nil {
					return err
				}
			}
			if err := out.Close(); err != nil {
				return err
			}
			a.log.Info("converted", zap.String("to", to), zap.Int("batches", batches))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", formatFile, "Output format (stream, file)")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the schema, dictionaries and block layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openInput(cmd.Context(), args[0], cmd.InOrStdin(), a.cfg.ReaderConfig())
			if err != nil {
				return err
			}
			defer r.Close()

			w := cmd.OutOrStdout()
			if fr, ok := r.(*ipc.FileReader); ok {
				return inspectFile(w, fr)
			}
			return inspectStream(cmd.Context(), w, r)
		},
	}
}

func printSchema(w io.Writer, schema *datatype.Schema) {
	fmt.Fprint(w, schema)
	if md := schema.Metadata(); md.Len() > 0 {
		fmt.Fprintln(w, "metadata:")
		for i, k := range md.Keys {
			fmt.Fprintf(w, "  %s = %s\n", k, md.Values[i])
		}
	}
	dicts := schema.Dictionaries()
	if len(dicts) == 0 {
		return
	}
	fmt.Fprintln(w, "dictionaries:")
	for _, d := range dicts {
		path := make([]string, len(d.Path))
		for i, p := range d.Path {
			path[i] = fmt.Sprint(p)
		}
		fmt.Fprintf(w, "  id=%d path=[%s] values=%s\n", d.ID, strings.Join(path, " "), d.Type.Value)
	}
}

func inspectFile(w io.Writer, fr *ipc.FileReader) error {
	fmt.Fprintf(w, "format: file (metadata %s)\n", fr.Version())
	printSchema(w, fr.Schema())
	for i := 0; i < fr.NumDictionaries(); i++ {
		b, err := fr.DictionaryBlock(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "dictionary block %d: offset=%d metadata=%d body=%d\n", i, b.Offset, b.MetaDataLength, b.BodyLength)
	}
	rows := 0
	for i := 0; i < fr.NumRecords(); i++ {
		b, err := fr.RecordBlock(i)
		if err != nil {
			return err
		}
		rec, err := fr.ReadRecordBatch(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "record block %d: offset=%d metadata=%d body=%d rows=%d\n", i, b.Offset, b.MetaDataLength, b.BodyLength, rec.NumRows())
		rows += rec.NumRows()
		rec.Release()
	}
	fmt.Fprintf(w, "total: %d batches, %d rows\n", fr.NumRecords(), rows)
	return nil
}

func inspectStream(ctx context.Context, w io.Writer, r ipc.RecordReader) error {
	batches, rows := 0, 0
	for r.NextContext(ctx) {
		batches++
		rows += r.Record().NumRows()
	}
	if err := r.Err(); err != nil {
		return err
	}
	fmt.Fprintln(w, "format: stream")
	if schema := r.Schema(); schema != nil {
		printSchema(w, schema)
	}
	fmt.Fprintf(w, "total: %d batches, %d rows\n", batches, rows)
	return nil
}
