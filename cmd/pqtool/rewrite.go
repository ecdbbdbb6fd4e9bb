package main

import (
	"bufio"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/VanDung-dev/parquet-core/arrow"
	"github.com/VanDung-dev/parquet-core/engine"
	"github.com/VanDung-dev/parquet-core/schema"
)

type writeFlags struct {
	compression string
	batchSize   int
	budget      int64
	noDict      bool
}

func (f *writeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.compression, "compression", "snappy", "codec[:level] for the output file")
	cmd.Flags().IntVar(&f.batchSize, "row-group-size", 0, "rows per row group (0 uses the default policy)")
	cmd.Flags().Int64Var(&f.budget, "memory-budget", 0, "size row groups adaptively to stay under this many buffered bytes")
	cmd.Flags().BoolVar(&f.noDict, "no-dictionary", false, "disable dictionary encoding")
}

func (f *writeFlags) properties(e *env) (engine.WriterProperties, error) {
	props := engine.DefaultWriterProperties()
	c, err := engine.ParseCompression(f.compression)
	if err != nil {
		return props, err
	}
	props.Compression = c
	props.BatchSize = f.batchSize
	if f.budget > 0 {
		props.BatchPolicy = engine.NewAdaptivePolicy(f.budget)
	}
	props.Dictionary = !f.noDict
	props.Logger = e.log
	props.Metrics = e.metrics
	return props, nil
}

// createParquet opens path for writing and returns a writer plus a function
// that finishes the writer and the file together.
func createParquet(path string, s *schema.Schema, props engine.WriterProperties) (*engine.Writer, func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create %s", path)
	}
	w, err := engine.NewWriterWithProperties(engine.NewSink(f), s, props)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	finish := func() error {
		return errors.CombineErrors(w.Close(), f.Close())
	}
	return w, finish, nil
}

func newConvertCmd(e *env) *cobra.Command {
	var (
		wf      writeFlags
		columns []string
	)
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "rewrite a file with other writer settings",
		Long: `
  Reads every row of <in> and writes it to <out>, optionally keeping only the
  named top level columns. Compression, row group size and dictionary encoding
  of the output are set by flags.
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := wf.properties(e)
			if err != nil {
				return err
			}
			r, err := e.openReader(args[0])
			if err != nil {
				return err
			}
			defer r.Close()
			md, err := r.Metadata()
			if err != nil {
				return err
			}
			out := md.Schema
			var it *engine.BatchIterator
			if cmd.Flags().Changed("columns") {
				if out, _, err = md.Schema.Project(columns); err != nil {
					return err
				}
				it = r.ReadColumnsWithProjection(columns, 0)
			} else {
				it = r.ReadColumns(0)
			}
			defer it.Close()

			w, finish, err := createParquet(args[1], out, props)
			if err != nil {
				return err
			}
			for b, err := range it.All() {
				if err == nil {
					err = w.WriteColumns(b.Columns)
				}
				if err != nil {
					return errors.CombineErrors(err, finish())
				}
			}
			if err := finish(); err != nil {
				return err
			}
			e.log.Info("converted",
				zap.String("from", args[0]),
				zap.String("to", args[1]),
				zap.Int64("rows", w.NumRows()),
				zap.Int("row_groups", w.NumRowGroups()))
			return nil
		},
	}
	wf.register(cmd)
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "only keep these columns")
	return cmd
}

func newExportCmd(e *env) *cobra.Command {
	var (
		compression string
		batch       int
	)
	cmd := &cobra.Command{
		Use:   "export <in.parquet> <out.arrows>",
		Short: "write a file as an Arrow IPC stream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.openReader(args[0])
			if err != nil {
				return err
			}
			defer r.Close()
			md, err := r.Metadata()
			if err != nil {
				return err
			}
			f, err := os.Create(args[1])
			if err != nil {
				return errors.Wrapf(err, "failed to create %s", args[1])
			}
			defer f.Close()
			out := bufio.NewWriter(f)
			sw, err := arrow.NewStreamWriter(out, md.Schema, arrow.Options{Compression: arrow.Compression(compression)})
			if err != nil {
				return err
			}
			batches := 0
			for b, err := range r.ReadColumns(batch).All() {
				if err == nil {
					err = sw.WriteBatch(b.Columns)
				}
				if err != nil {
					return errors.CombineErrors(err, sw.Close())
				}
				batches++
			}
			if err := sw.Close(); err != nil {
				return err
			}
			if err := out.Flush(); err != nil {
				return errors.Wrapf(err, "failed to write %s", args[1])
			}
			e.log.Info("exported", zap.String("to", args[1]), zap.Int("batches", batches))
			return f.Close()
		},
	}
	cmd.Flags().StringVar(&compression, "compression", "", "IPC body compression (lz4 or zstd)")
	cmd.Flags().IntVar(&batch, "batch-size", 0, "rows per record batch")
	return cmd
}

func newImportCmd(e *env) *cobra.Command {
	var wf writeFlags
	cmd := &cobra.Command{
		Use:   "import <in.arrows> <out.parquet>",
		Short: "write an Arrow IPC stream as a Parquet file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := wf.properties(e)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrapf(err, "failed to open %s", args[0])
			}
			defer f.Close()
			sr, err := arrow.NewStreamReader(bufio.NewReader(f), arrow.Options{})
			if err != nil {
				return err
			}
			defer sr.Close()

			w, finish, err := createParquet(args[1], sr.Schema(), props)
			if err != nil {
				return err
			}
			for sr.Next() {
				if err := w.WriteColumns(sr.Batch()); err != nil {
					return errors.CombineErrors(err, finish())
				}
			}
			if err := sr.Err(); err != nil {
				return errors.CombineErrors(err, finish())
			}
			return finish()
		},
	}
	wf.register(cmd)
	return cmd
}

