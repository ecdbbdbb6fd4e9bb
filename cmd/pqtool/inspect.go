package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/VanDung-dev/parquet-core/cache"
	"github.com/VanDung-dev/parquet-core/engine"
)

func newSchemaCmd(e *env) *cobra.Command {
	var tree bool
	cmd := &cobra.Command{
		Use:   "schema <file>",
		Short: "print the schema of a file",
		Args:  cobra.ExactArgs(1),
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
			if tree {
				fmt.Fprintln(cmd.OutOrStdout(), md.Schema.String())
				return nil
			}
			out, err := json.MarshalIndent(md.Schema, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "print an indented tree instead of JSON")
	return cmd
}

type metaOutput struct {
	NumRows   int64             `json:"num_rows"`
	CreatedBy string            `json:"created_by"`
	Version   string            `json:"version"`
	Columns   []string          `json:"columns"`
	RowGroups []rowGroupOutput  `json:"row_groups"`
	KeyValue  map[string]string `json:"key_value,omitempty"`
}

type rowGroupOutput struct {
	NumRows       int64          `json:"num_rows"`
	TotalByteSize int64          `json:"total_byte_size"`
	Columns       []columnOutput `json:"columns"`
}

type columnOutput struct {
	Path             string `json:"path"`
	Codec            string `json:"codec"`
	NumValues        int64  `json:"num_values"`
	CompressedSize   int64  `json:"compressed_size"`
	UncompressedSize int64  `json:"uncompressed_size"`
}

func newMetaCmd(e *env) *cobra.Command {
	var withKV bool
	cmd := &cobra.Command{
		Use:   "meta <file>",
		Short: "print footer metadata",
		Args:  cobra.ExactArgs(1),
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
			out := metaOutput{
				NumRows:   md.NumRows,
				CreatedBy: md.CreatedBy,
				Version:   md.Version,
				Columns:   md.Schema.FieldNames(),
			}
			if withKV {
				out.KeyValue = md.KeyValue
			}
			for _, g := range md.RowGroups {
				rg := rowGroupOutput{NumRows: g.NumRows, TotalByteSize: g.TotalByteSize}
				for _, c := range g.Columns {
					rg.Columns = append(rg.Columns, columnOutput{
						Path:             c.Path,
						Codec:            c.Codec,
						NumValues:        c.NumValues,
						CompressedSize:   c.CompressedSize,
						UncompressedSize: c.UncompressedSize,
					})
				}
				out.RowGroups = append(out.RowGroups, rg)
			}
			b, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().BoolVar(&withKV, "key-value", false, "include key/value metadata")
	return cmd
}

func newCountCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "count <file>",
		Short: "count rows without decoding any column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.openReader(args[0])
			if err != nil {
				return err
			}
			defer r.Close()
			n := 0
			for b, err := range r.ReadColumnsWithProjection(nil, 0).All() {
				if err != nil {
					return err
				}
				n += b.NumRows
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func newCatCmd(e *env) *cobra.Command {
	var (
		columns []string
		limit   int
		batch   int
	)
	cmd := &cobra.Command{
		Use:   "cat <file>",
		Short: "print rows as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := e.openReader(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			var it *engine.BatchIterator
			if cmd.Flags().Changed("columns") {
				it = r.ReadColumnsWithProjection(columns, batch)
			} else {
				it = r.ReadColumns(batch)
			}
			names := cache.NewNameCache()
			defer names.Close()

			w := cmd.OutOrStdout()
			printed := 0
			for b, err := range it.All() {
				if err != nil {
					return err
				}
				keys, err := names.AcquireAll(b.Names)
				if err != nil {
					return err
				}
				for row := 0; row < b.NumRows; row++ {
					if limit > 0 && printed >= limit {
						names.ReleaseAll(keys)
						return nil
					}
					obj := make(object, len(keys))
					for i, k := range keys {
						obj[i] = member{Key: k, Value: jsonValue(b.Columns[i][row])}
					}
					line, err := json.Marshal(obj)
					if err != nil {
						names.ReleaseAll(keys)
						return err
					}
					fmt.Fprintln(w, string(line))
					printed++
				}
				names.ReleaseAll(keys)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "only print these columns")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many rows")
	cmd.Flags().IntVar(&batch, "batch-size", 0, "rows decoded per batch")
	return cmd
}
