package main

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer, header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(header)
	return tw
}

func orDash[T any](v *T, format func(T) string) string {
	if v == nil {
		return "-"
	}
	return format(*v)
}

func itoa(v int) string { return strconv.Itoa(v) }
