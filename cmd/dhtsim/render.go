package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rfratto/dht"
)

// maxListedKeys is the largest number of keys printed for a single row.
// Longer key lists are summarized.
const maxListedKeys = 32

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func writeRecords(w io.Writer, records []dht.Relocation) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no keys moved")
		return
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "KIND\tSOURCE\tDESTINATION\tKEYS")
	for _, rec := range records {
		kind := "primary"
		if rec.Replica {
			kind = "replica"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", kind, rec.Source, rec.Destination, formatKeys(rec.Keys))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "%d primary keys moved\n", dht.MovedKeys(records))
}

func writeReport(w io.Writer, rep report) {
	for _, weight := range rep.weights {
		fmt.Fprintln(w, weight)
	}
	writeRecords(w, rep.records)
}

func writeNodes(w io.Writer, b *backend, nodes []dht.NodeInfo, detail bool) {
	columns := b.columns
	if detail {
		columns = append(columns[:len(columns):len(columns)], "KEYS")
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, n := range nodes {
		row := b.row(n)
		if detail {
			row = append(row, formatKeys(append(append([]int(nil), n.Keys...), n.Replicas...)))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "%d nodes, checksum %08x\n", len(nodes), dht.Checksum(nodes))
}

// formatKeys prints keys separated by spaces, or only their count when
// there are too many to list.
func formatKeys(keys []int) string {
	if len(keys) > maxListedKeys {
		return fmt.Sprintf("(%d keys)", len(keys))
	}
	ss := make([]string, len(keys))
	for i, k := range keys {
		ss[i] = strconv.Itoa(k)
	}
	return strings.Join(ss, " ")
}
