package iostore

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/mri/schema"
)

// PrintStoreStatus prints snapshot store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Snapshots: %s\n", humanize.Comma(int64(status.TotalSnapshots)))
	_, _ = fmt.Fprintf(w, "Total Repositories: %d\n", status.TotalRepos)
	if status.TotalSnapshots > 0 {
		_, _ = fmt.Fprintf(w, "Last Snapshot: %s (%s)\n",
			status.LastSnapshotTime.Format("2006-01-02 15:04:05"), humanize.Time(status.LastSnapshotTime))
		_, _ = fmt.Fprintf(w, "Oldest Snapshot: %s (%s)\n",
			status.OldestSnapshotTime.Format("2006-01-02 15:04:05"), humanize.Time(status.OldestSnapshotTime))
	}
	_, _ = fmt.Fprintf(w, "Active Leases: %d\n", status.ActiveLeases)
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		_, _ = fmt.Fprintf(w, "  %s: %s rows\n", table, humanize.Comma(status.TableSizes[table]))
	}
}
