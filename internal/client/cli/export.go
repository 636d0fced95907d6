package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gokigennote/gokigen/internal/filex"
	"github.com/gokigennote/gokigen/internal/netx"
)

var downloadExport = func(ctx context.Context, url string) ([]byte, error) {
	return netx.DownloadZstd(ctx, &http.Client{}, url)
}

// Export writes entries as JSON to a file.
//
//	export <file>          entries loaded on this device
//	export remote <file>   full history from the server
func (a *App) Export(ctx context.Context, args []string) error {
	switch {
	case len(args) == 1:
		data, err := a.journal.ExportJSON()
		if err != nil {
			return err
		}
		return a.writeExport(args[0], data, len(a.journal.Entries()))

	case len(args) == 2 && args[0] == "remote":
		exp, err := a.exporter.ExportEntries(ctx)
		if err != nil {
			a.println("Export failed:", err)
			return err
		}
		data, err := downloadExport(ctx, exp.URL)
		if err != nil {
			a.println("Download failed:", err)
			return err
		}
		return a.writeExport(args[1], data, exp.Count)

	default:
		a.println("Usage: export <file> | export remote <file>")
		return errUsage
	}
}

func (a *App) writeExport(path string, data []byte, n int) error {
	if err := filex.WriteFileAtomic(path, data); err != nil {
		a.println("Could not write file:", err)
		return err
	}
	a.println(fmt.Sprintf("Exported %d entries to %s", n, path))
	return nil
}
