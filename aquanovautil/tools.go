/*
Copyright © 2026 the AquaNova authors.
This file is part of AquaNova.

AquaNova is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AquaNova is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AquaNova.  If not, see <http://www.gnu.org/licenses/>.
*/

package aquanovautil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aquanova/aquanova/catalog"
	"github.com/aquanova/aquanova/science/hrro/hrroxlsx"
	"github.com/sirupsen/logrus"
)

// ListMembranes writes one line per catalog membrane of the given
// family to w.
func ListMembranes(w io.Writer, family string) error {
	list := catalog.List(family)
	if len(list) == 0 {
		return fmt.Errorf("aquanova: no membranes in family %q", family)
	}
	fmt.Fprintf(w, "%-28s %-14s %-6s %-6s %8s %8s %8s %9s\n",
		"id", "vendor", "family", "size", "area_m2", "A", "B", "rejection")
	for _, m := range list {
		fmt.Fprintf(w, "%-28s %-14s %-6s %-6s %8.1f %8.3f %8.4f %9.4f\n",
			m.ID, m.Vendor, m.Family, m.Size, m.Area, m.A, m.B, m.Rejection)
	}
	return nil
}

var (
	loadersMu sync.Mutex
	loaders   = make(map[string]*hrroxlsx.Loader)
)

// loader returns the shared workbook loader for a cover sheet name.
func loader(sheet string) *hrroxlsx.Loader {
	loadersMu.Lock()
	defer loadersMu.Unlock()
	l, ok := loaders[sheet]
	if !ok {
		l = &hrroxlsx.Loader{Sheet: sheet}
		loaders[sheet] = l
	}
	return l
}

// CheckWorkbook compares the outputs on the cover sheet of the workbook
// at path with the HRRO baseline computed from the sheet's inputs. It
// writes the comparison to w, logs a summary to log and returns an error
// if any cell differs by more than tol.
func CheckWorkbook(ctx context.Context, w io.Writer, path, sheet string, tol float64, log logrus.FieldLogger) error {
	if path == "" {
		return fmt.Errorf("aquanova: you need to specify a workbook (for example: --workbook=ccro.xlsx)")
	}
	wb, err := loader(sheet).Load(ctx, path)
	if err != nil {
		return err
	}
	_, diffs := wb.Compare()
	bad := hrroxlsx.Mismatches(diffs, tol)
	for _, d := range diffs {
		fmt.Fprintf(w, "%-4s %-28s workbook=%-14.6g computed=%-14.6g diff=%.3g\n",
			d.Cell, d.Name, d.Workbook, d.Computed, d.Diff)
	}
	log.WithFields(logrus.Fields{
		"workbook":   path,
		"cells":      len(diffs),
		"mismatches": len(bad),
	}).Info("checked reference workbook")
	if len(bad) > 0 {
		return fmt.Errorf("aquanova: %d of %d workbook cells differ from the baseline formulas by more than %g", len(bad), len(diffs), tol)
	}
	return nil
}
