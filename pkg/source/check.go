package source

import (
	"context"
	"sort"

	"github.com/mattsolo1/grove-faulttree/pkg/tree"
)

// Reference is a folder pointing at a collection that does not exist.
type Reference struct {
	From   string // collection holding the folder
	Title  string
	Source string
}

// DatasetReport summarizes a dataset check.
type DatasetReport struct {
	Collections int
	Nodes       int
	Invalid     map[string]error
	Dangling    []Reference
}

// OK reports whether the check found no problems.
func (r *DatasetReport) OK() bool {
	return len(r.Invalid) == 0 && len(r.Dangling) == 0
}

// CheckDataset decodes every collection under fs and verifies that each folder source
// reference names one of them.
func CheckDataset(ctx context.Context, fs *FileSource) (*DatasetReport, error) {
	ids, err := fs.Collections()
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	report := &DatasetReport{Invalid: make(map[string]error)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		descs, err := fs.Fetch(ctx, id)
		if err != nil {
			report.Invalid[id] = err
			continue
		}
		report.Collections++
		report.Nodes += countNodes(descs)
		walkDescriptors(descs, func(d *tree.Descriptor) {
			if d.Source != "" && !known[ResolveName(d.Source)] {
				report.Dangling = append(report.Dangling, Reference{From: id, Title: d.Title, Source: d.Source})
			}
		})
	}
	sort.Slice(report.Dangling, func(i, j int) bool {
		if report.Dangling[i].From != report.Dangling[j].From {
			return report.Dangling[i].From < report.Dangling[j].From
		}
		return report.Dangling[i].Source < report.Dangling[j].Source
	})
	return report, nil
}

func walkDescriptors(descs []*tree.Descriptor, fn func(*tree.Descriptor)) {
	for _, d := range descs {
		fn(d)
		walkDescriptors(d.Children, fn)
	}
}
