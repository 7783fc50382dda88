package source

import "github.com/mattsolo1/grove-faulttree/pkg/tree"

// RootID is the source id of the root collection. Source ids are paths relative to the
// dataset base, the same base folder sources are resolved against.
const RootID = "data/main.json"

// FallbackRoot returns the built-in root collection used when the root source cannot be
// loaded. A fresh slice is returned on every call.
func FallbackRoot() []*tree.Descriptor {
	folder := func(title, src string) *tree.Descriptor {
		return &tree.Descriptor{Title: title, Type: tree.TypeFolder, Source: src}
	}
	return []*tree.Descriptor{
		folder("FTA-重点关注", "data/fta-focus.json"),
		folder("原材料", "data/material-issues.json"),
		folder("工装/设备", "data/equipment-issues.json"),
		folder("设备", "data/equipment-issues.json"),
		folder("工装", "data/tooling-issues.json"),
		folder("高压阀", "data/high-pressure-valve.json"),
		folder("FailureMemory", "data/failure-memory.json"),
	}
}
