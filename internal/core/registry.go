package core

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/JonMunkholm/bookfund/internal/importer"
	"github.com/JonMunkholm/bookfund/internal/schema"
)

// ImportParams carries the out-of-band inputs of one import.
type ImportParams struct {
	FileName     string
	BuildingCode string
	AcademicYear int
}

// RunFunc executes one import kind.
type RunFunc func(ctx context.Context, im *importer.Importer, src io.Reader, p ImportParams) (*importer.Result, error)

// ImportKind describes an import entry point.
type ImportKind struct {
	Key           importer.Kind  `json:"key"`
	Label         string         `json:"label"`
	Group         string         `json:"group"`
	NeedsBuilding bool           `json:"needs_building"`
	NeedsYear     bool           `json:"needs_year"`
	Template      *schema.Layout `json:"-"`
	Run           RunFunc        `json:"-"`
}

// HasTemplate reports whether a blank workbook is offered for the kind.
func (k ImportKind) HasTemplate() bool {
	return k.Template != nil
}

var (
	registry   = make(map[importer.Kind]ImportKind)
	registryMu sync.RWMutex
)

// Register adds an import kind. Panics on a duplicate key.
func Register(k ImportKind) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[k.Key]; exists {
		panic(fmt.Sprintf("import kind already registered: %s", k.Key))
	}
	registry[k.Key] = k
}

// Get returns the import kind for key.
func Get(key importer.Kind) (ImportKind, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	k, ok := registry[key]
	return k, ok
}

// All returns every kind ordered by group, then key.
func All() []ImportKind {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]ImportKind, 0, len(registry))
	for _, k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ByGroup returns the kinds of one group ordered by key.
func ByGroup(group string) []ImportKind {
	var out []ImportKind
	for _, k := range All() {
		if k.Group == group {
			out = append(out, k)
		}
	}
	return out
}

// Groups returns the distinct group names in order.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, k := range registry {
		seen[k.Group] = true
	}
	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// KindCount returns the number of registered kinds.
func KindCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
