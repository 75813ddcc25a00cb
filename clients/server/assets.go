// assets.go — Uploaded asset bookkeeping over an in-memory source.
package server

import (
	"context"
	"io"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/xob0t/CoverStencil/pkg/assets"
	"github.com/xob0t/CoverStencil/pkg/overlay"
)

type assetInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mime string `json:"mime"`
	Size int    `json:"size"`
	Role string `json:"role,omitempty"`
	URL  string `json:"url"`
}

// assetManager keeps upload metadata; the bytes live in a MemorySource that
// is also the first source of the logo chain. A role alias always holds the
// newest remaining upload of that role.
type assetManager struct {
	mu     sync.RWMutex
	infos  map[string]assetInfo
	owners map[string][]string // role -> asset ids, oldest first
	memory *assets.MemorySource
}

func newAssetManager(memory *assets.MemorySource) *assetManager {
	return &assetManager{
		infos:  make(map[string]assetInfo),
		owners: make(map[string][]string),
		memory: memory,
	}
}

// roleNames maps an upload role to the chain name it is also stored under.
var roleNames = map[string]string{
	"logo-circle":     assets.DefaultCandidates[overlay.LogoCircle][0],
	"logo-horizontal": assets.DefaultCandidates[overlay.LogoHorizontal][0],
}

func (am *assetManager) add(name, mimeType, role string, data []byte) assetInfo {
	id := uuid.NewString()
	info := assetInfo{ID: id, Name: name, Mime: mimeType, Size: len(data), Role: role, URL: "/api/assets/" + id}

	am.mu.Lock()
	defer am.mu.Unlock()
	am.infos[id] = info
	am.memory.Put(id, data)
	if alias, ok := roleNames[role]; ok {
		am.owners[role] = append(am.owners[role], id)
		am.memory.Put(alias, data)
	}
	return info
}

func (am *assetManager) get(id string) (assetInfo, bool) {
	am.mu.RLock()
	defer am.mu.RUnlock()
	info, ok := am.infos[id]
	return info, ok
}

func (am *assetManager) open(ctx context.Context, id string) (io.ReadCloser, error) {
	return am.memory.Open(ctx, id)
}

func (am *assetManager) list() []assetInfo {
	am.mu.RLock()
	defer am.mu.RUnlock()
	out := make([]assetInfo, 0, len(am.infos))
	for _, info := range am.infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// remove deletes the asset. If it owned its role alias, the alias moves to
// the newest remaining upload of the role, or goes away with the last one.
func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	info, ok := am.infos[id]
	if !ok {
		return false
	}
	delete(am.infos, id)
	am.memory.Delete(id)

	alias, ok := roleNames[info.Role]
	if !ok {
		return true
	}
	ids := am.owners[info.Role]
	owner := len(ids) > 0 && ids[len(ids)-1] == id
	ids = slices.DeleteFunc(ids, func(v string) bool { return v == id })
	am.owners[info.Role] = ids
	if !owner {
		return true
	}
	if len(ids) == 0 {
		am.memory.Delete(alias)
		return true
	}
	if data, ok := am.memory.Get(ids[len(ids)-1]); ok {
		am.memory.Put(alias, data)
	}
	return true
}
