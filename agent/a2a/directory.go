package a2a

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

type Descriptor struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Capabilities []string       `json:"capabilities"`
	Address      string         `json:"address,omitempty"`
	RegisteredAt time.Time      `json:"registered_at"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (d Descriptor) HasCapability(tag string) bool {
	return slices.Contains(d.Capabilities, tag)
}

type RegisterOption func(*Descriptor)

func WithAddress(address string) RegisterOption {
	return func(d *Descriptor) {
		d.Address = strings.TrimSpace(address)
	}
}

func WithDescriptorMetadata(md map[string]any) RegisterOption {
	return func(d *Descriptor) {
		d.Metadata = maps.Clone(md)
	}
}

// Directory maps agent names to descriptors. Registering an existing name
// replaces its descriptor in place.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]Descriptor
	order   []string
	now     func() time.Time
	logger  zerolog.Logger
}

func NewDirectory() *Directory {
	return &Directory{
		entries: make(map[string]Descriptor),
		now:     time.Now,
		logger:  logx.Component("a2a.directory"),
	}
}

func (d *Directory) Register(name, description string, capabilities []string, opts ...RegisterOption) Descriptor {
	desc := Descriptor{
		Name:         name,
		Description:  description,
		Capabilities: uniqueOrdered(capabilities),
		RegisteredAt: d.now().UTC(),
	}
	for _, opt := range opts {
		opt(&desc)
	}

	d.mu.Lock()
	_, replaced := d.entries[name]
	if !replaced {
		d.order = append(d.order, name)
	}
	d.entries[name] = desc
	d.mu.Unlock()

	d.logger.Info().
		Str("agent", name).
		Strs("capabilities", desc.Capabilities).
		Bool("replaced", replaced).
		Msg("agent registered")
	return cloneDescriptor(desc)
}

func (d *Directory) Unregister(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.entries[name]; !ok {
		return false
	}
	delete(d.entries, name)
	d.order = slices.DeleteFunc(d.order, func(n string) bool { return n == name })
	return true
}

func (d *Directory) Get(name string) (Descriptor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	desc, ok := d.entries[name]
	if !ok {
		return Descriptor{}, false
	}
	return cloneDescriptor(desc), true
}

// List returns descriptors in first-registration order.
func (d *Directory) List() []Descriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Descriptor, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, cloneDescriptor(d.entries[name]))
	}
	return out
}

func (d *Directory) FindByCapability(tag string) []Descriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Descriptor
	for _, name := range d.order {
		if desc := d.entries[name]; desc.HasCapability(tag) {
			out = append(out, cloneDescriptor(desc))
		}
	}
	return out
}

func (d *Directory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.order...)
}

func uniqueOrdered(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func cloneDescriptor(d Descriptor) Descriptor {
	d.Capabilities = slices.Clone(d.Capabilities)
	d.Metadata = maps.Clone(d.Metadata)
	return d
}
