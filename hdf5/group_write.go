package hdf5

import (
	"fmt"
	"path"
	"sort"

	"github.com/robert-malhotra/go-mth5/internal/message"
	"github.com/robert-malhotra/go-mth5/internal/object"
)

// pendingLink represents a link to be written to the parent group.
type pendingLink struct {
	link *message.Link
}

// CreateGroup creates a new subgroup with the given name.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if !g.file.writable {
		return nil, fmt.Errorf("file is not writable")
	}

	if name == "" {
		return nil, fmt.Errorf("group name cannot be empty")
	}

	// Reject duplicate child names. The pending link list covers both links
	// loaded from disk and links added this session.
	if g.pendingLinks == nil {
		if err := g.loadExistingLinks(); err != nil {
			return nil, fmt.Errorf("loading existing links: %w", err)
		}
	}
	for _, link := range g.pendingLinks {
		if link.Name == name {
			return nil, fmt.Errorf("creating group %q: %w", name, ErrExists)
		}
	}

	// Calculate the path for the new group
	newPath := path.Join(g.path, name)
	if g.path == "/" {
		newPath = "/" + name
	}

	// Create an empty group object header
	groupMessages := object.NewEmptyGroupHeader()

	// Calculate header size and allocate space
	headerSize := object.HeaderSize(g.file.writer, groupMessages)
	groupAddr := g.file.allocate(int64(headerSize))

	// Write the group object header
	w := g.file.writer.At(int64(groupAddr))
	if _, err := object.WriteHeader(w, groupMessages); err != nil {
		return nil, fmt.Errorf("writing group header: %w", err)
	}

	// Create a hard link from parent to this group
	link := message.NewHardLink(name, groupAddr)

	// Add the link to the parent group
	if err := g.addLink(link); err != nil {
		return nil, fmt.Errorf("adding link to parent: %w", err)
	}

	// Create the Group object
	newGroup := &Group{
		file:         g.file,
		path:         newPath,
		header:       nil, // Will be loaded on demand if needed
		addr:         groupAddr,
		parent:       g,
		pendingLinks: nil,
	}

	return newGroup, nil
}

// addLink adds a link message to this group.
// For writable files, this updates the group's object header.
func (g *Group) addLink(link *message.Link) error {
	if !g.file.writable {
		return fmt.Errorf("file is not writable")
	}

	// If pendingLinks is nil, we need to load existing links from the header
	if g.pendingLinks == nil {
		if err := g.loadExistingLinks(); err != nil {
			return fmt.Errorf("loading existing links: %w", err)
		}
	}

	g.pendingLinks = append(g.pendingLinks, link)

	// Rewrite the group's object header with the new link
	return g.rewriteHeader()
}

// loadExistingLinks loads existing link messages from the group's object header.
func (g *Group) loadExistingLinks() error {
	g.pendingLinks = make([]*message.Link, 0)

	// If we don't have a header loaded, try to load it
	if g.header == nil && g.file.reader != nil {
		header, err := object.Read(g.file.reader, g.addr)
		if err != nil {
			// If we can't read the header, start fresh (this is OK for new groups)
			return nil
		}
		g.header = header
	}

	// If we have a header, extract existing link messages
	if g.header != nil {
		linkMsgs := g.header.GetMessages(message.TypeLink)
		for _, msg := range linkMsgs {
			if linkMsg, ok := msg.(*message.Link); ok {
				g.pendingLinks = append(g.pendingLinks, linkMsg)
			}
		}
	}

	return nil
}

// SetAttr writes an attribute on this group, replacing any existing attribute
// with the same name. The value can be a scalar or slice of: int, int8-64,
// uint, uint8-64, float32, float64, string.
func (g *Group) SetAttr(name string, value interface{}) error {
	return g.setAttrs([]attrDef{{name: name, value: value}})
}

// SetAttrs writes a set of attributes on this group in a single header
// rewrite. Keys are applied in sorted order so headers are deterministic.
func (g *Group) SetAttrs(attrs map[string]interface{}) error {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]attrDef, 0, len(names))
	for _, name := range names {
		defs = append(defs, attrDef{name: name, value: attrs[name]})
	}
	return g.setAttrs(defs)
}

func (g *Group) setAttrs(defs []attrDef) error {
	if !g.file.writable {
		return fmt.Errorf("file is not writable")
	}

	if g.pendingLinks == nil {
		if err := g.loadExistingLinks(); err != nil {
			return fmt.Errorf("loading existing links: %w", err)
		}
	}
	if g.pendingAttrs == nil {
		g.loadExistingAttrs()
	}

	for _, def := range defs {
		if def.name == "" {
			return fmt.Errorf("attribute name cannot be empty")
		}
		msg, err := createAttributeMessage(def.name, def.value)
		if err != nil {
			return fmt.Errorf("creating attribute %q: %w", def.name, err)
		}

		replaced := false
		for i, attr := range g.pendingAttrs {
			if attr.Name == def.name {
				g.pendingAttrs[i] = msg
				replaced = true
				break
			}
		}
		if !replaced {
			g.pendingAttrs = append(g.pendingAttrs, msg)
		}
	}

	return g.rewriteHeader()
}

// loadExistingAttrs loads existing attribute messages from the group's object header.
func (g *Group) loadExistingAttrs() {
	g.pendingAttrs = make([]*message.Attribute, 0)

	if g.header == nil && g.file.reader != nil {
		header, err := object.Read(g.file.reader, g.addr)
		if err == nil {
			g.header = header
		}
	}

	if g.header != nil {
		for _, msg := range g.header.GetMessages(message.TypeAttribute) {
			if attrMsg, ok := msg.(*message.Attribute); ok {
				g.pendingAttrs = append(g.pendingAttrs, attrMsg)
			}
		}
	}
}

// rewriteHeader rewrites the group's object header with all pending links
// and attributes.
func (g *Group) rewriteHeader() error {
	// Attributes loaded from disk must survive a link-only rewrite.
	if g.pendingAttrs == nil {
		g.loadExistingAttrs()
	}

	// Create group header with LinkInfo, all links, then attributes
	messages := object.NewGroupHeader(g.pendingLinks)
	for _, attr := range g.pendingAttrs {
		messages = append(messages, attr)
	}

	// Calculate new header size with minimum chunk size for h5py compatibility
	headerSize := object.HeaderSizeWithMinChunk(g.file.writer, messages, object.MinGroupChunkSize)

	// Allocate new space (we can't resize in place, so allocate new)
	newAddr := g.file.allocate(int64(headerSize))

	// Write the new header
	w := g.file.writer.At(int64(newAddr))
	if _, err := object.WriteHeaderWithMinChunk(w, messages, object.MinGroupChunkSize); err != nil {
		return err
	}

	// Update our address
	oldAddr := g.addr
	g.addr = newAddr

	// If this is the root group, update the superblock
	if g.path == "/" {
		g.file.superblock.RootGroupAddress = newAddr
	} else {
		// Update parent's link to point to new address
		if err := g.updateParentLink(oldAddr, newAddr); err != nil {
			return err
		}
	}

	return nil
}

// updateParentLink updates the parent group's link to point to the new address.
func (g *Group) updateParentLink(oldAddr, newAddr uint64) error {
	// Get the name of this group
	name := path.Base(g.path)

	// Find parent in our hierarchy
	parent := g.findParent()
	if parent == nil {
		return nil // Root group, no parent
	}

	// The parent's link list must be loaded before it can be patched,
	// otherwise rewriting its header would drop the sibling links.
	if parent.pendingLinks == nil {
		if err := parent.loadExistingLinks(); err != nil {
			return fmt.Errorf("loading parent links: %w", err)
		}
	}

	// Update the link in parent's pending links
	for _, link := range parent.pendingLinks {
		if link.Name == name {
			link.ObjectAddress = newAddr
			break
		}
	}

	// Rewrite parent's header; this recurses up to the root so the whole
	// chain of relocated headers stays linked.
	return parent.rewriteHeader()
}

// findParent finds the parent group in the file's group hierarchy.
// Groups opened or created through the public API carry a parent pointer;
// top-level groups fall back to the root group.
func (g *Group) findParent() *Group {
	if g.path == "/" {
		return nil
	}

	if g.parent != nil {
		return g.parent
	}

	parentPath := path.Dir(g.path)
	if parentPath == "" || parentPath == "." {
		parentPath = "/"
	}

	if parentPath == "/" {
		return g.file.root
	}

	return nil
}
