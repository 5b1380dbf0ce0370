// Package manager implements C11: the per-process (non-global)
// registry of folder types and already-open folders described by
// spec.md §4.10, tying the mbox/mh/maildir backends and the thread
// builder together behind one open/close/append/copy/move surface.
package manager

import (
	"path/filepath"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/folder"
	"github.com/markov2/go-mailbox/log"
	"github.com/markov2/go-mailbox/maildir"
	"github.com/markov2/go-mailbox/mbox"
	"github.com/markov2/go-mailbox/message"
	"github.com/markov2/go-mailbox/mh"
	"github.com/markov2/go-mailbox/thread"
)

// FolderType is one entry in a Manager's backend list: a name, a way
// to recognise a path as belonging to it, a way to open it, and the
// default Options a caller's opts are layered on top of.
type FolderType struct {
	Name        string
	Detect      func(path string) bool
	Open        func(path string, opts folder.Options) (folder.Folder, error)
	AppendDirect func(path string, msgs []*message.Message, create bool) error
	DefaultOpts folder.Options
}

// Manager is the non-global home for folder type registration and the
// set of currently open folders, per spec.md §4.10's Design Notes:
// a Manager field, not a package-level registry, since a process may
// run several Managers over disjoint folder trees (spec.md §5).
type Manager struct {
	folderTypes []FolderType
	openFolders map[string]folder.Folder

	defaultFolderType string
	folderDirs        []string

	threads map[string]*thread.Thread

	Journal *log.Journal
}

// New returns a Manager with the built-in mbox/mh/maildir types
// registered in detection order (mbox's single-file signature and
// MH's flat numeric-file signature are both checked before maildir's
// three-subdirectory requirement, which is the most specific test and
// so least likely to misfire on an unrelated directory).
func New(folderDirs []string, defaultFolderType string) *Manager {
	m := &Manager{
		openFolders:       make(map[string]folder.Folder),
		defaultFolderType: defaultFolderType,
		folderDirs:        append([]string(nil), folderDirs...),
		threads:           make(map[string]*thread.Thread),
		Journal:           log.NewJournal(log.DefaultLogger),
	}
	m.folderTypes = []FolderType{
		{
			Name:   "mbox",
			Detect: mbox.Detect,
			Open: func(path string, opts folder.Options) (folder.Folder, error) {
				return mbox.Open(path, opts)
			},
			AppendDirect: func(path string, msgs []*message.Message, create bool) error {
				return mbox.AppendDirect(path, msgs, create)
			},
		},
		{
			Name:   "mh",
			Detect: mh.Detect,
			Open: func(path string, opts folder.Options) (folder.Folder, error) {
				return mh.Open(path, opts)
			},
			AppendDirect: mh.AppendDirect,
		},
		{
			Name:   "maildir",
			Detect: maildir.Detect,
			Open: func(path string, opts folder.Options) (folder.Folder, error) {
				return maildir.Open(path, opts)
			},
			AppendDirect: maildir.AppendDirect,
		},
	}
	return m
}

// RegisterType adds a user-defined folder type. Per spec.md §4.10,
// user-registered types take precedence over the built-ins, so ft is
// tried before every type already in the list.
func (m *Manager) RegisterType(ft FolderType) {
	m.folderTypes = append([]FolderType{ft}, m.folderTypes...)
}

func (m *Manager) typeByName(name string) *FolderType {
	for i := range m.folderTypes {
		if m.folderTypes[i].Name == name {
			return &m.folderTypes[i]
		}
	}
	return nil
}

// normalize turns opts.Path into the canonical key open_folders and
// append_message key by, resolving a leading "=name" against
// folderDirs (spec.md §4.10) and cleaning the result so two different
// spellings of the same path share one open handle.
func (m *Manager) normalize(path string) string {
	resolved := folder.ResolvePath(path, m.folderDirs)
	return filepath.Clean(resolved)
}

// Open resolves opts.Path, returning the already-open Folder if one is
// registered under the same normalised name; otherwise it detects the
// backend (trying registered types front-to-back) and constructs a new
// Folder, falling back to defaultFolderType when opts.Create is set
// and no backend recognises the path. Per spec.md §4.10's open(opts).
func (m *Manager) Open(opts folder.Options) (folder.Folder, error) {
	path := m.normalize(opts.Path)
	if f, ok := m.openFolders[path]; ok {
		return f, nil
	}

	ft := m.detect(path)
	if ft == nil {
		if !opts.Create {
			return nil, exterrors.UnknownFolderType(path)
		}
		ft = m.typeByName(m.defaultFolderType)
		if ft == nil {
			return nil, exterrors.UnknownFolderType(path)
		}
	}

	merged := mergeOpts(ft.DefaultOpts, opts)
	merged.Path = path
	f, err := ft.Open(path, merged)
	if err != nil {
		return nil, err
	}
	m.openFolders[path] = f
	return f, nil
}

func (m *Manager) detect(path string) *FolderType {
	for i := range m.folderTypes {
		if m.folderTypes[i].Detect(path) {
			return &m.folderTypes[i]
		}
	}
	return nil
}

// mergeOpts layers override (the caller's opts) on top of base (the
// FolderType's DefaultOpts): Access/Create/KeepIndex/SaveOnExit and
// FolderDir are always taken from the caller, since they carry no "unset" sentinel
// distinct from their zero value; the remaining fields fall back to
// base's default when the caller left them at zero/nil.
func mergeOpts(base, override folder.Options) folder.Options {
	out := base
	out.Access = override.Access
	out.Create = override.Create
	out.KeepIndex = override.KeepIndex
	out.SaveOnExit = override.SaveOnExit
	if override.LockType != "" {
		out.LockType = override.LockType
	}
	if override.LockSubtypes != nil {
		out.LockSubtypes = override.LockSubtypes
	}
	if override.LockTimeout != 0 {
		out.LockTimeout = override.LockTimeout
	}
	if override.LockWait != 0 {
		out.LockWait = override.LockWait
	}
	if override.Extract != nil {
		out.Extract = override.Extract
	}
	if override.FieldFilter != nil {
		out.FieldFilter = override.FieldFilter
	}
	if override.HeadType != nil {
		out.HeadType = override.HeadType
	}
	if override.BodyType != nil {
		out.BodyType = override.BodyType
	}
	out.FolderDir = override.FolderDir
	return out
}

// Close removes f from the registry and closes it, writing pending
// changes first if opts.Write is set. Any cached Thread is dropped,
// since a Thread's coverage may have included f.
func (m *Manager) Close(f folder.Folder, opts folder.CloseOptions) error {
	for path, open := range m.openFolders {
		if open == f {
			delete(m.openFolders, path)
			break
		}
	}
	m.threads = make(map[string]*thread.Thread)
	return f.Close(opts)
}

// CloseAll closes every currently open folder, writing pending changes
// first if write is set, collecting (not stopping on) the first error.
func (m *Manager) CloseAll(write bool) error {
	var firstErr error
	for path, f := range m.openFolders {
		if err := f.Close(folder.CloseOptions{Write: write, Policy: folder.Replace}); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.openFolders, path)
	}
	m.threads = make(map[string]*thread.Thread)
	return firstErr
}
