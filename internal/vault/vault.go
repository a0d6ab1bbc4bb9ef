package vault

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"facevault/internal/config"
	"facevault/internal/fileutil"
	"facevault/internal/logging"
	"facevault/internal/services"
	"facevault/internal/session"
)

// Entry describes one stored file.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Vault is the file store rooted at the configured vault directory. Each
// user owns a private subdirectory named after them.
type Vault struct {
	root   string
	logger *slog.Logger
}

// Open returns a vault over the configured vault directory.
func Open(cfg *config.Config, logger *slog.Logger) *Vault {
	return &Vault{
		root:   cfg.Paths.VaultDir,
		logger: logging.NewComponentLogger(logger, "vault"),
	}
}

// List returns the grant holder's files ordered by name.
func (v *Vault) List(grant *session.Grant) ([]Entry, error) {
	dir, err := v.userDir(grant)
	if err != nil {
		return nil, err
	}
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrPersistence, "vault", "list", "", err)
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		info, err := item.Info()
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, "vault", "list", "", err)
		}
		entries = append(entries, Entry{Name: item.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Put copies src into the vault under its base name. An existing file is
// only replaced when overwrite is set.
func (v *Vault) Put(grant *session.Grant, src string, overwrite bool) (Entry, error) {
	dir, err := v.userDir(grant)
	if err != nil {
		return Entry{}, err
	}
	name := filepath.Base(src)
	if err := checkName(name); err != nil {
		return Entry{}, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Entry{}, services.Wrap(services.ErrPersistence, "vault", "create user directory", "", err)
	}

	dst := filepath.Join(dir, name)
	if !overwrite {
		if _, err := os.Stat(dst); err == nil {
			return Entry{}, services.Wrap(services.ErrInvalidInput, "vault", "put",
				fmt.Sprintf("%s already exists in the vault", name), nil)
		}
	}
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return Entry{}, services.Wrap(services.ErrPersistence, "vault", "put", "", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return Entry{}, services.Wrap(services.ErrPersistence, "vault", "put", "", err)
	}
	v.logger.Info("file stored",
		logging.String(logging.FieldUsername, grant.Username),
		logging.String("file", name),
		logging.Int("bytes", int(info.Size())))
	return Entry{Name: name, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Get copies the named vault file to dst. When dst is a directory the file
// keeps its name inside it.
func (v *Vault) Get(grant *session.Grant, name, dst string) (string, error) {
	dir, err := v.userDir(grant)
	if err != nil {
		return "", err
	}
	if err := checkName(name); err != nil {
		return "", err
	}

	src := filepath.Join(dir, name)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", services.Wrap(services.ErrInvalidInput, "vault", "get",
				fmt.Sprintf("%s is not in the vault", name), nil)
		}
		return "", services.Wrap(services.ErrPersistence, "vault", "get", "", err)
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, name)
	}
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return "", services.Wrap(services.ErrPersistence, "vault", "get", "", err)
	}
	return dst, nil
}

// Delete removes the named file from the vault.
func (v *Vault) Delete(grant *session.Grant, name string) error {
	dir, err := v.userDir(grant)
	if err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}

	path := filepath.Join(dir, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrInvalidInput, "vault", "delete",
				fmt.Sprintf("%s is not in the vault", name), nil)
		}
		return services.Wrap(services.ErrPersistence, "vault", "delete", "", err)
	}
	v.logger.Info("file removed",
		logging.String(logging.FieldUsername, grant.Username),
		logging.String("file", name))
	return nil
}

// RemoveUserFiles deletes a user's whole vault directory. It is used when
// the user's templates are removed and takes a username instead of a grant.
func (v *Vault) RemoveUserFiles(username string) error {
	if username == "" || username != filepath.Base(username) {
		return services.Wrap(services.ErrInvalidInput, "vault", "remove user files",
			"invalid username", nil)
	}
	if err := os.RemoveAll(filepath.Join(v.root, username)); err != nil {
		return services.Wrap(services.ErrPersistence, "vault", "remove user files", "", err)
	}
	return nil
}

func (v *Vault) userDir(grant *session.Grant) (string, error) {
	if grant == nil || !grant.Active() {
		return "", services.Wrap(services.ErrInvalidInput, "vault", "access",
			"no active session grant", nil)
	}
	if grant.Username == "" || grant.Username != filepath.Base(grant.Username) {
		return "", services.Wrap(services.ErrInvalidInput, "vault", "access",
			"invalid grant username", nil)
	}
	return filepath.Join(v.root, grant.Username), nil
}

// checkName rejects anything other than a bare file name so callers cannot
// reach outside the user's directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsRune(name, os.PathSeparator) || name != filepath.Base(name) {
		return services.Wrap(services.ErrInvalidInput, "vault", "check name",
			fmt.Sprintf("%q is not a bare file name", name), nil)
	}
	return nil
}
