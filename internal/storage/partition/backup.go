package partition

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// BackupPath returns where the backup of dir is kept.
func (m *Manager) BackupPath(dir string) string {
	if filepath.IsAbs(m.cfg.BackupDir) {
		return m.cfg.BackupDir
	}
	return filepath.Join(filepath.Dir(filepath.Clean(dir)), m.cfg.BackupDir)
}

// Backup copies dir to its backup location when dir holds any entries,
// replacing the previous backup. It returns the backup path, or "" when
// there was nothing to back up. On failure the previous backup and dir
// are left untouched.
func (m *Manager) Backup(dir, runID string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", domain.ErrFilesystem.WithDetailsf("read %s", dir).WithCause(err)
	}
	if !hasContent(entries) {
		return "", nil
	}

	dst := m.BackupPath(dir)
	if filepath.Clean(dst) == filepath.Clean(dir) {
		return "", domain.ErrConfiguration.WithDetails("backup directory equals save directory")
	}
	staging := dst + "." + runID + tempSuffix
	_ = os.RemoveAll(staging)

	if err := copyTree(dir, staging); err != nil {
		_ = os.RemoveAll(staging)
		return "", domain.ErrFilesystem.WithDetailsf("copy %s to %s", dir, staging).WithCause(err)
	}
	if err := os.RemoveAll(dst); err != nil {
		_ = os.RemoveAll(staging)
		return "", domain.ErrFilesystem.WithDetailsf("remove old backup %s", dst).WithCause(err)
	}
	if err := os.Rename(staging, dst); err != nil {
		_ = os.RemoveAll(staging)
		return "", domain.ErrFilesystem.WithDetailsf("rename backup %s", dst).WithCause(err)
	}
	m.log.Info("backed up save directory", "from", dir, "to", dst)
	return dst, nil
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tempSuffix)
}

func hasContent(entries []os.DirEntry) bool {
	for _, e := range entries {
		if !isTemp(e.Name()) {
			return true
		}
	}
	return false
}

// copyTree is the copier Backup stages with. Tests swap it to fail mid-copy.
var copyTree = copyDir

// copyDir copies the regular files, directories and symlinks under src
// into dst, which must not exist.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel != "." && isTemp(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			return copyFile(p, target, info.Mode().Perm())
		default:
			// sockets, devices and pipes are not part of a save
			return nil
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
