package update

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	// DefaultArchiveScheme prefixes the File path of archive-loaded plugins.
	DefaultArchiveScheme = "phar://"
	// BackupSuffix is appended to the previous archive when it is set aside.
	BackupSuffix = ".old"
)

// Install step names recorded in InstallResult.
const (
	StepCleanTemp  = "clean-temp"
	StepMoveNew    = "move-new"
	StepBackupOld  = "backup-old"
	StepDeleteOld  = "delete-old"
	StepRestoreOld = "restore-old"
)

// InstallStep is one filesystem action taken by the installer.
type InstallStep struct {
	Name  string `json:"name" yaml:"name"`
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// InstallResult describes what OnDownloadComplete did.
type InstallResult struct {
	HTTPStatus int           `json:"http_status" yaml:"http_status"`
	Installed  bool          `json:"installed" yaml:"installed"`
	Archive    bool          `json:"archive" yaml:"archive"`
	Target     string        `json:"target,omitempty" yaml:"target,omitempty"`
	Steps      []InstallStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Failed reports whether any step recorded an error.
func (r InstallResult) Failed() bool {
	for _, s := range r.Steps {
		if s.Error != "" {
			return true
		}
	}
	return false
}

func (r *InstallResult) record(name, path string, err error) {
	step := InstallStep{Name: name, Path: path}
	if err != nil {
		step.Error = err.Error()
	}
	r.Steps = append(r.Steps, step)
}

// Installer moves a downloaded package into the plugins directory.
// Filesystem failures are logged and recorded, never returned.
type Installer struct {
	fs            afero.Fs
	log           logrus.FieldLogger
	cleaner       *Cleaner
	pluginsDir    string
	ext           string
	archiveScheme string
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithInstallExt sets the package extension used for installed files.
func WithInstallExt(ext string) InstallerOption {
	return func(i *Installer) {
		if ext != "" {
			i.ext = ext
		}
	}
}

// WithArchiveScheme sets the prefix identifying archive-loaded plugins.
func WithArchiveScheme(scheme string) InstallerOption {
	return func(i *Installer) {
		if scheme != "" {
			i.archiveScheme = scheme
		}
	}
}

// NewInstaller creates an installer placing packages in pluginsDir.
func NewInstaller(fs afero.Fs, log logrus.FieldLogger, pluginsDir string, opts ...InstallerOption) *Installer {
	i := &Installer{
		fs:            fs,
		log:           log,
		cleaner:       NewCleaner(fs),
		pluginsDir:    pluginsDir,
		ext:           DefaultPackageExt,
		archiveScheme: DefaultArchiveScheme,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TargetPath returns where the package for plugin is installed.
func (i *Installer) TargetPath(plugin Plugin) string {
	return filepath.Join(i.pluginsDir, plugin.DisplayName()+i.ext)
}

// IsArchive reports whether plugin was loaded from a packaged archive.
func (i *Installer) IsArchive(plugin Plugin) bool {
	return strings.HasPrefix(plugin.File(), i.archiveScheme)
}

// OnDownloadComplete installs the package at localPath when status is 200
// and discards the staging directory otherwise.
func (i *Installer) OnDownloadComplete(plugin Plugin, localPath string, status int) InstallResult {
	log := i.log.WithField("plugin", plugin.Name())
	log.Debugf("Update download complete, at '%s' with status '%d'", localPath, status)

	result := InstallResult{HTTPStatus: status}

	if status != http.StatusOK {
		log.Warnf("Received status code '%d' when downloading update, update cancelled.", status)
		tmp := TempDir(plugin)
		clean := i.cleaner.DeleteAll(tmp)
		result.record(StepCleanTemp, tmp, joinErrors(clean))
		return result
	}

	target := i.TargetPath(plugin)
	result.Target = target

	if !i.IsArchive(plugin) {
		// The move is best-effort: the previous directory goes either way.
		err := i.fs.Rename(localPath, target)
		result.record(StepMoveNew, target, err)
		if err != nil {
			log.WithError(err).Debug("Failed to move downloaded update into place")
		}

		log.Debugf("Deleting previous %s version...", plugin.DisplayName())
		clean := i.cleaner.DeleteAll(plugin.File())
		result.record(StepDeleteOld, plugin.File(), joinErrors(clean))

		result.Installed = err == nil
		log.Warn("Update complete, restart your server to load the new updated version.")
		return result
	}

	result.Archive = true
	backup := target + BackupSuffix
	var oldPath string
	backupErr := errors.New("archive name not found in plugin path")
	if name := ArchiveFileName(plugin.File(), i.archiveScheme); name != "" {
		oldPath = filepath.Join(i.pluginsDir, name)
		backupErr = i.fs.Rename(oldPath, backup)
	}
	result.record(StepBackupOld, backup, backupErr)
	if backupErr != nil {
		log.WithError(backupErr).Debug("Could not set previous archive aside")
	}

	if err := i.fs.Rename(localPath, target); err != nil {
		result.record(StepMoveNew, target, err)
		log.WithError(err).Warn("Failed to move downloaded update into place")
		if backupErr == nil {
			restoreErr := i.fs.Rename(backup, oldPath)
			result.record(StepRestoreOld, oldPath, restoreErr)
			if restoreErr != nil {
				log.WithError(restoreErr).Warn("Failed to restore previous version")
			}
		}
		return result
	}
	result.record(StepMoveNew, target, nil)

	result.Installed = true
	log.Warn("Update complete, restart your server to load the new updated version.")
	return result
}

// ArchiveFileName returns the archive's own file name from a plugin File
// path such as "phar:///srv/plugins/MyPlugin.phar/". It returns "" when file
// does not carry scheme.
func ArchiveFileName(file, scheme string) string {
	if !strings.HasPrefix(file, scheme) {
		return ""
	}
	p := strings.TrimPrefix(file, scheme)
	p = strings.TrimRight(p, `/\`)
	if idx := strings.LastIndexAny(p, `/\`); idx >= 0 {
		p = p[idx+1:]
	}
	return p
}

func joinErrors(r CleanResult) error {
	if r.Refused {
		return fmt.Errorf("refused to delete protected path %q", r.Path)
	}
	return errors.Join(r.Errors...)
}
