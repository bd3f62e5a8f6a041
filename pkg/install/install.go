// Package install places EVA under the host's hooks directory and registers
// it in hooks.json, and undoes both.
//
// Layout after Install:
//
//	$EVA_HOME/eva                    the CLI binary, run as "eva hook"
//	$EVA_HOME/assets/audio/eva_*/    voice lines per faction
//	$EVA_HOME/config.{yaml,toml}     left alone if present
package install

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"eva/pkg/faction"
	"eva/pkg/protocol"
)

// ErrNoAssets is returned when the asset source holds no faction directories.
var ErrNoAssets = errors.New("no EVA assets found")

// Options describes one install or uninstall.
type Options struct {
	Home      string // install directory ($EVA_HOME)
	HooksJSON string // host hook registry
	Assets    string // source asset tree; either "assets" or "assets/audio"
	Binary    string // binary to install; empty means the running executable
	DryRun    bool   // report the plan without touching the filesystem

	// Step is told about each stage as it starts. Nil is silent.
	Step func(msg string)
}

func (o Options) step(format string, args ...any) {
	if o.Step != nil {
		o.Step(fmt.Sprintf(format, args...))
	}
}

// Report summarises what Install did (or would do, with DryRun).
type Report struct {
	Home      string
	HooksJSON string
	Command   string
	Events    []protocol.EventKind
	Replaced  int
	Sounds    map[faction.Faction]int
}

// BinaryName is the installed executable's file name.
func BinaryName() string {
	if runtime.GOOS == "windows" {
		return "eva.exe"
	}
	return "eva"
}

// HookCommand is the hooks.json command for the binary at path.
func HookCommand(path string) string {
	if strings.ContainsAny(path, " \t") {
		path = `"` + path + `"`
	}
	return path + " hook"
}

// InstalledCommand is the hook command of an install rooted at home.
func InstalledCommand(home string) string {
	return HookCommand(filepath.Join(home, BinaryName()))
}

// Install copies the binary and assets into opts.Home and registers the
// hook for every event kind.
func Install(opts Options) (Report, error) {
	if opts.Home == "" || opts.HooksJSON == "" {
		return Report{}, errors.New("install: home and hooks.json paths are required")
	}

	src, err := ResolveAssetSource(opts.Assets)
	if err != nil {
		return Report{}, err
	}
	sounds, err := CountSounds(src)
	if err != nil {
		return Report{}, err
	}

	binary := opts.Binary
	if binary == "" {
		if binary, err = os.Executable(); err != nil {
			return Report{}, fmt.Errorf("locate running binary: %w", err)
		}
	}

	target := filepath.Join(opts.Home, BinaryName())
	assetsDir := filepath.Join(opts.Home, filepath.FromSlash(protocol.AssetsDir))
	rep := Report{
		Home:      opts.Home,
		HooksJSON: opts.HooksJSON,
		Command:   InstalledCommand(opts.Home),
		Events:    slices.Clone(protocol.AllEventKinds),
		Sounds:    sounds,
	}

	if within(src, filepath.Join(opts.Home, "assets")) {
		return rep, fmt.Errorf("install: asset source %s is inside the install directory", src)
	}
	selfInstall := sameFile(binary, target)

	opts.step("[1/5] Removing existing installation from %s", opts.Home)
	if !opts.DryRun {
		if err := removeInstalled(opts.Home, !selfInstall); err != nil {
			return rep, err
		}
	}

	opts.step("[2/5] Creating directory structure")
	if !opts.DryRun {
		if err := os.MkdirAll(assetsDir, 0o755); err != nil {
			return rep, fmt.Errorf("create %s: %w", assetsDir, err)
		}
	}

	opts.step("[3/5] Installing binary to %s", target)
	if !opts.DryRun && !selfInstall {
		if err := copyFile(binary, target, 0o755); err != nil {
			return rep, err
		}
	}

	opts.step("[4/5] Copying audio assets from %s", src)
	if !opts.DryRun {
		if err := CopyTree(src, assetsDir); err != nil {
			return rep, err
		}
	}

	opts.step("[5/5] Configuring %s", opts.HooksJSON)
	existing, err := readOptional(opts.HooksJSON)
	if err != nil {
		return rep, err
	}
	merged, replaced, err := MergeHooks(existing, rep.Command)
	if err != nil {
		return rep, err
	}
	rep.Replaced = replaced
	if !opts.DryRun {
		if err := writeAtomic(opts.HooksJSON, merged); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// UninstallReport summarises what Uninstall did.
type UninstallReport struct {
	RemovedHome  bool
	RemovedHooks int
}

// Uninstall deletes opts.Home and drops EVA's entries from hooks.json.
// Missing pieces are skipped.
func Uninstall(opts Options) (UninstallReport, error) {
	var rep UninstallReport
	if opts.Home == "" || opts.HooksJSON == "" {
		return rep, errors.New("uninstall: home and hooks.json paths are required")
	}

	if _, err := os.Stat(opts.Home); err == nil {
		opts.step("Removing %s", opts.Home)
		if !opts.DryRun {
			if err := os.RemoveAll(opts.Home); err != nil {
				return rep, fmt.Errorf("remove %s: %w", opts.Home, err)
			}
		}
		rep.RemovedHome = true
	}

	existing, err := readOptional(opts.HooksJSON)
	if err != nil {
		return rep, err
	}
	if existing == nil {
		return rep, nil
	}
	cleaned, removed, err := RemoveHooks(existing, InstalledCommand(opts.Home))
	if err != nil {
		return rep, err
	}
	rep.RemovedHooks = removed
	if removed == 0 {
		return rep, nil
	}
	opts.step("Cleaning up %s", opts.HooksJSON)
	if !opts.DryRun {
		if err := writeAtomic(opts.HooksJSON, cleaned); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// ResolveAssetSource accepts either a package "assets" directory (with an
// audio/ child) or the audio directory itself, and returns the directory
// holding the faction folders.
func ResolveAssetSource(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: no asset directory given", ErrNoAssets)
	}
	for _, candidate := range []string{filepath.Join(dir, "audio"), dir} {
		for _, f := range faction.All {
			if info, err := os.Stat(filepath.Join(candidate, f.Dir())); err == nil && info.IsDir() {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoAssets, dir)
}

// CountSounds counts the .wav files of each faction under root.
func CountSounds(root string) (map[faction.Faction]int, error) {
	counts := make(map[faction.Faction]int, len(faction.All))
	for _, f := range faction.All {
		entries, err := os.ReadDir(filepath.Join(root, f.Dir()))
		if errors.Is(err, fs.ErrNotExist) {
			counts[f] = 0
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s assets: %w", f, err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
				counts[f]++
			}
		}
	}
	return counts, nil
}

// CopyTree copies the regular files under src into dst, creating
// directories as needed.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target, 0o644)
	})
}

// removeInstalled deletes a previous asset tree, and the binary when
// withBinary is set, but keeps any user configuration in home.
func removeInstalled(home string, withBinary bool) error {
	paths := []string{filepath.Join(home, "assets")}
	if withBinary {
		paths = append(paths, filepath.Join(home, BinaryName()))
	}
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// within reports whether path is dir or below it.
func within(path, dir string) bool {
	absPath, err1 := filepath.Abs(path)
	absDir, err2 := filepath.Abs(dir)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func sameFile(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src) //nolint:gosec // install sources are chosen by the user
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm) //nolint:gosec // destination under the install home
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // hooks.json path from EVA_HOOKS_JSON or the home dir
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeAtomic replaces path via a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil { //nolint:gosec // hooks.json is read by the host
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
